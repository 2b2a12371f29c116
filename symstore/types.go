package symstore

import "github.com/orizon-lang/symbuilder/symstore/symerr"

// TypeSymbol is implemented by every Type subkind.
type TypeSymbol interface {
	Symbol
	Subkind() TypeSubkind
	Size() uint64
	Alignment() uint64
}

// IntrinsicKind enumerates the coarse intrinsic categories used for
// pointer-size-independent sizing and enum packing classification
// (spec 4.2). Several of the 15 basic C types seeded by AddBasicCTypes
// share a kind, distinguished only by packing size (e.g. short and int
// are both IntrinsicInt).
type IntrinsicKind uint8

const (
	IntrinsicVoid IntrinsicKind = iota + 1
	IntrinsicBool
	IntrinsicChar
	IntrinsicWchar
	IntrinsicInt
	IntrinsicUint
	IntrinsicLong
	IntrinsicUlong
	IntrinsicFloat
	IntrinsicChar16
	IntrinsicChar32
)

// IntrinsicSymbol is a basic, immutable-after-creation type (spec 4.2).
type IntrinsicSymbol struct {
	baseHeader

	IntKind IntrinsicKind
	size    uint64
}

func (t *IntrinsicSymbol) Subkind() TypeSubkind { return TypeIntrinsic }
func (t *IntrinsicSymbol) Size() uint64         { return t.size }

func (t *IntrinsicSymbol) Alignment() uint64 {
	if t.size == 0 {
		return 1
	}

	return t.size
}

// NotifyDependentChange: intrinsics are immutable, nothing to recompute.
func (t *IntrinsicSymbol) NotifyDependentChange(s *Store) error {
	return t.propagate(s)
}

// packingKind derives the constant packing representation used by enums
// with this intrinsic as their underlying type (spec 4.2).
func (t *IntrinsicSymbol) packingKind() (ConstantKind, error) {
	bySize := func(signed bool, size uint64) (ConstantKind, error) {
		switch size {
		case 1:
			if signed {
				return ConstI1, nil
			}

			return ConstU1, nil
		case 2:
			if signed {
				return ConstI2, nil
			}

			return ConstU2, nil
		case 4:
			if signed {
				return ConstI4, nil
			}

			return ConstU4, nil
		case 8:
			if signed {
				return ConstI8, nil
			}

			return ConstU8, nil
		default:
			return ConstEmpty, symerr.Unsupportedf("BAD_ENUM_UNDERLYING", map[string]interface{}{"size": size}, "underlying intrinsic of size %d cannot back an enum", size)
		}
	}

	switch t.IntKind {
	case IntrinsicBool:
		return ConstBool, nil
	case IntrinsicChar, IntrinsicInt, IntrinsicLong:
		return bySize(true, t.size)
	case IntrinsicWchar, IntrinsicUint, IntrinsicUlong:
		return bySize(false, t.size)
	default:
		return ConstEmpty, symerr.Unsupportedf("BAD_ENUM_UNDERLYING", map[string]interface{}{"kind": t.IntKind}, "intrinsic kind %d cannot back an enum", t.IntKind)
	}
}

// PointerKind enumerates the four pointer flavors (spec 4.2).
type PointerKind uint8

const (
	PointerStandard PointerKind = iota + 1
	PointerReference
	PointerRValueReference
	PointerCxHat
)

func (k PointerKind) suffix() string {
	switch k {
	case PointerStandard:
		return " *"
	case PointerReference:
		return " &"
	case PointerRValueReference:
		return " &&"
	case PointerCxHat:
		return " ^"
	default:
		return ""
	}
}

// PointerSymbol holds a target id and pointer kind (spec 4.2). Size and
// alignment are the module's pointer size and do not change on pointee
// change — only the displayed name does.
type PointerSymbol struct {
	baseHeader

	TargetID    uint32
	PtrKind     PointerKind
	pointerSize uint64
}

func (t *PointerSymbol) Subkind() TypeSubkind { return TypePointer }
func (t *PointerSymbol) Size() uint64         { return t.pointerSize }
func (t *PointerSymbol) Alignment() uint64    { return t.pointerSize }

// NotifyDependentChange: pointer size is fixed, so only the name derived
// from the pointee can change. refreshName re-derives it here, and the
// pointer's own dependents are notified only when it actually changed;
// this also ends propagation around cycles such as a struct holding a
// pointer to itself.
func (t *PointerSymbol) NotifyDependentChange(s *Store) error {
	oldName, oldQualified := t.name, t.qualifiedName
	t.refreshName(s)

	if t.name == oldName && t.qualifiedName == oldQualified {
		return nil
	}

	return t.propagate(s)
}

func (t *PointerSymbol) refreshName(s *Store) {
	pointee, ok := s.find(t.TargetID)
	if !ok {
		return
	}

	t.name = pointee.Name() + t.PtrKind.suffix()
	if qn := pointee.QualifiedName(); qn != "" {
		t.qualifiedName = qn + t.PtrKind.suffix()
	}
}

// ArraySymbol holds an element-type id and a positive dimension (spec 4.2).
type ArraySymbol struct {
	baseHeader

	ElementTypeID uint32
	Dimension     uint64
	elemSize      uint64
	elemAlign     uint64
	size          uint64
}

func (t *ArraySymbol) Subkind() TypeSubkind { return TypeArray }
func (t *ArraySymbol) Size() uint64         { return t.size }
func (t *ArraySymbol) Alignment() uint64    { return t.elemAlign }

// NotifyDependentChange refreshes the captured element size/alignment and
// recomputes total size (spec 4.2/4.7).
func (t *ArraySymbol) NotifyDependentChange(s *Store) error {
	if elem, ok := s.findType(t.ElementTypeID); ok {
		t.elemSize = elem.Size()
		t.elemAlign = elem.Alignment()
	}

	t.size = t.elemSize * t.Dimension

	return t.propagate(s)
}

// TypedefSymbol forwards size/alignment from its aliased type, snapshot
// at creation and refreshed on dependency notification (spec 4.2).
type TypedefSymbol struct {
	baseHeader

	AliasOfID uint32
	size      uint64
	alignment uint64
}

func (t *TypedefSymbol) Subkind() TypeSubkind { return TypeTypedef }
func (t *TypedefSymbol) Size() uint64         { return t.size }
func (t *TypedefSymbol) Alignment() uint64    { return t.alignment }

func (t *TypedefSymbol) NotifyDependentChange(s *Store) error {
	if aliased, ok := s.findType(t.AliasOfID); ok {
		t.size = aliased.Size()
		t.alignment = aliased.Alignment()
	}

	return t.propagate(s)
}

// EnumSymbol holds an underlying intrinsic type id, a derived packing
// code, and enumerant children (spec 4.2).
type EnumSymbol struct {
	baseHeader

	UnderlyingID uint32
	packing      ConstantKind
	size         uint64
	alignment    uint64
}

func (t *EnumSymbol) Subkind() TypeSubkind  { return TypeEnum }
func (t *EnumSymbol) Size() uint64          { return t.size }
func (t *EnumSymbol) Alignment() uint64     { return t.alignment }
func (t *EnumSymbol) Packing() ConstantKind { return t.packing }

// NotifyDependentChange re-derives size/alignment/packing from the
// underlying type, then re-runs the enumerant layout pass (spec 4.2/4.7).
func (t *EnumSymbol) NotifyDependentChange(s *Store) error {
	if err := t.refreshUnderlying(s); err != nil {
		return err
	}

	if err := t.layoutEnumerants(s); err != nil {
		return err
	}

	return t.propagate(s)
}

func (t *EnumSymbol) refreshUnderlying(s *Store) error {
	underlying, ok := s.find(t.UnderlyingID)
	if !ok {
		return symerr.UnknownID(t.UnderlyingID)
	}

	intr, ok := underlying.(*IntrinsicSymbol)
	if !ok {
		return symerr.InvalidArgumentf("BAD_ENUM_UNDERLYING", map[string]interface{}{"id": t.UnderlyingID}, "enum underlying type must be an intrinsic")
	}

	packing, err := intr.packingKind()
	if err != nil {
		return err
	}

	t.packing = packing
	t.size = intr.Size()
	t.alignment = intr.Alignment()

	return nil
}

// layoutEnumerants walks children in order; auto-increment enumerants get
// the previous sibling's value + 1 (0 for the first), explicit enumerants
// start a new run (spec 3/4.2).
func (t *EnumSymbol) layoutEnumerants(s *Store) error {
	var prev ConstantValue
	havePrev := false

	for _, childID := range t.children {
		sym, ok := s.find(childID)
		if !ok {
			continue
		}

		field, ok := sym.(*FieldSymbol)
		if !ok {
			continue
		}

		switch field.Location.Kind {
		case LocAutoIncrementConstant:
			var next ConstantValue
			if havePrev {
				next = prev.successor()
			} else {
				next = zeroConstant(t.packing)
			}

			field.Location = LocationDescriptor{Kind: LocAutoIncrementConstant, Constant: next}
			prev, havePrev = next, true

		case LocConstant:
			prev, havePrev = field.Location.Constant, true

		default:
			return symerr.InvalidStatef("BAD_ENUMERANT", map[string]interface{}{"id": field.ID()}, "enumerant %d has a non-constant location", field.ID())
		}
	}

	return nil
}

// FunctionTypeSymbol holds a return type and ordered parameter types.
// Size and alignment are always 0: it is not storage (spec 4.2).
type FunctionTypeSymbol struct {
	baseHeader

	ReturnTypeID uint32
	ParamTypeIDs []uint32
}

func (t *FunctionTypeSymbol) Subkind() TypeSubkind { return TypeFunctionType }
func (t *FunctionTypeSymbol) Size() uint64         { return 0 }
func (t *FunctionTypeSymbol) Alignment() uint64    { return 0 }

func (t *FunctionTypeSymbol) NotifyDependentChange(s *Store) error {
	return t.propagate(s)
}
