package symstore

import "github.com/orizon-lang/symbuilder/symstore/symerr"

// CreateIntrinsic creates (or returns, if already present by name) a basic
// intrinsic type. Exposed mainly for AddBasicCTypes and importers; callers
// building ordinary symbol graphs should use FindTypeByName or the basic
// type ids captured from AddBasicCTypes instead.
func (s *Store) CreateIntrinsic(name string, kind IntrinsicKind, size uint64) (uint32, error) {
	if id, ok := s.nameIndex[name]; ok {
		return id, nil
	}

	h := s.newHeader(KindType, NoSymbol, name, name)
	t := &IntrinsicSymbol{baseHeader: h, IntKind: kind, size: size}
	s.register(t)
	s.InvalidateExternalCaches()

	return t.id, nil
}

// CreatePointer creates a pointer/reference type to targetID.
func (s *Store) CreatePointer(targetID uint32, kind PointerKind) (uint32, error) {
	if _, ok := s.find(targetID); !ok {
		return 0, symerr.UnknownID(targetID)
	}

	h := s.newHeader(KindType, NoSymbol, "", "")
	p := &PointerSymbol{baseHeader: h, TargetID: targetID, PtrKind: kind, pointerSize: s.PointerSize}
	s.register(p)
	s.addDependency(p.id, targetID)

	if err := s.notify(p.id); err != nil {
		return 0, err
	}

	return p.id, nil
}

// CreateArray creates an array of dimension elements of elementTypeID.
func (s *Store) CreateArray(elementTypeID uint32, dimension uint64) (uint32, error) {
	if dimension == 0 {
		return 0, symerr.InvalidArgumentf("BAD_DIMENSION", map[string]interface{}{"dimension": dimension}, "array dimension must be positive")
	}

	if _, ok := s.find(elementTypeID); !ok {
		return 0, symerr.UnknownID(elementTypeID)
	}

	h := s.newHeader(KindType, NoSymbol, "", "")
	a := &ArraySymbol{baseHeader: h, ElementTypeID: elementTypeID, Dimension: dimension}
	s.register(a)
	s.addDependency(a.id, elementTypeID)

	if err := s.notify(a.id); err != nil {
		return 0, err
	}

	return a.id, nil
}

// CreateTypedef creates a named alias of aliasOfID.
func (s *Store) CreateTypedef(name string, aliasOfID uint32) (uint32, error) {
	if _, ok := s.find(aliasOfID); !ok {
		return 0, symerr.UnknownID(aliasOfID)
	}

	if _, taken := s.nameIndex[name]; taken {
		return 0, symerr.NameTaken(name)
	}

	h := s.newHeader(KindType, NoSymbol, name, name)
	t := &TypedefSymbol{baseHeader: h, AliasOfID: aliasOfID}
	s.register(t)
	s.addDependency(t.id, aliasOfID)

	if err := s.notify(t.id); err != nil {
		return 0, err
	}

	return t.id, nil
}

// CreateEnum creates an enum over underlyingID (must resolve to an
// intrinsic with an integral packing representation).
func (s *Store) CreateEnum(name, qualifiedName string, underlyingID uint32) (uint32, error) {
	if _, ok := s.find(underlyingID); !ok {
		return 0, symerr.UnknownID(underlyingID)
	}

	if qualifiedName != "" {
		if _, taken := s.nameIndex[qualifiedName]; taken {
			return 0, symerr.NameTaken(qualifiedName)
		}
	}

	h := s.newHeader(KindType, NoSymbol, name, qualifiedName)
	e := &EnumSymbol{baseHeader: h, UnderlyingID: underlyingID}
	s.register(e)
	s.addDependency(e.id, underlyingID)

	if err := s.notify(e.id); err != nil {
		return 0, err
	}

	return e.id, nil
}

// CreateEnumerator adds an enumerant to enumID. If explicit is non-nil the
// enumerant gets that fixed value and starts a new auto-increment run;
// otherwise it auto-increments from the previous sibling (spec 3/4.2).
func (s *Store) CreateEnumerator(enumID uint32, name string, explicit *ConstantValue) (uint32, error) {
	sym, ok := s.find(enumID)
	if !ok {
		return 0, symerr.UnknownID(enumID)
	}

	enum, ok := sym.(*EnumSymbol)
	if !ok {
		return 0, symerr.WrongKind("CreateEnumerator", sym.Kind().String())
	}

	var loc LocationDescriptor
	if explicit != nil {
		loc = Constant(*explicit)
	} else {
		loc = AutoIncrement(enum.packing)
	}

	h := s.newHeader(KindField, enumID, name, "")
	f := &FieldSymbol{baseHeader: h, Location: loc}
	s.register(f)

	if err := s.notify(enumID); err != nil {
		return 0, err
	}

	return f.id, nil
}

// CreateUdt creates an empty struct/union/class type.
func (s *Store) CreateUdt(name, qualifiedName string) (uint32, error) {
	if qualifiedName != "" {
		if _, taken := s.nameIndex[qualifiedName]; taken {
			return 0, symerr.NameTaken(qualifiedName)
		}
	}

	h := s.newHeader(KindType, NoSymbol, name, qualifiedName)
	u := &UdtSymbol{baseHeader: h, alignment: 1}
	s.register(u)
	s.InvalidateExternalCaches()

	return u.id, nil
}

// CreateField adds a field to udtID, typed typeID, at loc (explicit
// offset or automatic layout). Re-runs the UDT's layout pass.
func (s *Store) CreateField(udtID uint32, name string, typeID uint32, loc LocationDescriptor) (uint32, error) {
	if loc.Kind != LocStructureOffset && loc.Kind != LocAutoAppend {
		return 0, symerr.InvalidArgumentf("BAD_FIELD_LOCATION", map[string]interface{}{"kind": loc.Kind}, "field location must be an explicit offset or automatic layout")
	}

	if _, ok := s.find(udtID); !ok {
		return 0, symerr.UnknownID(udtID)
	}

	if _, ok := s.find(typeID); !ok {
		return 0, symerr.UnknownID(typeID)
	}

	h := s.newHeader(KindField, udtID, name, "")
	f := &FieldSymbol{baseHeader: h, TypeID: typeID, Location: loc}
	s.register(f)
	s.addDependency(f.id, typeID)

	if err := s.notify(udtID); err != nil {
		return 0, err
	}

	return f.id, nil
}

// CreateBaseClass adds a non-static base class to udtID.
func (s *Store) CreateBaseClass(udtID uint32, typeID uint32, loc LocationDescriptor) (uint32, error) {
	if loc.Kind != LocStructureOffset && loc.Kind != LocAutoAppend {
		return 0, symerr.InvalidArgumentf("BAD_BASE_LOCATION", map[string]interface{}{"kind": loc.Kind}, "base class location must be an explicit offset or automatic layout")
	}

	if _, ok := s.find(udtID); !ok {
		return 0, symerr.UnknownID(udtID)
	}

	if _, ok := s.find(typeID); !ok {
		return 0, symerr.UnknownID(typeID)
	}

	h := s.newHeader(KindBaseClass, udtID, "", "")
	b := &BaseClassSymbol{baseHeader: h, TypeID: typeID, Location: loc}
	s.register(b)
	s.addDependency(b.id, typeID)

	if err := s.notify(udtID); err != nil {
		return 0, err
	}

	return b.id, nil
}

// SetFieldType changes a field's type and re-runs its owning aggregate's
// layout pass.
func (s *Store) SetFieldType(fieldID, typeID uint32) error {
	sym, ok := s.find(fieldID)
	if !ok {
		return symerr.UnknownID(fieldID)
	}

	f, ok := sym.(*FieldSymbol)
	if !ok {
		return symerr.WrongKind("SetFieldType", sym.Kind().String())
	}

	if _, ok := s.find(typeID); !ok {
		return symerr.UnknownID(typeID)
	}

	if f.TypeID != NoSymbol {
		s.removeDependency(f.id, f.TypeID)
	}

	f.TypeID = typeID
	s.addDependency(f.id, typeID)

	return s.notify(fieldID)
}

// SetFieldOffset changes a field to an explicit offset (or, with
// auto=true, back to automatic layout).
func (s *Store) SetFieldOffset(fieldID uint32, offset int64, auto bool) error {
	sym, ok := s.find(fieldID)
	if !ok {
		return symerr.UnknownID(fieldID)
	}

	f, ok := sym.(*FieldSymbol)
	if !ok {
		return symerr.WrongKind("SetFieldOffset", sym.Kind().String())
	}

	if f.Location.Kind == LocConstant || f.Location.Kind == LocAutoIncrementConstant {
		return symerr.Unsupportedf("NOT_A_LAYOUT_FIELD", map[string]interface{}{"id": fieldID}, "field %d is an enumerant, not a layout field", fieldID)
	}

	if auto {
		f.Location = AutoAppend()
	} else {
		f.Location = ExplicitOffset(offset)
	}

	return s.notify(f.parentID)
}

// pointerTypeOf returns the store id of the pointer-kind type for base,
// creating it if it does not already exist as a (target, kind) pair.
// Used by FindTypeByName's synthesis path (spec 4.1).
func (s *Store) pointerTypeOf(targetID uint32, kind PointerKind) (uint32, error) {
	for id, sym := range s.symbols {
		if sym == nil {
			continue
		}

		if p, ok := sym.(*PointerSymbol); ok && p.TargetID == targetID && p.PtrKind == kind {
			return uint32(id), nil
		}
	}

	return s.CreatePointer(targetID, kind)
}

// arrayTypeOf returns the store id of the array type (element, dimension),
// creating it if needed. Used by FindTypeByName's synthesis path.
func (s *Store) arrayTypeOf(elementID uint32, dimension uint64) (uint32, error) {
	for id, sym := range s.symbols {
		if sym == nil {
			continue
		}

		if a, ok := sym.(*ArraySymbol); ok && a.ElementTypeID == elementID && a.Dimension == dimension {
			return uint32(id), nil
		}
	}

	return s.CreateArray(elementID, dimension)
}
