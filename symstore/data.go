package symstore

import "github.com/orizon-lang/symbuilder/symstore/symerr"

// typeSizeAlign looks up a TypeSymbol's size and alignment, defaulting to
// (0, 1) if the id does not resolve to a type (should not happen in a
// consistent store, but callers must not panic on transient state during
// dependency propagation).
func (s *Store) typeSizeAlign(id uint32) (size, align uint64) {
	t, ok := s.findType(id)
	if !ok {
		return 0, 1
	}

	return t.Size(), t.Alignment()
}

// FieldSymbol is a struct/union member (when its parent is a Udt) or an
// enumerant (when its parent is an Enum) — spec 4.2/4.3 both describe
// children of kind Field.
type FieldSymbol struct {
	baseHeader

	TypeID          uint32 // 0 only for an untyped enumerant (inherits enum's underlying type)
	Location        LocationDescriptor
	effectiveOffset int64
	layoutDone      bool
}

// EffectiveOffset returns the field's effective offset: the declared
// offset for an explicit-offset field, or the layout-derived offset for
// an automatic-layout field (spec 3).
func (f *FieldSymbol) EffectiveOffset() (int64, error) {
	switch f.Location.Kind {
	case LocStructureOffset:
		return f.Location.Offset, nil
	case LocAutoAppend:
		if !f.layoutDone {
			return 0, symerr.LayoutNotReady(f.id)
		}

		return f.effectiveOffset, nil
	default:
		return 0, symerr.WrongKind("EffectiveOffset", f.kind.String())
	}
}

// IsExplicitOffset reports whether this field was declared with a fixed
// offset rather than automatic layout.
func (f *FieldSymbol) IsExplicitOffset() bool { return f.Location.Kind == LocStructureOffset }

// ConstantValue returns the enumerant's resolved value. Valid only when
// the field's parent is an Enum.
func (f *FieldSymbol) ConstantValue() (ConstantValue, error) {
	switch f.Location.Kind {
	case LocConstant, LocAutoIncrementConstant:
		return f.Location.Constant, nil
	default:
		return ConstantValue{}, symerr.WrongKind("ConstantValue", f.kind.String())
	}
}

// NotifyDependentChange forwards to the owning aggregate (Udt re-runs
// layout, Enum re-runs enumerant layout) since a Field has no layout
// state of its own to recompute (spec 4.7).
func (f *FieldSymbol) NotifyDependentChange(s *Store) error {
	if err := s.notifyOwner(f.parentID); err != nil {
		return err
	}

	return f.propagate(s)
}

// BaseClassSymbol is a non-static base class of a Udt (spec 4.2/4.3).
type BaseClassSymbol struct {
	baseHeader

	TypeID          uint32
	Location        LocationDescriptor
	effectiveOffset int64
	layoutDone      bool
}

func (b *BaseClassSymbol) EffectiveOffset() (int64, error) {
	switch b.Location.Kind {
	case LocStructureOffset:
		return b.Location.Offset, nil
	case LocAutoAppend:
		if !b.layoutDone {
			return 0, symerr.LayoutNotReady(b.id)
		}

		return b.effectiveOffset, nil
	default:
		return 0, symerr.WrongKind("EffectiveOffset", b.kind.String())
	}
}

func (b *BaseClassSymbol) NotifyDependentChange(s *Store) error {
	if err := s.notifyOwner(b.parentID); err != nil {
		return err
	}

	return b.propagate(s)
}

// DataSymbol is a global ("Data" kind) symbol, registered in the store's
// address-range index for [offset, offset+type_size) (spec 4.3).
type DataSymbol struct {
	baseHeader

	TypeID     uint32
	Location   LocationDescriptor // LocImageOffset
	rangeBound bool
	rangeSize  uint64
}

// NotifyDependentChange refreshes the address-range index if the type's
// size changed, per spec 4.7's GlobalData override.
func (d *DataSymbol) NotifyDependentChange(s *Store) error {
	newSize, _ := s.typeSizeAlign(d.TypeID)
	if d.rangeBound && newSize != d.rangeSize {
		s.addrIndex.Remove(uint64(d.Location.Offset), uint64(d.Location.Offset)+d.rangeSize, d.id)
		s.addrIndex.Insert(uint64(d.Location.Offset), uint64(d.Location.Offset)+newSize, d.id)
	}

	d.rangeSize = newSize

	return d.propagate(s)
}

// ParameterSymbol is a function parameter (spec 4.3/4.4).
type ParameterSymbol struct {
	baseHeader

	TypeID uint32
	ranges liveRangeSet
}

func (p *ParameterSymbol) LiveRanges() []LiveRange { return p.ranges.All() }

func (p *ParameterSymbol) NotifyDependentChange(s *Store) error {
	if err := s.notifyOwner(p.parentID); err != nil {
		return err
	}

	return p.propagate(s)
}

// LocalSymbol is a function local variable (spec 4.3/4.4).
type LocalSymbol struct {
	baseHeader

	TypeID uint32
	ranges liveRangeSet
}

func (l *LocalSymbol) LiveRanges() []LiveRange { return l.ranges.All() }

func (l *LocalSymbol) NotifyDependentChange(s *Store) error {
	if err := s.notifyOwner(l.parentID); err != nil {
		return err
	}

	return l.propagate(s)
}

// PublicSymbol is a minimal (name, address) symbol (spec 4.5).
type PublicSymbol struct {
	baseHeader

	Address uint64
}

func (p *PublicSymbol) NotifyDependentChange(s *Store) error {
	return p.propagate(s)
}

// notifyOwner looks up parentID's symbol and, if present, runs its own
// NotifyDependentChange (which recomputes derived state and propagates
// further) — this is how a leaf data symbol's type change bubbles up to
// the aggregate that actually owns layout/signature state.
func (s *Store) notifyOwner(parentID uint32) error {
	if parentID == NoSymbol {
		return nil
	}

	owner, ok := s.find(parentID)
	if !ok {
		return nil
	}

	return owner.NotifyDependentChange(s)
}
