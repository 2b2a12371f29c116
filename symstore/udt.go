package symstore

// UdtSymbol is a struct/union/class type laid out by a two-pass traversal
// over its children: base classes first, then fields, each in declared
// order (spec 4.2).
type UdtSymbol struct {
	baseHeader

	size      uint64
	alignment uint64
}

func (u *UdtSymbol) Subkind() TypeSubkind { return TypeUdt }
func (u *UdtSymbol) Size() uint64         { return u.size }

func (u *UdtSymbol) Alignment() uint64 {
	if u.alignment == 0 {
		return 1
	}

	return u.alignment
}

// NotifyDependentChange re-runs layout, then propagates to dependents
// (spec 4.7).
func (u *UdtSymbol) NotifyDependentChange(s *Store) error {
	u.layout(s)
	return u.propagate(s)
}

// layout implements spec 4.2's two-pass UDT layout: base classes first,
// then fields, each in declared order; explicit-offset children use their
// declared offset, automatic children round the running offset up to
// their type's alignment. The aggregate size is the maximum running
// offset observed, padded to the aggregate's alignment; the aggregate's
// alignment is the maximum child alignment (minimum 1).
func (u *UdtSymbol) layout(s *Store) {
	var maxEnd uint64

	var maxAlign uint64 = 1

	offset := uint64(0)

	layoutChild := func(typeID uint32, loc *LocationDescriptor, setEffective func(int64)) {
		childSize, childAlign := s.typeSizeAlign(typeID)
		if childAlign == 0 {
			childAlign = 1
		}

		if childAlign > maxAlign {
			maxAlign = childAlign
		}

		var placement uint64

		if loc.Kind == LocStructureOffset {
			placement = uint64(loc.Offset)
		} else {
			placement = alignUpU64(offset, childAlign)
			offset = placement + childSize
		}

		setEffective(int64(placement))

		if end := placement + childSize; end > maxEnd {
			maxEnd = end
		}
	}

	for _, childID := range u.children {
		sym, ok := s.find(childID)
		if !ok {
			continue
		}

		b, ok := sym.(*BaseClassSymbol)
		if !ok {
			continue
		}

		layoutChild(b.TypeID, &b.Location, func(off int64) {
			b.effectiveOffset = off
			b.layoutDone = true
		})
	}

	for _, childID := range u.children {
		sym, ok := s.find(childID)
		if !ok {
			continue
		}

		f, ok := sym.(*FieldSymbol)
		if !ok {
			continue
		}

		layoutChild(f.TypeID, &f.Location, func(off int64) {
			f.effectiveOffset = off
			f.layoutDone = true
		})
	}

	u.alignment = maxAlign
	u.size = alignUpU64(maxEnd, maxAlign)
}

func alignUpU64(value, alignment uint64) uint64 {
	if alignment <= 1 {
		return value
	}

	return (value + alignment - 1) / alignment * alignment
}
