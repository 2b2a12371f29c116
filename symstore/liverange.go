package symstore

import "github.com/orizon-lang/symbuilder/symstore/symerr"

// LiveRange is one function-relative interval, with a location
// descriptor, for a parameter or local variable (spec 4.3).
type LiveRange struct {
	Offset   uint64 // function-relative start offset
	Size     uint64 // byte extent within the function
	Location LocationDescriptor
	Handle   uint32 // per-variable unique handle
}

func (r LiveRange) end() uint64 { return r.Offset + r.Size }

func (r LiveRange) overlaps(o LiveRange) bool {
	return r.Offset < o.end() && o.Offset < r.end()
}

// liveRangeSet owns the live ranges of a single parameter or local,
// enforcing the non-overlap invariant from spec 4.3.
type liveRangeSet struct {
	ranges    []LiveRange
	nextHandle uint32
}

// validateInsert reports an error if adding r would overlap an existing
// range. ignoreHandle, if non-zero, excludes that range from the check
// (used by resize, spec 4.3's optional ignore_range handle).
func (s *liveRangeSet) validateInsert(r LiveRange, ignoreHandle uint32) error {
	for _, existing := range s.ranges {
		if ignoreHandle != 0 && existing.Handle == ignoreHandle {
			continue
		}

		if existing.overlaps(r) {
			return symerr.RangeOverlap(r.Handle)
		}
	}

	return nil
}

// Add appends a new live range, assigning it a fresh per-variable handle.
func (s *liveRangeSet) Add(offset, size uint64, loc LocationDescriptor) (LiveRange, error) {
	s.nextHandle++
	r := LiveRange{Offset: offset, Size: size, Location: loc, Handle: s.nextHandle}

	if err := s.validateInsert(r, 0); err != nil {
		s.nextHandle--
		return LiveRange{}, err
	}

	s.ranges = append(s.ranges, r)

	return r, nil
}

// Resize changes the offset/size of the range identified by handle. A
// resize to the identical extent is a no-op success (spec 8).
func (s *liveRangeSet) Resize(handle uint32, offset, size uint64) error {
	for i, r := range s.ranges {
		if r.Handle != handle {
			continue
		}

		if r.Offset == offset && r.Size == size {
			return nil
		}

		candidate := LiveRange{Offset: offset, Size: size, Location: r.Location, Handle: handle}
		if err := s.validateInsert(candidate, handle); err != nil {
			return err
		}

		s.ranges[i].Offset = offset
		s.ranges[i].Size = size

		return nil
	}

	return symerr.NotFoundf("UNKNOWN_LIVE_RANGE", map[string]interface{}{"handle": handle}, "no live range with handle %d", handle)
}

// Remove deletes the range identified by handle, if present.
func (s *liveRangeSet) Remove(handle uint32) {
	for i, r := range s.ranges {
		if r.Handle == handle {
			s.ranges = append(s.ranges[:i], s.ranges[i+1:]...)
			return
		}
	}
}

// All returns a copy of the current live ranges, in insertion order.
func (s *liveRangeSet) All() []LiveRange {
	out := make([]LiveRange, len(s.ranges))
	copy(out, s.ranges)

	return out
}

// AtOffset returns the live range (if any) covering the given
// function-relative offset.
func (s *liveRangeSet) AtOffset(offset uint64) (LiveRange, bool) {
	for _, r := range s.ranges {
		if r.Offset <= offset && offset < r.end() {
			return r, true
		}
	}

	return LiveRange{}, false
}

// scopeBoundBit marks a handle as indexing the scope-binding table rather
// than the master symbol array (spec 3).
const scopeBoundBit uint32 = 1 << 31

// IsScopeBoundHandle reports whether h is a scope-bound handle rather than
// a plain symbol id.
func IsScopeBoundHandle(h uint32) bool { return h&scopeBoundBit != 0 }

type scopeBinding struct {
	variableID uint32
	pc         uint64
}

// scopeBindingTable records (variable id, module-relative PC) pairs so
// the query surface can return location-resolved views of locals and
// parameters without mutating the underlying variable symbol (spec 3/9).
type scopeBindingTable struct {
	bindings []scopeBinding
}

func (t *scopeBindingTable) bind(variableID uint32, pc uint64) uint32 {
	idx := uint32(len(t.bindings))
	t.bindings = append(t.bindings, scopeBinding{variableID: variableID, pc: pc})

	return idx | scopeBoundBit
}

func (t *scopeBindingTable) resolve(handle uint32) (scopeBinding, bool) {
	if !IsScopeBoundHandle(handle) {
		return scopeBinding{}, false
	}

	idx := handle &^ scopeBoundBit
	if int(idx) >= len(t.bindings) {
		return scopeBinding{}, false
	}

	return t.bindings[idx], true
}
