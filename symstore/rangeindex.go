package symstore

import "sort"

// addrRange is one half-open [start, end) sub-range of the address-range
// index, carrying the ids of every symbol whose range covers it.
type addrRange struct {
	start uint64
	end   uint64
	ids   []uint32
}

func (r *addrRange) hasID(id uint32) bool {
	for _, x := range r.ids {
		if x == id {
			return true
		}
	}

	return false
}

func (r *addrRange) addID(id uint32) {
	if !r.hasID(id) {
		r.ids = append(r.ids, id)
	}
}

func (r *addrRange) removeID(id uint32) {
	for i, x := range r.ids {
		if x == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			return
		}
	}
}

func (r *addrRange) idsCopy() []uint32 {
	out := make([]uint32, len(r.ids))
	copy(out, r.ids)

	return out
}

// addressRangeIndex is a sorted vector of half-open ranges maintained so
// that any two stored ranges are either disjoint or identical (spec 4.6).
// Ranges may overlap at the symbol level (a function and a field inside
// it) — overlap is represented by a sub-range carrying both ids.
type addressRangeIndex struct {
	ranges []*addrRange
}

// Insert adds id as covering [s, e). Existing ranges that straddle the
// boundary are split so the union of sub-ranges spanning [s, e) each gain
// id; any portion of a touched range outside [s, e) keeps its prior ids.
func (idx *addressRangeIndex) Insert(s, e uint64, id uint32) {
	if s >= e {
		return
	}

	idx.splitAt(s)
	idx.splitAt(e)

	i := idx.lowerBound(s)
	for i < len(idx.ranges) && idx.ranges[i].start < e {
		idx.ranges[i].addID(id)
		i++
	}

	if i == len(idx.ranges) || idx.ranges[len(idx.ranges)-1].end < e {
		// No existing range reached e (e.g. empty index, or a gap past
		// the last range); fill the remainder with a fresh range.
	}

	idx.fillGap(s, e, id)
	idx.normalize()
}

// Remove removes id's coverage of [s, e), leaving emptied sub-ranges in
// place as explicit holes (spec 4.6: "ranges that become empty ... are
// retained as empty; callers may leave them or coalesce later" — we leave
// them, and Query simply finds nothing registered there).
func (idx *addressRangeIndex) Remove(s, e uint64, id uint32) {
	if s >= e {
		return
	}

	idx.splitAt(s)
	idx.splitAt(e)

	for _, r := range idx.ranges {
		if r.start >= s && r.end <= e {
			r.removeID(id)
		}
	}
}

// Query returns the ids of every range covering offset, or nil if none.
func (idx *addressRangeIndex) Query(offset uint64) []uint32 {
	i := sort.Search(len(idx.ranges), func(i int) bool {
		return idx.ranges[i].end >= offset+1
	})

	if i >= len(idx.ranges) || idx.ranges[i].start > offset {
		return nil
	}

	return idx.ranges[i].idsCopy()
}

// QueryNearest returns the ids of the range covering offset (if any) and
// that range's start, for non-exact lookups (spec 4.6).
func (idx *addressRangeIndex) QueryNearest(offset uint64) (ids []uint32, rangeStart uint64, ok bool) {
	i := sort.Search(len(idx.ranges), func(i int) bool {
		return idx.ranges[i].end >= offset+1
	})

	if i >= len(idx.ranges) || idx.ranges[i].start > offset {
		return nil, 0, false
	}

	return idx.ranges[i].idsCopy(), idx.ranges[i].start, true
}

// fillGap ensures [s, e) is fully covered by ranges (creating new ones in
// any gap) and that every sub-range within [s, e) carries id.
func (idx *addressRangeIndex) fillGap(s, e uint64, id uint32) {
	cursor := s

	for cursor < e {
		i := idx.lowerBound(cursor)

		if i < len(idx.ranges) && idx.ranges[i].start == cursor {
			idx.ranges[i].addID(id)
			cursor = idx.ranges[i].end

			continue
		}

		next := e
		if i < len(idx.ranges) {
			next = min64(e, idx.ranges[i].start)
		}

		nr := &addrRange{start: cursor, end: next, ids: []uint32{id}}
		idx.ranges = append(idx.ranges, nr)
		idx.normalize()
		cursor = next
	}

	idx.normalize()
}

// splitAt splits any range straddling point into two ranges at point,
// both inheriting the original's ids, so every boundary we care about is
// an exact range edge.
func (idx *addressRangeIndex) splitAt(point uint64) {
	for i, r := range idx.ranges {
		if r.start < point && point < r.end {
			left := &addrRange{start: r.start, end: point, ids: r.idsCopy()}
			right := &addrRange{start: point, end: r.end, ids: r.idsCopy()}

			idx.ranges[i] = left
			idx.ranges = append(idx.ranges, nil)
			copy(idx.ranges[i+2:], idx.ranges[i+1:])
			idx.ranges[i+1] = right

			idx.normalize()

			return
		}
	}
}

func (idx *addressRangeIndex) lowerBound(start uint64) int {
	return sort.Search(len(idx.ranges), func(i int) bool {
		return idx.ranges[i].start >= start
	})
}

func (idx *addressRangeIndex) normalize() {
	sort.Slice(idx.ranges, func(i, j int) bool {
		return idx.ranges[i].start < idx.ranges[j].start
	})
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}

	return b
}
