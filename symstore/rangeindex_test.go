package symstore

import "testing"

// TestAddressRangeIndexInsertAndQuery verifies a single inserted range is
// queryable at its start, an interior point, and not at its end (half-open).
func TestAddressRangeIndexInsertAndQuery(t *testing.T) {
	idx := &addressRangeIndex{}
	idx.Insert(0x100, 0x110, 7)

	for _, off := range []uint64{0x100, 0x108, 0x10f} {
		ids := idx.Query(off)
		if len(ids) != 1 || ids[0] != 7 {
			t.Errorf("Query(%#x) = %v, want [7]", off, ids)
		}
	}

	if ids := idx.Query(0x110); ids != nil {
		t.Errorf("Query(end) = %v, want nil (half-open)", ids)
	}

	if ids := idx.Query(0xff); ids != nil {
		t.Errorf("Query(before start) = %v, want nil", ids)
	}
}

// TestAddressRangeIndexOverlapSplit verifies two overlapping inserts split
// into three sub-ranges: the exclusive prefix, the shared overlap carrying
// both ids, and the exclusive suffix.
func TestAddressRangeIndexOverlapSplit(t *testing.T) {
	idx := &addressRangeIndex{}
	idx.Insert(0x100, 0x120, 1) // function
	idx.Insert(0x110, 0x118, 2) // a lexical block inside it

	cases := []struct {
		offset  uint64
		wantIDs map[uint32]bool
	}{
		{0x108, map[uint32]bool{1: true}},
		{0x114, map[uint32]bool{1: true, 2: true}},
		{0x11c, map[uint32]bool{1: true}},
	}

	for _, c := range cases {
		ids := idx.Query(c.offset)

		got := map[uint32]bool{}
		for _, id := range ids {
			got[id] = true
		}

		if len(got) != len(c.wantIDs) {
			t.Fatalf("Query(%#x) = %v, want ids %v", c.offset, ids, c.wantIDs)
		}

		for id := range c.wantIDs {
			if !got[id] {
				t.Errorf("Query(%#x) = %v, missing id %d", c.offset, ids, id)
			}
		}
	}
}

// TestAddressRangeIndexRemoveLeavesHole verifies removing a range's
// coverage makes subsequent queries at those offsets find nothing, without
// disturbing a neighboring range's coverage.
func TestAddressRangeIndexRemoveLeavesHole(t *testing.T) {
	idx := &addressRangeIndex{}
	idx.Insert(0x100, 0x110, 1)
	idx.Insert(0x110, 0x120, 2)

	idx.Remove(0x100, 0x110, 1)

	if ids := idx.Query(0x108); len(ids) != 0 {
		t.Errorf("Query after Remove = %v, want empty", ids)
	}

	if ids := idx.Query(0x118); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("neighbor range disturbed by Remove: Query(0x118) = %v, want [2]", ids)
	}
}

// TestAddressRangeIndexQueryNearestTieBreak verifies QueryNearest returns
// the range covering offset along with its start, and reports no range
// for an offset past every inserted range.
func TestAddressRangeIndexQueryNearestTieBreak(t *testing.T) {
	idx := &addressRangeIndex{}
	idx.Insert(0x1000, 0x1040, 1)

	ids, start, ok := idx.QueryNearest(0x1010)
	if !ok {
		t.Fatal("expected a covering range")
	}

	if start != 0x1000 {
		t.Errorf("range start = %#x, want 0x1000", start)
	}

	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("ids = %v, want [1]", ids)
	}

	if _, _, ok := idx.QueryNearest(0x2000); ok {
		t.Error("expected no covering range for an offset past any inserted range")
	}
}

// TestAddressRangeIndexGapBetweenInserts verifies a gap between two
// disjoint inserted ranges queries as uncovered.
func TestAddressRangeIndexGapBetweenInserts(t *testing.T) {
	idx := &addressRangeIndex{}
	idx.Insert(0x100, 0x110, 1)
	idx.Insert(0x120, 0x130, 2)

	if ids := idx.Query(0x115); ids != nil {
		t.Errorf("Query in gap = %v, want nil", ids)
	}

	if ids := idx.Query(0x108); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("Query(0x108) = %v, want [1]", ids)
	}

	if ids := idx.Query(0x128); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("Query(0x128) = %v, want [2]", ids)
	}
}

// TestAddressRangeIndexInsertDegenerateIgnored verifies an empty or
// inverted [s, e) range is silently ignored rather than corrupting the
// index.
func TestAddressRangeIndexInsertDegenerateIgnored(t *testing.T) {
	idx := &addressRangeIndex{}
	idx.Insert(0x200, 0x200, 1)
	idx.Insert(0x210, 0x205, 2)

	if len(idx.ranges) != 0 {
		t.Errorf("degenerate inserts produced %d ranges, want 0", len(idx.ranges))
	}
}
