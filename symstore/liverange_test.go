package symstore

import "testing"

// TestLiveRangeSetAddRejectsOverlap verifies adding a range overlapping an
// existing one for the same variable is rejected (spec 4.3).
func TestLiveRangeSetAddRejectsOverlap(t *testing.T) {
	var s liveRangeSet

	if _, err := s.Add(0, 0x10, LocationDescriptor{Kind: LocRegister, Register: "rax"}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Add(0x8, 0x10, LocationDescriptor{Kind: LocRegister, Register: "rbx"}); err == nil {
		t.Error("expected overlap rejection")
	}

	if _, err := s.Add(0x10, 0x10, LocationDescriptor{Kind: LocRegister, Register: "rbx"}); err != nil {
		t.Errorf("adjacent (non-overlapping, half-open) range rejected: %v", err)
	}
}

// TestLiveRangeSetResizeNoOp verifies resizing a range to its current
// extent succeeds without needing to pass it as its own ignore_range
// (spec 8).
func TestLiveRangeSetResizeNoOp(t *testing.T) {
	var s liveRangeSet

	r, err := s.Add(0, 0x10, LocationDescriptor{Kind: LocRegister, Register: "rax"})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Resize(r.Handle, 0, 0x10); err != nil {
		t.Errorf("no-op resize failed: %v", err)
	}
}

// TestLiveRangeSetResizeRejectsOverlapWithOther verifies resizing one
// range into another's extent is rejected, while resizing into its own
// prior extent (via ignoreHandle) is not self-rejected.
func TestLiveRangeSetResizeRejectsOverlapWithOther(t *testing.T) {
	var s liveRangeSet

	a, err := s.Add(0, 0x10, LocationDescriptor{Kind: LocRegister, Register: "rax"})
	if err != nil {
		t.Fatal(err)
	}

	b, err := s.Add(0x20, 0x10, LocationDescriptor{Kind: LocRegister, Register: "rbx"})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Resize(b.Handle, 0x8, 0x10); err == nil {
		t.Error("expected rejection resizing b to overlap a")
	}

	if err := s.Resize(a.Handle, 0, 0x18); err != nil {
		t.Errorf("resize growing a's own extent rejected: %v", err)
	}
}

// TestLiveRangeSetResizeUnknownHandle verifies resizing an unknown handle
// reports a not-found error.
func TestLiveRangeSetResizeUnknownHandle(t *testing.T) {
	var s liveRangeSet

	if err := s.Resize(999, 0, 0x10); err == nil {
		t.Error("expected not-found error for unknown handle")
	}
}

// TestLiveRangeSetRemoveAndAtOffset verifies Remove drops a range and
// AtOffset no longer finds it, while a sibling range is unaffected.
func TestLiveRangeSetRemoveAndAtOffset(t *testing.T) {
	var s liveRangeSet

	a, _ := s.Add(0, 0x10, LocationDescriptor{Kind: LocRegister, Register: "rax"})
	_, _ = s.Add(0x20, 0x10, LocationDescriptor{Kind: LocRegister, Register: "rbx"})

	if _, ok := s.AtOffset(0x4); !ok {
		t.Fatal("expected a range covering offset 0x4")
	}

	s.Remove(a.Handle)

	if _, ok := s.AtOffset(0x4); ok {
		t.Error("removed range still found by AtOffset")
	}

	if _, ok := s.AtOffset(0x24); !ok {
		t.Error("sibling range disturbed by Remove")
	}
}

// TestScopeBindingTableRoundTrip verifies bind/resolve round-trips a
// (variable id, pc) pair through a scope-bound handle, and that a plain
// symbol id is never mistaken for one (spec 3).
func TestScopeBindingTableRoundTrip(t *testing.T) {
	var tbl scopeBindingTable

	h := tbl.bind(42, 0x1000)

	if !IsScopeBoundHandle(h) {
		t.Fatal("bound handle not recognized as scope-bound")
	}

	binding, ok := tbl.resolve(h)
	if !ok {
		t.Fatal("resolve failed for a handle just bound")
	}

	if binding.variableID != 42 || binding.pc != 0x1000 {
		t.Errorf("resolve = %+v, want variableID=42 pc=0x1000", binding)
	}

	if IsScopeBoundHandle(7) {
		t.Error("plain symbol id 7 misidentified as scope-bound")
	}

	if _, ok := tbl.resolve(scopeBoundBit | 999); ok {
		t.Error("resolve succeeded for an out-of-range scope-bound index")
	}
}
