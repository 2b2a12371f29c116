package importcore

import (
	"testing"

	"github.com/orizon-lang/symbuilder/symstore"
)

// fakeSource is a minimal in-memory ExternalSource keyed by external id,
// standing in for importfile/importremote in tests that only care about
// OnDemandImporter's own classify/reuse/recurse/memoize logic.
type fakeSource struct {
	byKey      map[string]ExternalRecord
	byOffset   map[uint64][]ExternalRecord
	byName     map[string][]ExternalRecord
	resolveErr error
	connected  bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		byKey:    make(map[string]ExternalRecord),
		byOffset: make(map[uint64][]ExternalRecord),
		byName:   make(map[string][]ExternalRecord),
	}
}

func (f *fakeSource) Connect() error    { f.connected = true; return nil }
func (f *fakeSource) Disconnect() error { f.connected = false; return nil }

func (f *fakeSource) LookupByOffset(kind symstore.Kind, offset uint64) ([]ExternalRecord, error) {
	return f.byOffset[offset], nil
}

func (f *fakeSource) LookupByName(kind symstore.Kind, name string) ([]ExternalRecord, error) {
	if name == "" {
		return nil, ErrFullImportRefused
	}

	return f.byName[name], nil
}

func (f *fakeSource) Resolve(key string) (ExternalRecord, bool, error) {
	rec, ok := f.byKey[key]
	return rec, ok, nil
}

// TestImportCoreIdempotentReimport verifies querying the same name twice
// does not re-create a second store symbol (spec 4.8's memoization).
func TestImportCoreIdempotentReimport(t *testing.T) {
	src := newFakeSource()

	intRec := ExternalRecord{Kind: RecBasic, Key: "int", Name: "int", QualifiedName: "int", BasicKind: symstore.IntrinsicInt, BasicSize: 4}
	src.byKey["int"] = intRec
	src.byName["Widget"] = []ExternalRecord{{
		Kind: RecUdt, Key: "Widget", Name: "Widget", QualifiedName: "Widget",
		Fields: []ExternalField{{Name: "v", TypeKey: "int"}},
	}}

	s := symstore.NewStore(1, 1, 8, nil, nil)

	imp := New(src)
	if err := imp.Connect(); err != nil {
		t.Fatal(err)
	}

	if err := imp.ImportForName(s, symstore.KindType, "Widget"); err != nil {
		t.Fatal(err)
	}

	first, err := s.FindByName(symstore.KindType, "Widget")
	if err != nil {
		t.Fatal(err)
	}

	if err := imp.ImportForName(s, symstore.KindType, "Widget"); err != nil {
		t.Fatal(err)
	}

	second, err := s.FindByName(symstore.KindType, "Widget")
	if err != nil {
		t.Fatal(err)
	}

	if first.ID() != second.ID() {
		t.Errorf("re-import produced a distinct symbol: %d vs %d", first.ID(), second.ID())
	}
}

// TestImportCoreCyclicUdtViaMemo verifies a self-referential UDT (a struct
// with a pointer field to itself) imports without infinite recursion,
// because importUdt memoizes the shell id before recursing into fields.
func TestImportCoreCyclicUdtViaMemo(t *testing.T) {
	src := newFakeSource()

	src.byKey["Node.ptr"] = ExternalRecord{Kind: RecPointer, Key: "Node.ptr", PointeeKey: "Node", PointerKind: symstore.PointerStandard}
	src.byKey["Node"] = ExternalRecord{
		Kind: RecUdt, Key: "Node", Name: "Node", QualifiedName: "Node",
		Fields: []ExternalField{{Name: "next", TypeKey: "Node.ptr"}},
	}

	s := symstore.NewStore(1, 1, 8, nil, nil)

	imp := New(src)
	if err := imp.Connect(); err != nil {
		t.Fatal(err)
	}

	id, err := imp.resolveRef(s, "Node")
	if err != nil {
		t.Fatal(err)
	}

	sym, err := s.FindByID(id)
	if err != nil {
		t.Fatal(err)
	}

	if sym.Name() != "Node" {
		t.Errorf("imported symbol name = %q, want %q", sym.Name(), "Node")
	}
}

// TestImportCoreFullImportRefused verifies ImportForName("") treats
// ErrFullImportRefused as a no-op success rather than propagating it.
func TestImportCoreFullImportRefused(t *testing.T) {
	src := newFakeSource()

	s := symstore.NewStore(1, 1, 8, nil, nil)

	imp := New(src)
	if err := imp.Connect(); err != nil {
		t.Fatal(err)
	}

	if err := imp.ImportForName(s, symstore.KindType, ""); err != nil {
		t.Errorf("full import refusal should be absorbed, got %v", err)
	}
}

// TestImportCoreMemoizesOffsetQueries verifies a repeated offset query
// does not hit the source a second time.
func TestImportCoreMemoizesOffsetQueries(t *testing.T) {
	calls := 0
	src := newFakeSource()
	src.byOffset[0x1000] = nil

	s := symstore.NewStore(1, 1, 8, nil, nil)
	imp := New(countingOffsetSource{fakeSource: src, calls: &calls})

	if err := imp.ImportForOffset(s, symstore.KindFunction, 0x1000); err != nil {
		t.Fatal(err)
	}

	if err := imp.ImportForOffset(s, symstore.KindFunction, 0x1000); err != nil {
		t.Fatal(err)
	}

	if calls != 1 {
		t.Errorf("LookupByOffset called %d times, want 1 (memoized)", calls)
	}
}

type countingOffsetSource struct {
	*fakeSource
	calls *int
}

func (c countingOffsetSource) LookupByOffset(kind symstore.Kind, offset uint64) ([]ExternalRecord, error) {
	*c.calls++
	return c.fakeSource.LookupByOffset(kind, offset)
}
