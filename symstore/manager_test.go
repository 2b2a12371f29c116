package symstore

import "testing"

type fakeModule struct {
	key         uint64
	baseAddress uint64
	size        uint64
	name        string
	path        string
	processKey  uint64
}

func (m fakeModule) BaseAddress() uint64           { return m.baseAddress }
func (m fakeModule) Size() uint64                  { return m.size }
func (m fakeModule) Name() string                  { return m.name }
func (m fakeModule) Path() string                  { return m.path }
func (m fakeModule) ContainingProcessKey() uint64  { return m.processKey }
func (m fakeModule) Key() uint64                   { return m.key }

// TestStoreManagerCreateAndGet verifies a created store is retrievable by
// its (process, module) key and that creation is exclusive (spec 4.9).
func TestStoreManagerCreateAndGet(t *testing.T) {
	mgr := NewStoreManager(nil, nil)

	pk := ProcessKey(1)
	mk := ModuleKey(100)
	mod := fakeModule{key: 100, processKey: 1, name: "app.exe"}

	st, err := mgr.CreateSymbolsForModule(pk, mk, mod, 8, true)
	if err != nil {
		t.Fatal(err)
	}

	got, ok := mgr.TryGetSymbolsForModule(pk, mk)
	if !ok || got != st {
		t.Fatalf("TryGetSymbolsForModule = %v, %v, want the just-created store", got, ok)
	}

	if _, ok := st.BasicTypeID(IntrinsicInt); !ok {
		t.Error("seedBasicTypes=true should have seeded basic C types")
	}

	if _, err := mgr.CreateSymbolsForModule(pk, mk, mod, 8, false); err == nil {
		t.Error("expected error creating a second store for an already-tracked module")
	}
}

// TestStoreManagerModuleUnloadDiscardsStore verifies OnModuleUnloaded
// drops the store so a subsequent lookup misses.
func TestStoreManagerModuleUnloadDiscardsStore(t *testing.T) {
	mgr := NewStoreManager(nil, nil)

	pk := ProcessKey(1)
	mk := ModuleKey(100)
	mod := fakeModule{key: 100, processKey: 1, name: "app.exe"}

	if _, err := mgr.CreateSymbolsForModule(pk, mk, mod, 8, false); err != nil {
		t.Fatal(err)
	}

	mgr.OnModuleUnloaded(pk, mk)

	if _, ok := mgr.TryGetSymbolsForModule(pk, mk); ok {
		t.Error("store still found after OnModuleUnloaded")
	}
}

// TestStoreManagerProcessExitDiscardsAllModules verifies OnProcessExited
// drops every module tracked for that process.
func TestStoreManagerProcessExitDiscardsAllModules(t *testing.T) {
	mgr := NewStoreManager(nil, nil)

	pk := ProcessKey(1)
	modA := fakeModule{key: 1, processKey: 1, name: "a.dll"}
	modB := fakeModule{key: 2, processKey: 1, name: "b.dll"}

	if _, err := mgr.CreateSymbolsForModule(pk, ModuleKey(1), modA, 8, false); err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.CreateSymbolsForModule(pk, ModuleKey(2), modB, 8, false); err != nil {
		t.Fatal(err)
	}

	mgr.OnProcessExited(pk)

	if _, ok := mgr.TryGetSymbolsForModule(pk, ModuleKey(1)); ok {
		t.Error("module 1 store still found after OnProcessExited")
	}

	if _, ok := mgr.TryGetSymbolsForModule(pk, ModuleKey(2)); ok {
		t.Error("module 2 store still found after OnProcessExited")
	}
}

// TestStoreManagerTrackProcessIdempotent verifies TrackProcess can be
// called repeatedly for the same process without clearing its modules.
func TestStoreManagerTrackProcessIdempotent(t *testing.T) {
	mgr := NewStoreManager(nil, nil)

	pk := ProcessKey(1)
	mod := fakeModule{key: 1, processKey: 1, name: "a.dll"}

	if _, err := mgr.CreateSymbolsForModule(pk, ModuleKey(1), mod, 8, false); err != nil {
		t.Fatal(err)
	}

	mgr.TrackProcess(pk)

	if _, ok := mgr.TryGetSymbolsForModule(pk, ModuleKey(1)); !ok {
		t.Error("TrackProcess on an already-tracked process discarded its modules")
	}
}
