package symstore

import (
	"log/slog"
	"sync"

	"github.com/orizon-lang/symbuilder/symstore/symerr"
)

// ProcessKey and ModuleKey identify a process and a module within it, as
// supplied by the host (spec 4.9).
type ProcessKey uint64

// ModuleKey identifies one module within a process.
type ModuleKey uint64

// processState tracks the stores created for modules within one process.
type processState struct {
	modules map[ModuleKey]*Store
}

// StoreManager holds one Store per (process, module), tracking their
// lifetime and discarding a store when its module disappears (spec 4.9).
// It is not a global singleton: each embedding service container
// constructs and injects its own manager (spec 9).
type StoreManager struct {
	mu        sync.Mutex
	processes map[ProcessKey]*processState
	bus       EventBus
	log       *slog.Logger
}

// NewStoreManager creates a manager. bus and logger are shared by every
// store it creates; either may be nil to use the no-op/default.
func NewStoreManager(bus EventBus, logger *slog.Logger) *StoreManager {
	return &StoreManager{
		processes: make(map[ProcessKey]*processState),
		bus:       bus,
		log:       logger,
	}
}

// TrackProcess idempotently begins tracking a process.
func (m *StoreManager) TrackProcess(pk ProcessKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.processes[pk]; !ok {
		m.processes[pk] = &processState{modules: make(map[ModuleKey]*Store)}
	}
}

// CreateSymbolsForModule creates a new store for (pk, mk). Fails if one
// already exists. seedBasicTypes, when true, calls AddBasicCTypes on the
// new store.
func (m *StoreManager) CreateSymbolsForModule(pk ProcessKey, mk ModuleKey, mod Module, pointerSize uint64, seedBasicTypes bool) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.processes[pk]
	if !ok {
		ps = &processState{modules: make(map[ModuleKey]*Store)}
		m.processes[pk] = ps
	}

	if _, exists := ps.modules[mk]; exists {
		return nil, symerr.InvalidStatef("STORE_EXISTS", map[string]interface{}{"process": pk, "module": mk}, "a symbol store already exists for module %d in process %d", mk, pk)
	}

	st := NewStore(mod.Key(), uint64(mk), pointerSize, m.bus, m.log)
	if seedBasicTypes {
		st.AddBasicCTypes()
	}

	ps.modules[mk] = st

	if m.log != nil {
		m.log.Info("symbol store created", "process", pk, "module", mk, "name", mod.Name())
	}

	return st, nil
}

// TryGetSymbolsForModule returns the existing store for (pk, mk), if any.
func (m *StoreManager) TryGetSymbolsForModule(pk ProcessKey, mk ModuleKey) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.processes[pk]
	if !ok {
		return nil, false
	}

	st, ok := ps.modules[mk]

	return st, ok
}

// OnModuleUnloaded discards the store for (pk, mk), if tracked. Intended
// to be wired to the host's module-disappearance event (spec 4.9).
func (m *StoreManager) OnModuleUnloaded(pk ProcessKey, mk ModuleKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.processes[pk]
	if !ok {
		return
	}

	delete(ps.modules, mk)

	if m.log != nil {
		m.log.Info("symbol store discarded", "process", pk, "module", mk)
	}
}

// OnProcessExited stops tracking a process and discards all its stores.
func (m *StoreManager) OnProcessExited(pk ProcessKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.processes, pk)
}
