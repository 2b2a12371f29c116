package symstore

import (
	"log/slog"

	"github.com/orizon-lang/symbuilder/symstore/symerr"
)

// EventBus is the host's event-bus producer interface the store publishes
// symbol-cache-invalidate events to (spec 6). Out of scope for this
// package; consumed as an interface.
type EventBus interface {
	PublishSymbolCacheInvalidate(moduleHandle, storeHandle uint64)
}

// noopEventBus discards events; used when a Store is built without a bus
// wired in (e.g. unit tests exercising graph mechanics only).
type noopEventBus struct{}

func (noopEventBus) PublishSymbolCacheInvalidate(uint64, uint64) {}

// Store owns all symbols for one module (spec 4.1): a dense growable
// vector of optional symbol entries, a qualified-name index for globals,
// the address-range index, the public-address index, the scope-binding
// table, and an optional importer.
//
// Concurrency model: single-threaded cooperative (spec 5). The store
// assumes a single mutator/reader at a time and performs no internal
// locking; re-entrancy from the importer during a query is supported
// because import calls run synchronously to completion before the
// triggering query continues.
type Store struct {
	ModuleHandle uint64
	StoreHandle  uint64

	symbols     []Symbol // index 0 is the permanent "no symbol" hole
	nameIndex   map[string]uint32
	addrIndex   addressRangeIndex
	publicIndex *publicAddressIndex
	scopeTable  scopeBindingTable

	PointerSize uint64

	importer Importer
	bus      EventBus
	log      *slog.Logger

	suspendInvalidate bool
	invalidateCount   int

	basicTypes map[IntrinsicKind]uint32
}

// NewStore creates an empty store for one module. pointerSize is the
// module's target pointer width in bytes (4 or 8).
func NewStore(moduleHandle, storeHandle uint64, pointerSize uint64, bus EventBus, logger *slog.Logger) *Store {
	if bus == nil {
		bus = noopEventBus{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		ModuleHandle: moduleHandle,
		StoreHandle:  storeHandle,
		symbols:      make([]Symbol, 1), // reserve id 0
		nameIndex:    make(map[string]uint32),
		publicIndex:  newPublicAddressIndex(),
		PointerSize:  pointerSize,
		bus:          bus,
		log:          logger,
		basicTypes:   make(map[IntrinsicKind]uint32),
	}

	return s
}

// newHeader allocates an id and builds the common header for a new
// symbol; the caller embeds it in a concrete struct and passes the
// result to register.
func (s *Store) newHeader(kind Kind, parentID uint32, name, qualifiedName string) baseHeader {
	return baseHeader{id: s.allocateID(), kind: kind, parentID: parentID, name: name, qualifiedName: qualifiedName}
}

// allocateID returns the next free id, growing the symbol vector. Ids are
// dense and stable; a deleted id's slot stays nil forever (spec 3).
func (s *Store) allocateID() uint32 {
	id := uint32(len(s.symbols))
	s.symbols = append(s.symbols, nil)

	return id
}

// register slots sym into its allocated id, wires it into its parent's
// child list, and (for global kinds) the qualified-name index.
func (s *Store) register(sym Symbol) {
	h := sym.header()
	s.symbols[h.id] = sym

	if h.parentID != NoSymbol {
		if parent, ok := s.find(h.parentID); ok {
			parent.addChild(h.id)
		}
	}

	if h.kind.isGlobal() && h.qualifiedName != "" {
		s.nameIndex[h.qualifiedName] = h.id
	}
}

// find returns the symbol at id, or false if id is 0, out of range, or a
// hole.
func (s *Store) find(id uint32) (Symbol, bool) {
	if id == NoSymbol || int(id) >= len(s.symbols) {
		return nil, false
	}

	sym := s.symbols[id]

	return sym, sym != nil
}

// findType is find narrowed to TypeSymbol. Like find_by_id (spec 4.1) it
// never triggers an import — only name/offset lookups do; it is used
// internally by layout code on already-resolved ids.
func (s *Store) findType(id uint32) (TypeSymbol, bool) {
	sym, ok := s.find(id)
	if !ok {
		return nil, false
	}

	t, ok := sym.(TypeSymbol)

	return t, ok
}

// FindByID returns the symbol with the given id.
func (s *Store) FindByID(id uint32) (Symbol, error) {
	sym, ok := s.find(id)
	if !ok {
		return nil, symerr.UnknownID(id)
	}

	return sym, nil
}

// FindByName looks up a global symbol by qualified name, first consulting
// the importer's ImportForName so an on-demand source gets a chance to
// materialize a matching symbol before the name index is checked again
// (spec 4.1).
func (s *Store) FindByName(kind Kind, name string) (Symbol, error) {
	if s.importer != nil {
		if err := s.importer.ImportForName(s, kind, name); err != nil {
			return nil, err
		}
	}

	id, ok := s.nameIndex[name]
	if !ok {
		return nil, symerr.NotFoundf("NAME_NOT_FOUND", map[string]interface{}{"name": name}, "no global symbol named %q", name)
	}

	sym, ok := s.find(id)
	if !ok || sym.Kind() != kind {
		return nil, symerr.NotFoundf("NAME_NOT_FOUND", map[string]interface{}{"name": name}, "no global symbol named %q", name)
	}

	return sym, nil
}

// OffsetMatch is one result of FindByOffset: the covering symbol and, for
// a non-exact lookup, the delta from the symbol's own start offset.
type OffsetMatch struct {
	Symbol Symbol
	Delta  uint64
}

// FindByOffset looks up symbols covering a module-relative offset, first
// consulting the importer's ImportForOffset. It returns the covering
// range's symbols of the given kind, each with its delta from the
// symbol's own start offset (a function's primary range, or the secondary
// range covering offset; a global's image offset); exact=true keeps only
// the symbols that start exactly at offset (spec 4.1, 4.6).
func (s *Store) FindByOffset(kind Kind, offset uint64, exact bool) ([]OffsetMatch, error) {
	if s.importer != nil {
		if err := s.importer.ImportForOffset(s, kind, offset); err != nil {
			return nil, err
		}
	}

	ids, rangeStart, ok := s.addrIndex.QueryNearest(offset)
	if !ok {
		return nil, symerr.NotFoundf("OFFSET_NOT_FOUND", map[string]interface{}{"offset": offset}, "no symbol covers offset %#x", offset)
	}

	var out []OffsetMatch

	for _, id := range ids {
		sym, ok := s.find(id)
		if !ok || sym.Kind() != kind {
			continue
		}

		start := rangeStart

		switch v := sym.(type) {
		case *FunctionSymbol:
			start = v.PrimaryOffset

			for _, r := range v.SecondaryRanges {
				if r.Offset <= offset && offset < r.Offset+r.Size {
					start = r.Offset
				}
			}
		case *DataSymbol:
			start = uint64(v.Location.Offset)
		}

		if exact && start != offset {
			continue
		}

		out = append(out, OffsetMatch{Symbol: sym, Delta: offset - start})
	}

	if len(out) == 0 {
		return nil, symerr.NotFoundf("OFFSET_NOT_FOUND", map[string]interface{}{"offset": offset}, "no matching symbol at offset %#x", offset)
	}

	return out, nil
}

// LookupExistingGlobal returns a global symbol already present under
// qualifiedName, without consulting the importer. Used by importers
// themselves to implement idempotent re-import (spec 4.8, 8) without
// recursing back into ImportForName.
func (s *Store) LookupExistingGlobal(kind Kind, qualifiedName string) (uint32, bool) {
	id, ok := s.nameIndex[qualifiedName]
	if !ok {
		return 0, false
	}

	sym, ok := s.find(id)
	if !ok || sym.Kind() != kind {
		return 0, false
	}

	return id, true
}

// PublicsAt returns the public symbols registered at an exact address.
func (s *Store) PublicsAt(addr uint64) []*PublicSymbol {
	var out []*PublicSymbol

	for _, id := range s.publicIndex.at(addr) {
		if sym, ok := s.find(id); ok {
			if p, ok := sym.(*PublicSymbol); ok {
				out = append(out, p)
			}
		}
	}

	return out
}

// delete removes id recursively: children first, then this symbol's own
// dependent edges on other symbols, then itself from the parent's child
// list and from store indexes. The id becomes a permanent hole (spec 3).
//
// notifyParent controls whether the (still-surviving) parent's own
// NotifyDependentChange re-runs afterward to re-derive layout/signature
// state (spec 4.7) — true only for the top-level id the caller asked to
// delete; recursive child cleanup passes false, since that child's parent
// is itself being torn down in the same call and any regenerated state
// would immediately be discarded (and, for a Function's own FunctionType
// child, recomputing against an already-deleted cached id would error).
func (s *Store) delete(id uint32, notifyParent bool) error {
	sym, ok := s.find(id)
	if !ok {
		return symerr.UnknownID(id)
	}

	for _, childID := range append([]uint32(nil), sym.Children()...) {
		if err := s.delete(childID, false); err != nil {
			return err
		}
	}

	s.unwireOwnReferences(sym)
	s.unindex(sym)

	parentID := sym.ParentID()

	parent, hasParent := s.find(parentID)
	if hasParent {
		parent.removeChild(id)
	}

	s.symbols[id] = nil

	if hasParent && notifyParent {
		return parent.NotifyDependentChange(s)
	}

	return nil
}

// Delete is the public entry point for recursive symbol deletion.
func (s *Store) Delete(id uint32) error {
	if err := s.delete(id, true); err != nil {
		return err
	}

	s.InvalidateExternalCaches()

	return nil
}

// unindex removes sym from the qualified-name index, the address-range
// index, and the public-address index, as applicable.
func (s *Store) unindex(sym Symbol) {
	h := sym.header()
	if h.kind.isGlobal() && h.qualifiedName != "" {
		delete(s.nameIndex, h.qualifiedName)
	}

	switch v := sym.(type) {
	case *DataSymbol:
		if v.rangeBound {
			s.addrIndex.Remove(uint64(v.Location.Offset), uint64(v.Location.Offset)+v.rangeSize, v.id)
		}
	case *FunctionSymbol:
		s.addrIndex.Remove(v.PrimaryOffset, v.PrimaryOffset+v.PrimarySize, v.id)
		for _, r := range v.SecondaryRanges {
			s.addrIndex.Remove(r.Offset, r.Offset+r.Size, v.id)
		}
	case *PublicSymbol:
		s.publicIndex.remove(v.Address, v.id)
	}
}

// unwireOwnReferences removes every dependent registration sym holds on
// other symbols, mirroring the reference edges created when sym was
// built (spec 3: "deletion ... unwires dependent edges it holds on other
// symbols").
func (s *Store) unwireOwnReferences(sym Symbol) {
	for _, targetID := range referencedTypeIDs(sym) {
		if target, ok := s.find(targetID); ok {
			target.dependentSet().remove(sym.ID())
		}
	}
}

// InvalidateExternalCaches publishes a symbol-cache-invalidate event,
// unless publication is currently suspended for a bulk import (spec 4.1).
func (s *Store) InvalidateExternalCaches() {
	if s.suspendInvalidate {
		s.invalidateCount++
		return
	}

	s.bus.PublishSymbolCacheInvalidate(s.ModuleHandle, s.StoreHandle)
}

// BeginBulkImport suspends per-mutation cache-invalidate publication so an
// importer can materialize many symbols and emit a single event at the
// end (spec 4.7/5).
func (s *Store) BeginBulkImport() {
	s.suspendInvalidate = true
	s.invalidateCount = 0
}

// EndBulkImport resumes publication and emits exactly one event if any
// mutation occurred while suspended.
func (s *Store) EndBulkImport() {
	s.suspendInvalidate = false

	if s.invalidateCount > 0 {
		s.bus.PublishSymbolCacheInvalidate(s.ModuleHandle, s.StoreHandle)
	}

	s.invalidateCount = 0
}

// SetImporter installs the store's on-demand importer.
func (s *Store) SetImporter(imp Importer) { s.importer = imp }

// Logger returns the store's structured logger.
func (s *Store) Logger() *slog.Logger { return s.log }

// addDependency registers fromID as a dependent of toID (fromID "names"
// toID and must be notified when toID changes), once per reference.
func (s *Store) addDependency(fromID, toID uint32) {
	if target, ok := s.find(toID); ok {
		target.dependentSet().add(fromID)
	}
}

// removeDependency removes exactly one reference of fromID as a
// dependent of toID.
func (s *Store) removeDependency(fromID, toID uint32) {
	if target, ok := s.find(toID); ok {
		target.dependentSet().remove(fromID)
	}
}

// notify recomputes and propagates from id outward, then emits exactly
// one cache-invalidate event for the outer mutation (spec 4.7). Public
// mutators call this once, after updating their own local state.
func (s *Store) notify(id uint32) error {
	sym, ok := s.find(id)
	if !ok {
		return symerr.UnknownID(id)
	}

	err := sym.NotifyDependentChange(s)
	s.InvalidateExternalCaches()

	return err
}
