// Package symstore implements the symbol builder: an in-memory, mutable
// symbolic-information store for a single native module. Symbols are
// constructed by API calls at runtime (rather than parsed once from a
// file) and queried by a host debugger as if they were conventional debug
// information.
//
// The store assumes a single mutator/reader at a time (see the
// single-threaded cooperative model in the package docs of Store) and
// performs no internal locking.
package symstore

import "fmt"

// Kind enumerates the top-level symbol categories.
type Kind uint8

const (
	KindType Kind = iota + 1
	KindField
	KindBaseClass
	KindFunction
	KindData
	KindDataParameter
	KindDataLocal
	KindPublic
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "Type"
	case KindField:
		return "Field"
	case KindBaseClass:
		return "BaseClass"
	case KindFunction:
		return "Function"
	case KindData:
		return "Data"
	case KindDataParameter:
		return "DataParameter"
	case KindDataLocal:
		return "DataLocal"
	case KindPublic:
		return "Public"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// isGlobal reports whether symbols of this kind are indexed by qualified
// name in the store (spec 3: Type, Data, Function, Public).
func (k Kind) isGlobal() bool {
	switch k {
	case KindType, KindData, KindFunction, KindPublic:
		return true
	default:
		return false
	}
}

// TypeSubkind enumerates the Type symbol variants.
type TypeSubkind uint8

const (
	TypeIntrinsic TypeSubkind = iota + 1
	TypeUdt
	TypePointer
	TypeArray
	TypeTypedef
	TypeEnum
	TypeFunctionType
)

func (s TypeSubkind) String() string {
	switch s {
	case TypeIntrinsic:
		return "Intrinsic"
	case TypeUdt:
		return "Udt"
	case TypePointer:
		return "Pointer"
	case TypeArray:
		return "Array"
	case TypeTypedef:
		return "Typedef"
	case TypeEnum:
		return "Enum"
	case TypeFunctionType:
		return "FunctionType"
	default:
		return fmt.Sprintf("TypeSubkind(%d)", uint8(s))
	}
}

// NoSymbol is the reserved id meaning "no symbol" / a root's parent.
const NoSymbol uint32 = 0

// Symbol is implemented by every entry the store can hold. Concrete kinds
// embed baseHeader for the shared fields and override NotifyDependentChange
// where they have derived state to recompute (Udt layout, array size,
// typedef forwarding, enum enumerant values, function signature
// regeneration) before the base behaviour (walking the dependents map)
// runs.
type Symbol interface {
	ID() uint32
	Kind() Kind
	ParentID() uint32
	Children() []uint32
	Name() string
	QualifiedName() string

	setID(uint32)
	setParentID(uint32)
	addChild(uint32)
	removeChild(uint32)
	dependentSet() *dependents
	header() *baseHeader

	// NotifyDependentChange recomputes any derived state this symbol
	// caches about something it depends on, then propagates the
	// notification to this symbol's own dependents. The base
	// implementation (embedded baseHeader.propagate) only does the
	// propagation; the override does the recompute-then-propagate.
	NotifyDependentChange(s *Store) error
}

// baseHeader carries the fields common to every symbol kind: id, kind,
// parent/child edges, names, and the dependents this symbol must notify
// when it changes.
type baseHeader struct {
	id            uint32
	kind          Kind
	parentID      uint32
	children      []uint32
	name          string
	qualifiedName string
	deps          dependents
}

func (h *baseHeader) ID() uint32              { return h.id }
func (h *baseHeader) Kind() Kind              { return h.kind }
func (h *baseHeader) ParentID() uint32        { return h.parentID }
func (h *baseHeader) Children() []uint32      { return h.children }
func (h *baseHeader) Name() string            { return h.name }
func (h *baseHeader) QualifiedName() string   { return h.qualifiedName }
func (h *baseHeader) setID(id uint32)         { h.id = id }
func (h *baseHeader) setParentID(id uint32)   { h.parentID = id }
func (h *baseHeader) dependentSet() *dependents { return &h.deps }
func (h *baseHeader) header() *baseHeader     { return h }

func (h *baseHeader) addChild(id uint32) {
	h.children = append(h.children, id)
}

func (h *baseHeader) removeChild(id uint32) {
	for i, c := range h.children {
		if c == id {
			h.children = append(h.children[:i], h.children[i+1:]...)
			return
		}
	}
}

// propagate walks this symbol's dependents in stable insertion order and
// invokes NotifyDependentChange on each, per spec 4.7/5 (depth-first,
// stable order). It does not recompute the symbol's own derived state;
// callers that have state to recompute do so before calling propagate.
func (h *baseHeader) propagate(s *Store) error {
	var firstErr error

	for _, depID := range h.deps.order {
		dep, ok := s.find(depID)
		if !ok {
			continue
		}

		if err := dep.NotifyDependentChange(s); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
