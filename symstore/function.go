package symstore

import "github.com/orizon-lang/symbuilder/symstore/symerr"

// SecondaryRange is one of a function's disjoint secondary module-relative
// code ranges (spec 4.4), in addition to its primary entry range.
type SecondaryRange struct {
	Offset uint64
	Size   uint64
}

// FunctionSymbol is a function: a primary (entry) range, optional
// secondary ranges, a return type, and ordered children (parameters
// first, then locals) — spec 4.4.
type FunctionSymbol struct {
	baseHeader

	PrimaryOffset   uint64
	PrimarySize     uint64
	SecondaryRanges []SecondaryRange
	ReturnTypeID    uint32

	funcTypeID uint32
}

// NotifyDependentChange regenerates the function's FunctionType child
// (spec 4.4/4.7), then propagates to this function's own dependents
// (e.g. a pointer-to-function, or a struct field of this function
// pointer's type).
func (f *FunctionSymbol) NotifyDependentChange(s *Store) error {
	if err := f.regenerateFunctionType(s); err != nil {
		return err
	}

	return f.propagate(s)
}

// Parameters returns the function's parameter children in declared order.
func (f *FunctionSymbol) Parameters(s *Store) []*ParameterSymbol {
	var out []*ParameterSymbol

	for _, id := range f.children {
		if sym, ok := s.find(id); ok {
			if p, ok := sym.(*ParameterSymbol); ok {
				out = append(out, p)
			}
		}
	}

	return out
}

// Locals returns the function's local-variable children in declared order.
func (f *FunctionSymbol) Locals(s *Store) []*LocalSymbol {
	var out []*LocalSymbol

	for _, id := range f.children {
		if sym, ok := s.find(id); ok {
			if l, ok := sym.(*LocalSymbol); ok {
				out = append(out, l)
			}
		}
	}

	return out
}

// FunctionTypeID returns the id of the function's regenerated signature
// type child.
func (f *FunctionSymbol) FunctionTypeID() uint32 { return f.funcTypeID }

// regenerateFunctionType rebuilds (or updates in place) the function's
// FunctionType child from its current return type and ordered parameter
// list (spec 4.2/4.4).
func (f *FunctionSymbol) regenerateFunctionType(s *Store) error {
	var paramTypeIDs []uint32

	for _, p := range f.Parameters(s) {
		paramTypeIDs = append(paramTypeIDs, p.TypeID)
	}

	if f.funcTypeID == NoSymbol {
		h := s.newHeader(KindType, f.id, "", "")
		ft := &FunctionTypeSymbol{baseHeader: h, ReturnTypeID: f.ReturnTypeID, ParamTypeIDs: paramTypeIDs}
		s.register(ft)
		f.funcTypeID = ft.id

		for _, pid := range paramTypeIDs {
			s.addDependency(ft.id, pid)
		}

		if f.ReturnTypeID != NoSymbol {
			s.addDependency(ft.id, f.ReturnTypeID)
		}

		return nil
	}

	sym, ok := s.find(f.funcTypeID)
	if !ok {
		return symerr.UnknownID(f.funcTypeID)
	}

	ft, ok := sym.(*FunctionTypeSymbol)
	if !ok {
		return symerr.WrongKind("regenerateFunctionType", sym.Kind().String())
	}

	for _, pid := range ft.ParamTypeIDs {
		s.removeDependency(ft.id, pid)
	}

	if ft.ReturnTypeID != NoSymbol {
		s.removeDependency(ft.id, ft.ReturnTypeID)
	}

	ft.ParamTypeIDs = paramTypeIDs
	ft.ReturnTypeID = f.ReturnTypeID

	for _, pid := range paramTypeIDs {
		s.addDependency(ft.id, pid)
	}

	if f.ReturnTypeID != NoSymbol {
		s.addDependency(ft.id, f.ReturnTypeID)
	}

	return nil
}

// SetFunctionReturnType changes the function's return type and regenerates its
// signature.
func (s *Store) SetFunctionReturnType(functionID, typeID uint32) error {
	f, err := s.mustFunction(functionID)
	if err != nil {
		return err
	}

	f.ReturnTypeID = typeID

	return s.notify(functionID)
}

// MoveParameterBefore reorders childID to sit immediately before beforeID
// in the function's child list (beforeID==0 moves it to the end). A move
// to its current position is a no-op (spec 4.4, 8).
func (s *Store) MoveParameterBefore(functionID, childID, beforeID uint32) error {
	f, err := s.mustFunction(functionID)
	if err != nil {
		return err
	}

	idx := indexOf(f.children, childID)
	if idx < 0 {
		return symerr.InvalidArgumentf("NOT_A_CHILD", map[string]interface{}{"child": childID, "function": functionID}, "symbol %d is not a child of function %d", childID, functionID)
	}

	target := len(f.children)

	if beforeID != NoSymbol {
		target = indexOf(f.children, beforeID)
		if target < 0 {
			return symerr.InvalidArgumentf("NOT_A_CHILD", map[string]interface{}{"child": beforeID, "function": functionID}, "symbol %d is not a child of function %d", beforeID, functionID)
		}
	}

	if target == idx || target == idx+1 {
		return nil
	}

	children := append([]uint32(nil), f.children...)
	children = append(children[:idx], children[idx+1:]...)

	if target > idx {
		target--
	}

	children = append(children[:target], append([]uint32{childID}, children[target:]...)...)
	f.children = children

	return s.notify(functionID)
}

func indexOf(ids []uint32, id uint32) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}

	return -1
}

func (s *Store) mustFunction(id uint32) (*FunctionSymbol, error) {
	sym, ok := s.find(id)
	if !ok {
		return nil, symerr.UnknownID(id)
	}

	f, ok := sym.(*FunctionSymbol)
	if !ok {
		return nil, symerr.WrongKind("function operation", sym.Kind().String())
	}

	return f, nil
}
