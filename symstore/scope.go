package symstore

import "github.com/orizon-lang/symbuilder/symstore/symerr"

// ScopedVariable is one variable visible in a Scope: either the variable's
// own id (global scope, or a scope with no specific PC) or a scope-bound
// handle resolved against the scope's PC (spec 3/9).
type ScopedVariable struct {
	Handle     uint32
	VariableID uint32
	Name       string
}

// Scope enumerates the symbols visible at a point: either the module's
// global scope, or a function's parameter/local scope, optionally bound
// to a specific module-relative program counter (spec 4.1).
type Scope struct {
	store      *Store
	functionID uint32
	pc         uint64
	hasPC      bool
}

// GlobalScope returns the module's global scope (spec 4.1).
func (s *Store) GlobalScope() *Scope {
	return &Scope{store: s, functionID: NoSymbol}
}

// ScopeForOffset resolves the scope enclosing a module-relative code
// offset: the function covering it, bound to that offset as PC.
func (s *Store) ScopeForOffset(offset uint64) (*Scope, error) {
	ids := s.addrIndex.Query(offset)

	for _, id := range ids {
		if sym, ok := s.find(id); ok {
			if _, ok := sym.(*FunctionSymbol); ok {
				return &Scope{store: s, functionID: id, pc: offset, hasPC: true}, nil
			}
		}
	}

	return nil, symerr.NotFoundf("NO_ENCLOSING_FUNCTION", map[string]interface{}{"offset": offset}, "no function covers offset %#x", offset)
}

// ScopeFrame is a resolved scope bound to a live register context's
// current PC, plus the enclosing function (spec 4.1).
type ScopeFrame struct {
	Scope    *Scope
	Function *FunctionSymbol
	PC       uint64
}

// ScopeFrameFor extracts the instruction pointer from regs, converts it
// to a module-relative offset against mod's base address, and resolves
// the enclosing function (spec 4.1, 6).
func (s *Store) ScopeFrameFor(mod Module, regs RegisterContext) (*ScopeFrame, error) {
	pc, err := regs.AbstractRegisterValue64(RegInstructionPointer)
	if err != nil {
		return nil, symerr.InvalidArgumentf("BAD_REGISTER_CONTEXT", nil, "reading instruction pointer: %v", err)
	}

	base := mod.BaseAddress()
	if pc < base {
		return nil, symerr.InvalidArgumentf("PC_OUTSIDE_MODULE", map[string]interface{}{"pc": pc, "base": base}, "pc %#x is below module base %#x", pc, base)
	}

	moduleRelative := pc - base

	sc, err := s.ScopeForOffset(moduleRelative)
	if err != nil {
		return nil, err
	}

	fnSym, _ := s.find(sc.functionID)
	fn, _ := fnSym.(*FunctionSymbol)

	return &ScopeFrame{Scope: sc, Function: fn, PC: moduleRelative}, nil
}

// Variables returns the symbols visible in the scope: for the global
// scope, every Data/Function/Public global; for a function scope, its
// parameters and locals, each returned as a scope-bound handle if the
// scope carries a PC.
func (sc *Scope) Variables() []ScopedVariable {
	s := sc.store

	if sc.functionID == NoSymbol {
		var out []ScopedVariable

		for name, id := range s.nameIndex {
			sym, ok := s.find(id)
			if !ok {
				continue
			}

			switch sym.Kind() {
			case KindData, KindFunction, KindPublic:
				out = append(out, ScopedVariable{Handle: id, VariableID: id, Name: name})
			}
		}

		return out
	}

	fnSym, ok := s.find(sc.functionID)
	if !ok {
		return nil
	}

	fn, ok := fnSym.(*FunctionSymbol)
	if !ok {
		return nil
	}

	var out []ScopedVariable

	emit := func(id uint32, name string) {
		handle := id
		if sc.hasPC {
			handle = s.scopeTable.bind(id, sc.pc)
		}

		out = append(out, ScopedVariable{Handle: handle, VariableID: id, Name: name})
	}

	for _, p := range fn.Parameters(s) {
		emit(p.id, p.name)
	}

	for _, l := range fn.Locals(s) {
		emit(l.id, l.name)
	}

	return out
}

// ResolveHandle resolves a handle returned by Scope.Variables: a plain id
// resolves directly; a scope-bound handle resolves through the
// scope-binding table to the underlying variable id and the PC it was
// bound at (spec 3/9).
func (s *Store) ResolveHandle(handle uint32) (variableID uint32, pc uint64, boundToPC bool, err error) {
	if !IsScopeBoundHandle(handle) {
		if _, ok := s.find(handle); !ok {
			return 0, 0, false, symerr.UnknownID(handle)
		}

		return handle, 0, false, nil
	}

	b, ok := s.scopeTable.resolve(handle)
	if !ok {
		return 0, 0, false, symerr.NotFoundf("UNKNOWN_HANDLE", map[string]interface{}{"handle": handle}, "no scope binding for handle %d", handle)
	}

	return b.variableID, b.pc, true, nil
}
