package symstore

import "testing"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(1, 1, 8, nil, nil)
}

// TestBasicStructLayout exercises a plain struct with automatic layout:
// two ints followed by a pointer, checking natural alignment padding.
func TestBasicStructLayout(t *testing.T) {
	s := newTestStore(t)
	s.AddBasicCTypes()

	intID, ok := s.BasicTypeID(IntrinsicInt)
	if !ok {
		t.Fatal("int basic type not seeded")
	}

	udtID, err := s.CreateUdt("Point", "Point")
	if err != nil {
		t.Fatal(err)
	}

	xID, err := s.CreateField(udtID, "x", intID, AutoAppend())
	if err != nil {
		t.Fatal(err)
	}

	yID, err := s.CreateField(udtID, "y", intID, AutoAppend())
	if err != nil {
		t.Fatal(err)
	}

	ptrID, err := s.CreatePointer(udtID, PointerStandard)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.CreateField(udtID, "next", ptrID, AutoAppend()); err != nil {
		t.Fatal(err)
	}

	udt, _ := s.find(udtID)
	u := udt.(*UdtSymbol)

	// x at 0, y at 4, next (8-byte pointer) aligned up to 8.
	xf, _ := s.find(xID)
	yf, _ := s.find(yID)

	xOff, _ := xf.(*FieldSymbol).EffectiveOffset()
	yOff, _ := yf.(*FieldSymbol).EffectiveOffset()

	if xOff != 0 {
		t.Errorf("x offset = %d, want 0", xOff)
	}

	if yOff != 4 {
		t.Errorf("y offset = %d, want 4", yOff)
	}

	if u.Size() != 16 {
		t.Errorf("Point size = %d, want 16", u.Size())
	}

	if u.Alignment() != 8 {
		t.Errorf("Point alignment = %d, want 8", u.Alignment())
	}
}

// TestExplicitOffsetUnion exercises an explicit-offset aggregate (a union
// modeled as all fields at offset 0) where the aggregate's size is driven
// by its largest explicit member, not the running auto-append cursor.
func TestExplicitOffsetUnion(t *testing.T) {
	s := newTestStore(t)
	s.AddBasicCTypes()

	intID, _ := s.BasicTypeID(IntrinsicInt)
	longID, _ := s.BasicTypeID(IntrinsicLong)

	udtID, err := s.CreateUdt("AnUnion", "AnUnion")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.CreateField(udtID, "asInt", intID, ExplicitOffset(0)); err != nil {
		t.Fatal(err)
	}

	if _, err := s.CreateField(udtID, "asLong", longID, ExplicitOffset(0)); err != nil {
		t.Fatal(err)
	}

	udt, _ := s.find(udtID)
	u := udt.(*UdtSymbol)

	if u.Size() != 8 {
		t.Errorf("union size = %d, want 8 (driven by asLong)", u.Size())
	}

	if u.Alignment() != 8 {
		t.Errorf("union alignment = %d, want 8", u.Alignment())
	}
}

// TestEnumAutoIncrement exercises auto-increment enumerants, an explicit
// reset, and the resumed auto-increment run that follows it.
func TestEnumAutoIncrement(t *testing.T) {
	s := newTestStore(t)
	s.AddBasicCTypes()

	intID, _ := s.BasicTypeID(IntrinsicInt)

	enumID, err := s.CreateEnum("Color", "Color", intID)
	if err != nil {
		t.Fatal(err)
	}

	redID, err := s.CreateEnumerator(enumID, "Red", nil)
	if err != nil {
		t.Fatal(err)
	}

	greenID, err := s.CreateEnumerator(enumID, "Green", nil)
	if err != nil {
		t.Fatal(err)
	}

	blueExplicit := ConstantValue{Kind: ConstI4, I: 10}

	blueID, err := s.CreateEnumerator(enumID, "Blue", &blueExplicit)
	if err != nil {
		t.Fatal(err)
	}

	purpleID, err := s.CreateEnumerator(enumID, "Purple", nil)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		id   uint32
		want int64
	}{
		{redID, 0},
		{greenID, 1},
		{blueID, 10},
		{purpleID, 11},
	}

	for _, c := range cases {
		sym, _ := s.find(c.id)
		v, err := sym.(*FieldSymbol).ConstantValue()
		if err != nil {
			t.Fatal(err)
		}

		if v.I != c.want {
			t.Errorf("enumerant %d = %d, want %d", c.id, v.I, c.want)
		}
	}
}

// TestEnumAutoIncrementWraparound exercises overflow wraparound for a
// narrow (1-byte signed) underlying representation.
func TestEnumAutoIncrementWraparound(t *testing.T) {
	s := newTestStore(t)

	charID, err := s.CreateIntrinsic("char", IntrinsicChar, 1)
	if err != nil {
		t.Fatal(err)
	}

	enumID, err := s.CreateEnum("Tiny", "Tiny", charID)
	if err != nil {
		t.Fatal(err)
	}

	top := ConstantValue{Kind: ConstI1, I: 127}

	topID, err := s.CreateEnumerator(enumID, "Top", &top)
	if err != nil {
		t.Fatal(err)
	}

	wrapID, err := s.CreateEnumerator(enumID, "Wrap", nil)
	if err != nil {
		t.Fatal(err)
	}

	topSym, _ := s.find(topID)
	topVal, _ := topSym.(*FieldSymbol).ConstantValue()

	if topVal.I != 127 {
		t.Fatalf("Top = %d, want 127", topVal.I)
	}

	wrapSym, _ := s.find(wrapID)
	wrapVal, _ := wrapSym.(*FieldSymbol).ConstantValue()

	if wrapVal.I != -128 {
		t.Errorf("Wrap = %d, want -128 (wrapped)", wrapVal.I)
	}
}

// TestDependentPropagation exercises the Field -> Udt(layout) ->
// dependents(Pointer rename) chain: changing a field's type must
// re-layout the owning struct and rename any pointer-to-struct whose
// name is derived from it.
func TestDependentPropagation(t *testing.T) {
	s := newTestStore(t)
	s.AddBasicCTypes()

	intID, _ := s.BasicTypeID(IntrinsicInt)
	longID, _ := s.BasicTypeID(IntrinsicLong)

	udtID, err := s.CreateUdt("Widget", "Widget")
	if err != nil {
		t.Fatal(err)
	}

	fieldID, err := s.CreateField(udtID, "value", intID, AutoAppend())
	if err != nil {
		t.Fatal(err)
	}

	ptrID, err := s.CreatePointer(udtID, PointerStandard)
	if err != nil {
		t.Fatal(err)
	}

	udtSym, _ := s.find(udtID)
	if udtSym.(*UdtSymbol).Size() != 4 {
		t.Fatalf("initial Widget size = %d, want 4", udtSym.(*UdtSymbol).Size())
	}

	ptrSym, _ := s.find(ptrID)
	if ptrSym.Name() != "Widget *" {
		t.Fatalf("initial pointer name = %q, want %q", ptrSym.Name(), "Widget *")
	}

	if err := s.SetFieldType(fieldID, longID); err != nil {
		t.Fatal(err)
	}

	if udtSym.(*UdtSymbol).Size() != 8 {
		t.Errorf("Widget size after field type change = %d, want 8", udtSym.(*UdtSymbol).Size())
	}

	// Pointer name/size are independent of the pointee's layout; verify it
	// is still correctly wired up (re-notified, name still derived).
	if ptrSym.Name() != "Widget *" {
		t.Errorf("pointer name after propagation = %q, want %q", ptrSym.Name(), "Widget *")
	}
}

// TestAddressRangeQuery exercises FindByOffset's exact and nearest-match
// semantics over a function's primary range.
func TestAddressRangeQuery(t *testing.T) {
	s := newTestStore(t)
	s.AddBasicCTypes()

	voidID, _ := s.BasicTypeID(IntrinsicVoid)

	fnID, err := s.CreateFunction("DoThing", "DoThing", 0x1000, 0x40, voidID)
	if err != nil {
		t.Fatal(err)
	}

	matches, err := s.FindByOffset(KindFunction, 0x1010, false)
	if err != nil {
		t.Fatal(err)
	}

	if len(matches) != 1 || matches[0].Symbol.ID() != fnID {
		t.Fatalf("FindByOffset(0x1010) = %+v, want single match on %d", matches, fnID)
	}

	if matches[0].Delta != 0x10 {
		t.Errorf("delta = %#x, want 0x10", matches[0].Delta)
	}

	if _, err := s.FindByOffset(KindFunction, 0x2000, false); err == nil {
		t.Error("expected error for offset outside any range")
	}

	exactMatches, err := s.FindByOffset(KindFunction, 0x1000, true)
	if err != nil {
		t.Fatal(err)
	}

	if len(exactMatches) != 1 {
		t.Fatalf("exact match at range start failed: %+v", exactMatches)
	}

	if _, err := s.FindByOffset(KindFunction, 0x1010, true); err == nil {
		t.Error("expected exact match to fail at a non-boundary offset")
	}
}

// TestDeleteCreateSymmetry verifies deleting a field removes its
// dependent registration on its type, leaves its id unresolvable, and
// re-lays out the owning struct back to size 0.
func TestDeleteCreateSymmetry(t *testing.T) {
	s := newTestStore(t)
	s.AddBasicCTypes()

	intID, _ := s.BasicTypeID(IntrinsicInt)

	udtID, _ := s.CreateUdt("Temp", "Temp")
	fieldID, _ := s.CreateField(udtID, "v", intID, AutoAppend())

	intSym, _ := s.find(intID)
	if !intSym.dependentSet().has(fieldID) {
		t.Fatal("field should be registered as a dependent of its type")
	}

	if err := s.Delete(fieldID); err != nil {
		t.Fatal(err)
	}

	if intSym.dependentSet().has(fieldID) {
		t.Error("deleted field should be unwired from its type's dependents")
	}

	if _, err := s.FindByID(fieldID); err == nil {
		t.Error("deleted field id should no longer resolve")
	}

	// udt should still exist and have re-laid-out to size 0.
	udtSym, err := s.FindByID(udtID)
	if err != nil {
		t.Fatal(err)
	}

	if udtSym.(*UdtSymbol).Size() != 0 {
		t.Errorf("Temp size after deleting its only field = %d, want 0", udtSym.(*UdtSymbol).Size())
	}
}

// TestMoveParameterBeforeNoOp verifies moving a parameter to its current
// position is a successful no-op (spec 8).
func TestMoveParameterBeforeNoOp(t *testing.T) {
	s := newTestStore(t)
	s.AddBasicCTypes()

	intID, _ := s.BasicTypeID(IntrinsicInt)
	voidID, _ := s.BasicTypeID(IntrinsicVoid)

	fnID, _ := s.CreateFunction("F", "F", 0, 0x10, voidID)

	aID, _ := s.CreateParameter(fnID, "a", intID)
	bID, _ := s.CreateParameter(fnID, "b", intID)

	if err := s.MoveParameterBefore(fnID, aID, bID); err != nil {
		t.Fatal(err)
	}

	fn, _ := s.FindByID(fnID)
	params := fn.(*FunctionSymbol).Parameters(s)

	if len(params) != 2 || params[0].ID() != aID || params[1].ID() != bID {
		t.Errorf("parameter order changed on no-op move: %+v", params)
	}
}

// TestParametersBeforeLocals verifies parameters always precede locals in
// the function's child ordering, even when a parameter is added after a
// local already exists (spec 4.4).
func TestParametersBeforeLocals(t *testing.T) {
	s := newTestStore(t)
	s.AddBasicCTypes()

	intID, _ := s.BasicTypeID(IntrinsicInt)
	voidID, _ := s.BasicTypeID(IntrinsicVoid)

	fnID, _ := s.CreateFunction("F", "F", 0, 0x10, voidID)

	_, _ = s.CreateParameter(fnID, "a", intID)
	_, _ = s.CreateLocal(fnID, "tmp", intID)
	bID, _ := s.CreateParameter(fnID, "b", intID)

	fn, _ := s.FindByID(fnID)
	f := fn.(*FunctionSymbol)

	params := f.Parameters(s)
	locals := f.Locals(s)

	if len(params) != 2 || params[1].ID() != bID {
		t.Fatalf("expected b to be a parameter, params=%+v", params)
	}

	if len(locals) != 1 {
		t.Fatalf("expected exactly one local, got %+v", locals)
	}

	for _, childID := range f.children {
		if childID == bID {
			break
		}

		if childID == locals[0].ID() {
			t.Fatal("parameter b registered after local in child order")
		}
	}
}

// TestFunctionTypeRegeneratesOnParamChange exercises function-signature
// regeneration (spec 4.4).
func TestFunctionTypeRegeneratesOnParamChange(t *testing.T) {
	s := newTestStore(t)
	s.AddBasicCTypes()

	intID, _ := s.BasicTypeID(IntrinsicInt)
	voidID, _ := s.BasicTypeID(IntrinsicVoid)

	fnID, _ := s.CreateFunction("F", "F", 0, 0x10, voidID)

	fn, _ := s.FindByID(fnID)
	f := fn.(*FunctionSymbol)

	ftID := f.FunctionTypeID()
	if ftID == NoSymbol {
		t.Fatal("function type not created on CreateFunction")
	}

	ftSym, _ := s.FindByID(ftID)
	ft := ftSym.(*FunctionTypeSymbol)

	if len(ft.ParamTypeIDs) != 0 {
		t.Fatalf("expected no params initially, got %v", ft.ParamTypeIDs)
	}

	if _, err := s.CreateParameter(fnID, "x", intID); err != nil {
		t.Fatal(err)
	}

	if len(ft.ParamTypeIDs) != 1 || ft.ParamTypeIDs[0] != intID {
		t.Errorf("function type params after adding x = %v, want [%d]", ft.ParamTypeIDs, intID)
	}
}
