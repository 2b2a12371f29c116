package symstore

import (
	"sort"

	"github.com/orizon-lang/symbuilder/symstore/symerr"
)

// CreateGlobalData creates a Data (global) symbol at an image-relative
// offset, registering it in the address-range index over
// [offset, offset+type_size) (spec 4.3).
func (s *Store) CreateGlobalData(name, qualifiedName string, typeID uint32, offset uint64) (uint32, error) {
	if _, ok := s.find(typeID); !ok {
		return 0, symerr.UnknownID(typeID)
	}

	if qualifiedName != "" {
		if _, taken := s.nameIndex[qualifiedName]; taken {
			return 0, symerr.NameTaken(qualifiedName)
		}
	}

	size, _ := s.typeSizeAlign(typeID)

	h := s.newHeader(KindData, NoSymbol, name, qualifiedName)
	d := &DataSymbol{baseHeader: h, TypeID: typeID, Location: ImageOffset(int64(offset))}
	s.register(d)
	s.addDependency(d.id, typeID)

	d.rangeBound = true
	d.rangeSize = size
	s.addrIndex.Insert(offset, offset+size, d.id)

	s.InvalidateExternalCaches()

	return d.id, nil
}

// SetGlobalDataType changes a global's type, refreshing its address-range
// registration to the new size.
func (s *Store) SetGlobalDataType(dataID, typeID uint32) error {
	sym, ok := s.find(dataID)
	if !ok {
		return symerr.UnknownID(dataID)
	}

	d, ok := sym.(*DataSymbol)
	if !ok {
		return symerr.WrongKind("SetGlobalDataType", sym.Kind().String())
	}

	if _, ok := s.find(typeID); !ok {
		return symerr.UnknownID(typeID)
	}

	s.removeDependency(d.id, d.TypeID)
	d.TypeID = typeID
	s.addDependency(d.id, typeID)

	return s.notify(dataID)
}

// CreateFunction creates a function symbol at its primary entry range.
func (s *Store) CreateFunction(name, qualifiedName string, primaryOffset, primarySize uint64, returnTypeID uint32) (uint32, error) {
	if qualifiedName != "" {
		if _, taken := s.nameIndex[qualifiedName]; taken {
			return 0, symerr.NameTaken(qualifiedName)
		}
	}

	h := s.newHeader(KindFunction, NoSymbol, name, qualifiedName)
	f := &FunctionSymbol{baseHeader: h, PrimaryOffset: primaryOffset, PrimarySize: primarySize, ReturnTypeID: returnTypeID}
	s.register(f)
	s.addrIndex.Insert(primaryOffset, primaryOffset+primarySize, f.id)

	if err := s.notify(f.id); err != nil {
		return 0, err
	}

	return f.id, nil
}

// AddFunctionSecondaryRange registers an additional disjoint code range
// for functionID in the address-range index.
func (s *Store) AddFunctionSecondaryRange(functionID uint32, offset, size uint64) error {
	f, err := s.mustFunction(functionID)
	if err != nil {
		return err
	}

	f.SecondaryRanges = append(f.SecondaryRanges, SecondaryRange{Offset: offset, Size: size})
	s.addrIndex.Insert(offset, offset+size, functionID)
	s.InvalidateExternalCaches()

	return nil
}

// CreateParameter adds a parameter to functionID, typed typeID. Parameters
// are kept ordered before any locals in the child list (spec 4.4).
func (s *Store) CreateParameter(functionID uint32, name string, typeID uint32) (uint32, error) {
	f, err := s.mustFunction(functionID)
	if err != nil {
		return 0, err
	}

	if _, ok := s.find(typeID); !ok {
		return 0, symerr.UnknownID(typeID)
	}

	h := s.newHeader(KindDataParameter, functionID, name, "")
	p := &ParameterSymbol{baseHeader: h, TypeID: typeID}

	firstLocal := -1

	for i, cid := range f.children {
		if sym, ok := s.find(cid); ok {
			if _, ok := sym.(*LocalSymbol); ok {
				firstLocal = i
				break
			}
		}
	}

	s.symbols[p.id] = p

	if firstLocal < 0 {
		f.children = append(f.children, p.id)
	} else {
		children := append([]uint32(nil), f.children[:firstLocal]...)
		children = append(children, p.id)
		children = append(children, f.children[firstLocal:]...)
		f.children = children
	}

	s.addDependency(p.id, typeID)

	if err := s.notify(functionID); err != nil {
		return 0, err
	}

	return p.id, nil
}

// CreateLocal adds a local variable to functionID, typed typeID.
func (s *Store) CreateLocal(functionID uint32, name string, typeID uint32) (uint32, error) {
	f, err := s.mustFunction(functionID)
	if err != nil {
		return 0, err
	}

	if _, ok := s.find(typeID); !ok {
		return 0, symerr.UnknownID(typeID)
	}

	h := s.newHeader(KindDataLocal, functionID, name, "")
	l := &LocalSymbol{baseHeader: h, TypeID: typeID}
	s.register(l)
	_ = f

	s.addDependency(l.id, typeID)

	if err := s.notify(functionID); err != nil {
		return 0, err
	}

	return l.id, nil
}

// AddLiveRange adds a live range to a parameter or local, validating that
// it does not overlap an existing range for that variable (spec 4.3, 8).
func (s *Store) AddLiveRange(variableID uint32, offset, size uint64, loc LocationDescriptor) (LiveRange, error) {
	sym, ok := s.find(variableID)
	if !ok {
		return LiveRange{}, symerr.UnknownID(variableID)
	}

	switch v := sym.(type) {
	case *ParameterSymbol:
		return v.ranges.Add(offset, size, loc)
	case *LocalSymbol:
		return v.ranges.Add(offset, size, loc)
	default:
		return LiveRange{}, symerr.WrongKind("AddLiveRange", sym.Kind().String())
	}
}

// ResizeLiveRange changes the extent of an existing live range. A resize
// to the identical extent is a no-op success (spec 8).
func (s *Store) ResizeLiveRange(variableID uint32, handle uint32, offset, size uint64) error {
	sym, ok := s.find(variableID)
	if !ok {
		return symerr.UnknownID(variableID)
	}

	switch v := sym.(type) {
	case *ParameterSymbol:
		return v.ranges.Resize(handle, offset, size)
	case *LocalSymbol:
		return v.ranges.Resize(handle, offset, size)
	default:
		return symerr.WrongKind("ResizeLiveRange", sym.Kind().String())
	}
}

// RemoveLiveRange deletes a live range from a parameter or local.
func (s *Store) RemoveLiveRange(variableID uint32, handle uint32) error {
	sym, ok := s.find(variableID)
	if !ok {
		return symerr.UnknownID(variableID)
	}

	switch v := sym.(type) {
	case *ParameterSymbol:
		v.ranges.Remove(handle)
	case *LocalSymbol:
		v.ranges.Remove(handle)
	default:
		return symerr.WrongKind("RemoveLiveRange", sym.Kind().String())
	}

	return nil
}

// CreatePublic creates a minimal (name, address) public symbol,
// registered in the public-address index (spec 4.5).
func (s *Store) CreatePublic(name string, address uint64) (uint32, error) {
	h := s.newHeader(KindPublic, NoSymbol, name, name)
	p := &PublicSymbol{baseHeader: h, Address: address}
	s.register(p)
	s.publicIndex.add(address, p.id)
	s.InvalidateExternalCaches()

	return p.id, nil
}

// PromotionOptions customizes PromotePublicToFunction (spec 4.5).
type PromotionOptions struct {
	CodeSize     uint64 // 0 means "derive from disassembler"
	ReturnTypeID uint32 // 0 means "void": the seeded void type, or none if basic types are not seeded
	Parameters   []PromotionParam
}

// PromotionParam names one parameter to attach to the promoted function.
type PromotionParam struct {
	Name   string
	TypeID uint32
}

// PromotePublicToFunction replaces a public symbol with a function symbol
// at the same address. If opts.CodeSize is 0, the size is derived from
// the disassembler by walking the basic-block graph from the entry
// address, ordering blocks by start address and accumulating the longest
// contiguous run through the entry (spec 4.5).
func (s *Store) PromotePublicToFunction(publicID uint32, dis Disassembler, opts PromotionOptions) (uint32, error) {
	sym, ok := s.find(publicID)
	if !ok {
		return 0, symerr.UnknownID(publicID)
	}

	pub, ok := sym.(*PublicSymbol)
	if !ok {
		return 0, symerr.WrongKind("PromotePublicToFunction", sym.Kind().String())
	}

	size := opts.CodeSize
	if size == 0 {
		derived, err := deriveCodeSize(dis, pub.Address)
		if err != nil {
			return 0, err
		}

		size = derived
	}

	returnType := opts.ReturnTypeID
	if returnType == NoSymbol {
		id, ok := s.basicTypes[IntrinsicVoid]
		if ok {
			returnType = id
		}
	}

	name, qualifiedName := pub.name, pub.qualifiedName

	if err := s.Delete(publicID); err != nil {
		return 0, err
	}

	fnID, err := s.CreateFunction(name, qualifiedName, pub.Address, size, returnType)
	if err != nil {
		return 0, err
	}

	for _, p := range opts.Parameters {
		if _, err := s.CreateParameter(fnID, p.Name, p.TypeID); err != nil {
			return 0, err
		}
	}

	return fnID, nil
}

// deriveCodeSize walks the basic-block graph from entryAddress, ordering
// blocks by start address and accumulating the longest contiguous run
// through the entry (spec 4.5).
func deriveCodeSize(dis Disassembler, entryAddress uint64) (uint64, error) {
	blocks, err := dis.BasicBlocksFrom(entryAddress)
	if err != nil {
		return 0, symerr.ImportFailuref("DISASSEMBLY_FAILED", map[string]interface{}{"entry": entryAddress}, "disassembler failed at %#x: %v", entryAddress, err)
	}

	if len(blocks) == 0 {
		return 0, nil
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].StartAddress < blocks[j].StartAddress })

	end := entryAddress

	for _, b := range blocks {
		if b.StartAddress > end {
			break
		}

		if b.EndAddress > end {
			end = b.EndAddress
		}
	}

	return end - entryAddress, nil
}
