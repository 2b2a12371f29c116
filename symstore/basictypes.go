package symstore

// basicCType describes one seeded basic C type (spec 4.1).
type basicCType struct {
	name  string
	kind  IntrinsicKind
	size  uint64
	align uint64
}

// basicCTypes is the canonical 15-entry seed list from spec 4.1, with
// sizes/alignments exactly as specified (void is 0-sized but aligned to 1).
// Within a shared IntrinsicKind group (several named C types pack the same
// way, e.g. short and int are both IntrinsicInt) the first entry of that
// kind is the one BasicTypeID resolves to, so the conventional 4-byte
// int/unsigned-int and 8-byte __int64/unsigned __int64 come first.
var basicCTypes = []basicCType{
	{"void", IntrinsicVoid, 0, 1},
	{"bool", IntrinsicBool, 1, 1},
	{"char", IntrinsicChar, 1, 1},
	{"wchar_t", IntrinsicWchar, 2, 2},
	{"int", IntrinsicInt, 4, 4},
	{"unsigned int", IntrinsicUint, 4, 4},
	{"__int64", IntrinsicLong, 8, 8},
	{"unsigned __int64", IntrinsicUlong, 8, 8},
	{"short", IntrinsicInt, 2, 2},
	{"unsigned short", IntrinsicUint, 2, 2},
	{"unsigned char", IntrinsicUint, 1, 1},
	{"long", IntrinsicLong, 4, 4},
	{"unsigned long", IntrinsicUlong, 4, 4},
	{"float", IntrinsicFloat, 4, 4},
	{"double", IntrinsicFloat, 8, 8},
}

// AddBasicCTypes seeds the store with the canonical basic C intrinsic
// types (spec 4.1). Each type's alignment equals its size (void aligned
// to 1). Safe to call more than once: existing names are left untouched.
func (s *Store) AddBasicCTypes() {
	s.BeginBulkImport()

	for _, bt := range basicCTypes {
		if _, exists := s.nameIndex[bt.name]; exists {
			continue
		}

		id, _ := s.CreateIntrinsic(bt.name, bt.kind, bt.size)
		if _, have := s.basicTypes[bt.kind]; !have {
			s.basicTypes[bt.kind] = id
		}
	}

	s.EndBulkImport()
}

// BasicTypeID returns the id of the canonical intrinsic seeded for kind,
// if AddBasicCTypes has been called.
func (s *Store) BasicTypeID(kind IntrinsicKind) (uint32, bool) {
	id, ok := s.basicTypes[kind]
	return id, ok
}
