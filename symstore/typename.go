package symstore

import (
	"strconv"
	"strings"

	"github.com/orizon-lang/symbuilder/symstore/symerr"
)

// FindTypeByName resolves a type by name, consulting the importer when the
// name is not already in the store.
// When allowAutoCreate is true and the name ends in a pointer suffix
// (*, &, &&, ^) or an array suffix ([N]), the base name is resolved
// recursively and a pointer or array type is synthesized on demand
// (spec 4.1).
func (s *Store) FindTypeByName(name string, allowAutoCreate bool) (uint32, error) {
	if id, ok := s.lookupTypeName(name); ok {
		return id, nil
	}

	if s.importer != nil {
		if err := s.importer.ImportForName(s, KindType, name); err != nil {
			return 0, err
		}

		if id, ok := s.lookupTypeName(name); ok {
			return id, nil
		}
	}

	if !allowAutoCreate {
		return 0, symerr.NotFoundf("TYPE_NOT_FOUND", map[string]interface{}{"name": name}, "no type named %q", name)
	}

	trimmed := strings.TrimSpace(name)

	if suffix, kind, ok := pointerSuffix(trimmed); ok {
		base := strings.TrimSpace(strings.TrimSuffix(trimmed, suffix))

		baseID, err := s.FindTypeByName(base, true)
		if err != nil {
			return 0, err
		}

		return s.pointerTypeOf(baseID, kind)
	}

	if strings.HasSuffix(trimmed, "]") {
		open := strings.LastIndexByte(trimmed, '[')
		if open < 0 {
			return 0, symerr.InvalidArgumentf("BAD_TYPE_NAME", map[string]interface{}{"name": name}, "malformed array type name %q", name)
		}

		base := strings.TrimSpace(trimmed[:open])

		dimStr := strings.TrimSpace(trimmed[open+1 : len(trimmed)-1])

		dim, err := strconv.ParseUint(dimStr, 10, 64)
		if err != nil {
			return 0, symerr.InvalidArgumentf("BAD_TYPE_NAME", map[string]interface{}{"name": name}, "malformed array dimension in %q: %v", name, err)
		}

		baseID, err := s.FindTypeByName(base, true)
		if err != nil {
			return 0, err
		}

		return s.arrayTypeOf(baseID, dim)
	}

	return 0, symerr.NotFoundf("TYPE_NOT_FOUND", map[string]interface{}{"name": name}, "no type named %q", name)
}

func (s *Store) lookupTypeName(name string) (uint32, bool) {
	id, ok := s.nameIndex[name]
	if !ok {
		return 0, false
	}

	sym, ok := s.find(id)
	if !ok || sym.Kind() != KindType {
		return 0, false
	}

	return id, true
}

// pointerSuffix reports the longest matching pointer-kind suffix of name,
// checking the two-character forms before the one-character ones so "&&"
// is not mistaken for "&".
func pointerSuffix(name string) (suffix string, kind PointerKind, ok bool) {
	switch {
	case strings.HasSuffix(name, "&&"):
		return "&&", PointerRValueReference, true
	case strings.HasSuffix(name, "*"):
		return "*", PointerStandard, true
	case strings.HasSuffix(name, "&"):
		return "&", PointerReference, true
	case strings.HasSuffix(name, "^"):
		return "^", PointerCxHat, true
	default:
		return "", 0, false
	}
}
