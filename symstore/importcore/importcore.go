// Package importcore implements the shared on-demand import passes
// described in spec 4.8: classify an external record, reuse an
// already-imported symbol of the same qualified name, recursively import
// its dependencies, create the corresponding store symbol, and memoize
// the external-id-to-store-id mapping so later imports in the same
// session reuse it.
//
// It is deliberately transport-agnostic: symstore/importfile and
// symstore/importremote each supply an ExternalSource and get the full
// classify/reuse/recurse/memoize pipeline for free.
package importcore

import (
	"errors"

	"github.com/orizon-lang/symbuilder/symstore"
	"github.com/orizon-lang/symbuilder/symstore/symerr"
)

// RecordKind classifies one external record (spec 4.8 step 1): basic,
// UDT, pointer, array, typedef, enum, function or data. There is no
// function-type record kind; the store derives a function's type from its
// return and parameter types.
type RecordKind uint8

const (
	RecBasic RecordKind = iota + 1
	RecUdt
	RecPointer
	RecArray
	RecTypedef
	RecEnum
	RecFunction
	RecData
)

// ConstantLiteral is an external constant value, in the same packed
// representation the store itself uses.
type ConstantLiteral struct {
	Kind symstore.ConstantKind
	I    int64
	U    uint64
	B    bool
}

// ExternalBase is an external record's base-class entry.
type ExternalBase struct {
	TypeKey  string
	Offset   int64
	Explicit bool
}

// ExternalField is an external record's UDT field entry.
type ExternalField struct {
	Name     string
	TypeKey  string
	Offset   int64
	Explicit bool
}

// ExternalEnumerator is an external record's enum member entry.
type ExternalEnumerator struct {
	Name     string
	Explicit bool
	Value    ConstantLiteral
}

// ExternalParam is an external record's function parameter entry.
type ExternalParam struct {
	Name    string
	TypeKey string
}

// ExternalRecord is one classified record from the external source. Only
// the fields relevant to Kind are populated.
type ExternalRecord struct {
	Kind          RecordKind
	Key           string // external id, unique within the source
	Name          string
	QualifiedName string

	// RecBasic
	BasicKind symstore.IntrinsicKind
	BasicSize uint64

	// RecPointer
	PointeeKey  string
	PointerKind symstore.PointerKind

	// RecArray: ByteLength is divided by the resolved element size to
	// derive the dimension (spec 4.8 step 5).
	ElementKey string
	ByteLength uint64

	// RecTypedef
	AliasKey string

	// RecEnum
	UnderlyingKey string
	Enumerators   []ExternalEnumerator

	// RecUdt
	Bases  []ExternalBase
	Fields []ExternalField

	// RecFunction
	ReturnKey string
	Params    []ExternalParam
	Offset    uint64
	Size      uint64

	// RecData
	TypeKey string
}

// ErrFullImportRefused is returned by ExternalSource.LookupByName when
// asked for a full implicit import (name == "") it chooses not to serve
// (spec 4.8: "implementations are permitted to refuse a full implicit
// import").
var ErrFullImportRefused = errors.New("importcore: full import refused")

// ExternalSource is the transport-specific half of an on-demand importer:
// it knows how to reach the upstream symbol provider and classify its
// records, but not how to build store symbols from them (spec 9's
// "Importer host-API sprawl... model as a trait").
type ExternalSource interface {
	Connect() error
	Disconnect() error
	LookupByOffset(kind symstore.Kind, offset uint64) ([]ExternalRecord, error)
	// LookupByName looks up by name (name == "" requests a full import,
	// which the source may refuse with ErrFullImportRefused).
	LookupByName(kind symstore.Kind, name string) ([]ExternalRecord, error)
	// Resolve looks up a single record by its external key, used to
	// recursively import a referenced pointee/element/alias/underlying
	// type, return type, or parameter type.
	Resolve(key string) (ExternalRecord, bool, error)
}

// OnDemandImporter implements symstore.Importer by walking an
// ExternalSource through the passes in spec 4.8.
type OnDemandImporter struct {
	source ExternalSource

	memo        map[string]uint32
	offsetsDone map[uint64]bool
	namesDone   map[string]bool
	fullDone    bool
}

// New wraps source in an OnDemandImporter.
func New(source ExternalSource) *OnDemandImporter {
	return &OnDemandImporter{
		source:      source,
		memo:        make(map[string]uint32),
		offsetsDone: make(map[uint64]bool),
		namesDone:   make(map[string]bool),
	}
}

func (o *OnDemandImporter) Connect() error    { return o.source.Connect() }
func (o *OnDemandImporter) Disconnect() error { return o.source.Disconnect() }

// ImportForOffset ensures every external record covering offset and
// matching kind has been copied into s. Memoizes offsets already queried
// (spec 4.8).
func (o *OnDemandImporter) ImportForOffset(s *symstore.Store, kind symstore.Kind, offset uint64) error {
	if o.offsetsDone[offset] {
		return nil
	}

	recs, err := o.source.LookupByOffset(kind, offset)
	if err != nil {
		return symerr.ImportFailuref("IMPORT_OFFSET_FAILED", map[string]interface{}{"offset": offset}, "importing at offset %#x: %v", offset, err)
	}

	s.BeginBulkImport()
	defer s.EndBulkImport()

	for _, rec := range recs {
		if _, err := o.importRecord(s, rec); err != nil {
			return err
		}
	}

	o.offsetsDone[offset] = true

	return nil
}

// ImportForName ensures every external record matching name/kind has
// been copied into s. An empty name requests a full import (spec 4.8).
func (o *OnDemandImporter) ImportForName(s *symstore.Store, kind symstore.Kind, name string) error {
	if name == "" {
		if o.fullDone {
			return nil
		}

		recs, err := o.source.LookupByName(kind, "")
		if errors.Is(err, ErrFullImportRefused) {
			return nil
		}

		if err != nil {
			return symerr.ImportFailuref("IMPORT_FULL_FAILED", nil, "full import: %v", err)
		}

		s.BeginBulkImport()
		defer s.EndBulkImport()

		for _, rec := range recs {
			if _, err := o.importRecord(s, rec); err != nil {
				return err
			}
		}

		o.fullDone = true

		return nil
	}

	if o.namesDone[name] {
		return nil
	}

	recs, err := o.source.LookupByName(kind, name)
	if err != nil {
		return symerr.ImportFailuref("IMPORT_NAME_FAILED", map[string]interface{}{"name": name}, "importing %q: %v", name, err)
	}

	s.BeginBulkImport()
	defer s.EndBulkImport()

	for _, rec := range recs {
		if _, err := o.importRecord(s, rec); err != nil {
			return err
		}
	}

	o.namesDone[name] = true

	return nil
}

func storeKindOf(rec ExternalRecord) symstore.Kind {
	switch rec.Kind {
	case RecFunction:
		return symstore.KindFunction
	case RecData:
		return symstore.KindData
	default:
		return symstore.KindType
	}
}

// importRecord is the shared classify -> reuse -> recursively-import ->
// create -> memoize pass (spec 4.8 steps 1-8). If a type of the same
// qualified name already exists in the store, it is reused (idempotent
// import).
func (o *OnDemandImporter) importRecord(s *symstore.Store, rec ExternalRecord) (uint32, error) {
	if id, ok := o.memo[rec.Key]; ok {
		return id, nil
	}

	if rec.QualifiedName != "" {
		if id, ok := s.LookupExistingGlobal(storeKindOf(rec), rec.QualifiedName); ok {
			o.memo[rec.Key] = id
			return id, nil
		}
	}

	switch rec.Kind {
	case RecBasic:
		return o.importBasic(s, rec)
	case RecUdt:
		return o.importUdt(s, rec)
	case RecPointer:
		return o.importPointer(s, rec)
	case RecArray:
		return o.importArray(s, rec)
	case RecTypedef:
		return o.importTypedef(s, rec)
	case RecEnum:
		return o.importEnum(s, rec)
	case RecFunction:
		return o.importFunction(s, rec)
	case RecData:
		return o.importData(s, rec)
	default:
		return 0, symerr.Unsupportedf("UNKNOWN_RECORD_KIND", map[string]interface{}{"kind": rec.Kind}, "external record kind %d is not recognized", rec.Kind)
	}
}

// resolveRef recursively imports the record named by key (spec 4.8 step
// 8: "memoise every imported external id -> store id, so dependent
// imports reuse already-imported symbols").
func (o *OnDemandImporter) resolveRef(s *symstore.Store, key string) (uint32, error) {
	if key == "" {
		return symstore.NoSymbol, nil
	}

	if id, ok := o.memo[key]; ok {
		return id, nil
	}

	rec, found, err := o.source.Resolve(key)
	if err != nil {
		return 0, symerr.ImportFailuref("RESOLVE_FAILED", map[string]interface{}{"key": key}, "resolving external key %q: %v", key, err)
	}

	if !found {
		return 0, symerr.NotFoundf("EXTERNAL_KEY_NOT_FOUND", map[string]interface{}{"key": key}, "external key %q not found", key)
	}

	return o.importRecord(s, rec)
}

func (o *OnDemandImporter) importBasic(s *symstore.Store, rec ExternalRecord) (uint32, error) {
	if id, ok := s.BasicTypeID(rec.BasicKind); ok {
		o.memo[rec.Key] = id
		return id, nil
	}

	id, err := s.CreateIntrinsic(rec.Name, rec.BasicKind, rec.BasicSize)
	if err != nil {
		return 0, err
	}

	o.memo[rec.Key] = id

	return id, nil
}

// importUdt creates the shell first (so self-referential/cyclic UDTs
// resolve), then imports base classes, then fields, in that order
// (spec 4.8 step 3, 9).
func (o *OnDemandImporter) importUdt(s *symstore.Store, rec ExternalRecord) (uint32, error) {
	id, err := s.CreateUdt(rec.Name, rec.QualifiedName)
	if err != nil {
		return 0, err
	}

	o.memo[rec.Key] = id

	for _, b := range rec.Bases {
		typeID, err := o.resolveRef(s, b.TypeKey)
		if err != nil {
			return 0, err
		}

		loc := symstore.AutoAppend()
		if b.Explicit {
			loc = symstore.ExplicitOffset(b.Offset)
		}

		if _, err := s.CreateBaseClass(id, typeID, loc); err != nil {
			return 0, err
		}
	}

	for _, f := range rec.Fields {
		typeID, err := o.resolveRef(s, f.TypeKey)
		if err != nil {
			return 0, err
		}

		loc := symstore.AutoAppend()
		if f.Explicit {
			loc = symstore.ExplicitOffset(f.Offset)
		}

		if _, err := s.CreateField(id, f.Name, typeID, loc); err != nil {
			return 0, err
		}
	}

	return id, nil
}

// importPointer maps r-value references to plain references: the
// external source's own representation sometimes cannot distinguish
// them, so this is the documented lossy mapping (spec 9's open question).
func (o *OnDemandImporter) importPointer(s *symstore.Store, rec ExternalRecord) (uint32, error) {
	pointeeID, err := o.resolveRef(s, rec.PointeeKey)
	if err != nil {
		return 0, err
	}

	kind := rec.PointerKind
	if kind == symstore.PointerRValueReference {
		kind = symstore.PointerReference
	}

	id, err := s.CreatePointer(pointeeID, kind)
	if err != nil {
		return 0, err
	}

	o.memo[rec.Key] = id

	return id, nil
}

func (o *OnDemandImporter) importArray(s *symstore.Store, rec ExternalRecord) (uint32, error) {
	elementID, err := o.resolveRef(s, rec.ElementKey)
	if err != nil {
		return 0, err
	}

	elem, err := s.FindByID(elementID)
	if err != nil {
		return 0, err
	}

	elemType, ok := elem.(symstore.TypeSymbol)
	if !ok || elemType.Size() == 0 {
		return 0, symerr.ImportFailuref("BAD_ARRAY_ELEMENT", map[string]interface{}{"key": rec.ElementKey}, "array element type has no usable size")
	}

	dimension := rec.ByteLength / elemType.Size()

	id, err := s.CreateArray(elementID, dimension)
	if err != nil {
		return 0, err
	}

	o.memo[rec.Key] = id

	return id, nil
}

func (o *OnDemandImporter) importTypedef(s *symstore.Store, rec ExternalRecord) (uint32, error) {
	aliasID, err := o.resolveRef(s, rec.AliasKey)
	if err != nil {
		return 0, err
	}

	id, err := s.CreateTypedef(rec.Name, aliasID)
	if err != nil {
		return 0, err
	}

	o.memo[rec.Key] = id

	return id, nil
}

func (o *OnDemandImporter) importEnum(s *symstore.Store, rec ExternalRecord) (uint32, error) {
	underlyingID, err := o.resolveRef(s, rec.UnderlyingKey)
	if err != nil {
		return 0, err
	}

	id, err := s.CreateEnum(rec.Name, rec.QualifiedName, underlyingID)
	if err != nil {
		return 0, err
	}

	o.memo[rec.Key] = id

	for _, e := range rec.Enumerators {
		if e.Explicit {
			v := symstore.ConstantValue{Kind: e.Value.Kind, I: e.Value.I, U: e.Value.U, B: e.Value.B}
			if _, err := s.CreateEnumerator(id, e.Name, &v); err != nil {
				return 0, err
			}

			continue
		}

		if _, err := s.CreateEnumerator(id, e.Name, nil); err != nil {
			return 0, err
		}
	}

	return id, nil
}

func (o *OnDemandImporter) importFunction(s *symstore.Store, rec ExternalRecord) (uint32, error) {
	returnID, err := o.resolveRef(s, rec.ReturnKey)
	if err != nil {
		return 0, err
	}

	id, err := s.CreateFunction(rec.Name, rec.QualifiedName, rec.Offset, rec.Size, returnID)
	if err != nil {
		return 0, err
	}

	o.memo[rec.Key] = id

	for _, p := range rec.Params {
		typeID, err := o.resolveRef(s, p.TypeKey)
		if err != nil {
			return 0, err
		}

		if _, err := s.CreateParameter(id, p.Name, typeID); err != nil {
			return 0, err
		}
	}

	return id, nil
}

func (o *OnDemandImporter) importData(s *symstore.Store, rec ExternalRecord) (uint32, error) {
	typeID, err := o.resolveRef(s, rec.TypeKey)
	if err != nil {
		return 0, err
	}

	id, err := s.CreateGlobalData(rec.Name, rec.QualifiedName, typeID, rec.Offset)
	if err != nil {
		return 0, err
	}

	o.memo[rec.Key] = id

	return id, nil
}
