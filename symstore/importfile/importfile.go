// Package importfile implements importcore.ExternalSource backed by a
// directory of JSON fixture files: one file per external record, named by
// its external key. A fsnotify watch on the directory invalidates the
// in-memory index on Create/Write/Remove/Rename so edits made while the
// store is live are picked up by the next query (spec 4.8's "consult
// the watched directory before querying the index" addition).
//
// This is a development/testing source, not a persistence format for the
// store itself: the store's own graph is never serialized back to these
// files.
package importfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/symbuilder/symstore"
	"github.com/orizon-lang/symbuilder/symstore/importcore"
)

// record is the on-disk JSON shape for one external record. Fields mirror
// importcore.ExternalRecord; kind is the lowercase record kind name.
type record struct {
	Kind          string `json:"kind"`
	Key           string `json:"key"`
	Name          string `json:"name"`
	QualifiedName string `json:"qualifiedName"`
	Offset        uint64 `json:"offset,omitempty"`

	BasicKind string `json:"basicKind,omitempty"`
	BasicSize uint64 `json:"basicSize,omitempty"`

	PointeeKey  string `json:"pointeeKey,omitempty"`
	PointerKind string `json:"pointerKind,omitempty"`

	ElementKey string `json:"elementKey,omitempty"`
	ByteLength uint64 `json:"byteLength,omitempty"`

	AliasKey string `json:"aliasKey,omitempty"`

	UnderlyingKey string          `json:"underlyingKey,omitempty"`
	Enumerators   []jsonEnumValue `json:"enumerators,omitempty"`

	Bases  []jsonBase  `json:"bases,omitempty"`
	Fields []jsonField `json:"fields,omitempty"`

	ReturnKey string      `json:"returnKey,omitempty"`
	Params    []jsonParam `json:"params,omitempty"`
	Size      uint64      `json:"size,omitempty"`

	TypeKey string `json:"typeKey,omitempty"`
}

type jsonBase struct {
	TypeKey  string `json:"typeKey"`
	Offset   int64  `json:"offset"`
	Explicit bool   `json:"explicit"`
}

type jsonField struct {
	Name     string `json:"name"`
	TypeKey  string `json:"typeKey"`
	Offset   int64  `json:"offset"`
	Explicit bool   `json:"explicit"`
}

type jsonEnumValue struct {
	Name     string `json:"name"`
	Explicit bool   `json:"explicit"`
	Value    int64  `json:"value"`
	Unsigned bool   `json:"unsigned"`
}

type jsonParam struct {
	Name    string `json:"name"`
	TypeKey string `json:"typeKey"`
}

var recordKinds = map[string]importcore.RecordKind{
	"basic":    importcore.RecBasic,
	"udt":      importcore.RecUdt,
	"pointer":  importcore.RecPointer,
	"array":    importcore.RecArray,
	"typedef":  importcore.RecTypedef,
	"enum":     importcore.RecEnum,
	"function": importcore.RecFunction,
	"data":     importcore.RecData,
}

var intrinsicKinds = map[string]symstore.IntrinsicKind{
	"void":   symstore.IntrinsicVoid,
	"bool":   symstore.IntrinsicBool,
	"char":   symstore.IntrinsicChar,
	"wchar":  symstore.IntrinsicWchar,
	"int":    symstore.IntrinsicInt,
	"uint":   symstore.IntrinsicUint,
	"long":   symstore.IntrinsicLong,
	"ulong":  symstore.IntrinsicUlong,
	"float":  symstore.IntrinsicFloat,
	"char16": symstore.IntrinsicChar16,
	"char32": symstore.IntrinsicChar32,
}

var pointerKinds = map[string]symstore.PointerKind{
	"*":  symstore.PointerStandard,
	"&":  symstore.PointerReference,
	"&&": symstore.PointerRValueReference,
	"^":  symstore.PointerCxHat,
}

func (r record) toExternal() (importcore.ExternalRecord, error) {
	kind, ok := recordKinds[r.Kind]
	if !ok {
		return importcore.ExternalRecord{}, fmt.Errorf("importfile: unknown record kind %q", r.Kind)
	}

	out := importcore.ExternalRecord{
		Kind:          kind,
		Key:           r.Key,
		Name:          r.Name,
		QualifiedName: r.QualifiedName,
		PointeeKey:    r.PointeeKey,
		ElementKey:    r.ElementKey,
		ByteLength:    r.ByteLength,
		AliasKey:      r.AliasKey,
		UnderlyingKey: r.UnderlyingKey,
		ReturnKey:     r.ReturnKey,
		Offset:        r.Offset,
		Size:          r.Size,
		TypeKey:       r.TypeKey,
	}

	if r.BasicKind != "" {
		ik, ok := intrinsicKinds[r.BasicKind]
		if !ok {
			return importcore.ExternalRecord{}, fmt.Errorf("importfile: unknown basic kind %q", r.BasicKind)
		}

		out.BasicKind = ik
		out.BasicSize = r.BasicSize
	}

	if r.PointerKind != "" {
		pk, ok := pointerKinds[r.PointerKind]
		if !ok {
			return importcore.ExternalRecord{}, fmt.Errorf("importfile: unknown pointer kind %q", r.PointerKind)
		}

		out.PointerKind = pk
	}

	for _, b := range r.Bases {
		out.Bases = append(out.Bases, importcore.ExternalBase{TypeKey: b.TypeKey, Offset: b.Offset, Explicit: b.Explicit})
	}

	for _, f := range r.Fields {
		out.Fields = append(out.Fields, importcore.ExternalField{Name: f.Name, TypeKey: f.TypeKey, Offset: f.Offset, Explicit: f.Explicit})
	}

	for _, e := range r.Enumerators {
		lit := importcore.ConstantLiteral{}
		if e.Unsigned {
			lit.Kind = symstore.ConstU8
			lit.U = uint64(e.Value)
		} else {
			lit.Kind = symstore.ConstI8
			lit.I = e.Value
		}

		out.Enumerators = append(out.Enumerators, importcore.ExternalEnumerator{Name: e.Name, Explicit: e.Explicit, Value: lit})
	}

	for _, p := range r.Params {
		out.Params = append(out.Params, importcore.ExternalParam{Name: p.Name, TypeKey: p.TypeKey})
	}

	return out, nil
}

// Source is an importcore.ExternalSource reading one JSON file per record
// from dir. Each file's base name (without extension) is taken as the
// record's external key unless the file itself carries a different "key".
type Source struct {
	dir string

	mu      sync.Mutex
	loaded  bool
	byKey   map[string]importcore.ExternalRecord
	byName  map[string][]importcore.ExternalRecord
	watcher *fsnotify.Watcher
}

// New creates a Source reading fixture files from dir. Connect must be
// called before use.
func New(dir string) *Source {
	return &Source{dir: dir}
}

// Connect starts the directory watch and performs an initial load.
func (src *Source) Connect() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("importfile: creating watcher: %w", err)
	}

	if err := w.Add(src.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("importfile: watching %s: %w", src.dir, err)
	}

	src.watcher = w

	go src.watchLoop()

	return src.reload()
}

// Disconnect stops the directory watch.
func (src *Source) Disconnect() error {
	if src.watcher == nil {
		return nil
	}

	return src.watcher.Close()
}

func (src *Source) watchLoop() {
	for {
		select {
		case ev, ok := <-src.watcher.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				src.mu.Lock()
				src.loaded = false
				src.mu.Unlock()
			}
		case _, ok := <-src.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// reload re-reads every *.json file in dir. Called on first use and after
// a watch event marks the in-memory index stale.
func (src *Source) reload() error {
	entries, err := os.ReadDir(src.dir)
	if err != nil {
		return fmt.Errorf("importfile: reading %s: %w", src.dir, err)
	}

	byKey := make(map[string]importcore.ExternalRecord)
	byName := make(map[string][]importcore.ExternalRecord)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(src.dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("importfile: reading %s: %w", path, err)
		}

		var raw record
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("importfile: parsing %s: %w", path, err)
		}

		if raw.Key == "" {
			raw.Key = strings.TrimSuffix(entry.Name(), ".json")
		}

		rec, err := raw.toExternal()
		if err != nil {
			return fmt.Errorf("importfile: %s: %w", path, err)
		}

		byKey[rec.Key] = rec
		byName[rec.QualifiedName] = append(byName[rec.QualifiedName], rec)

		if rec.Name != rec.QualifiedName {
			byName[rec.Name] = append(byName[rec.Name], rec)
		}
	}

	src.mu.Lock()
	src.byKey = byKey
	src.byName = byName
	src.loaded = true
	src.mu.Unlock()

	return nil
}

func (src *Source) ensureLoaded() error {
	src.mu.Lock()
	stale := !src.loaded
	src.mu.Unlock()

	if stale {
		return src.reload()
	}

	return nil
}

// LookupByOffset is unsupported: JSON fixtures are keyed by name, not
// address. Callers resolving by offset should pair this source with the
// store's own address-range index once the relevant symbols are named.
func (src *Source) LookupByOffset(kind symstore.Kind, offset uint64) ([]importcore.ExternalRecord, error) {
	return nil, nil
}

// LookupByName returns every record named name; name == "" returns every
// record loaded (a full import).
func (src *Source) LookupByName(kind symstore.Kind, name string) ([]importcore.ExternalRecord, error) {
	if err := src.ensureLoaded(); err != nil {
		return nil, err
	}

	src.mu.Lock()
	defer src.mu.Unlock()

	if name == "" {
		out := make([]importcore.ExternalRecord, 0, len(src.byKey))
		for _, rec := range src.byKey {
			out = append(out, rec)
		}

		return out, nil
	}

	return append([]importcore.ExternalRecord(nil), src.byName[name]...), nil
}

// Resolve looks up a single record by its external key.
func (src *Source) Resolve(key string) (importcore.ExternalRecord, bool, error) {
	if err := src.ensureLoaded(); err != nil {
		return importcore.ExternalRecord{}, false, err
	}

	src.mu.Lock()
	defer src.mu.Unlock()

	rec, ok := src.byKey[key]

	return rec, ok, nil
}
