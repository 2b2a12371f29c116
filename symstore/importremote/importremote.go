// Package importremote implements importcore.ExternalSource over an
// HTTP/3 (QUIC) RPC session against a remote symbol provider. Connect
// performs a schema-version handshake gated by a semver constraint before
// any record is requested, so a provider speaking an incompatible schema
// is rejected up front rather than failing on the first malformed record.
package importremote

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	semver "github.com/Masterminds/semver/v3"
	http3 "github.com/quic-go/quic-go/http3"

	"github.com/orizon-lang/symbuilder/symstore"
	"github.com/orizon-lang/symbuilder/symstore/importcore"
)

// SchemaConstraint is the semver range of remote schema versions this
// client understands. Bump alongside any wire-format change in the
// handshake/record payloads below.
const SchemaConstraint = ">=1.0.0, <2.0.0"

// Source is an importcore.ExternalSource talking HTTP/3 to a remote
// symbol provider at BaseURL.
type Source struct {
	BaseURL string
	TLS     *tls.Config

	client    *http.Client
	roundTrip *http3.Transport
	connected bool
}

// New creates a Source for baseURL ("https://host:port"). tlsCfg may be
// nil to use a default TLS 1.3 config.
func New(baseURL string, tlsCfg *tls.Config) *Source {
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS13, NextProtos: []string{"h3"}}
	} else if tlsCfg.MinVersion < tls.VersionTLS13 {
		c := tlsCfg.Clone()
		c.MinVersion = tls.VersionTLS13
		tlsCfg = c
	}

	return &Source{BaseURL: baseURL, TLS: tlsCfg}
}

type handshakeResponse struct {
	SchemaVersion string `json:"schemaVersion"`
}

// Connect opens the HTTP/3 transport and validates the remote's
// advertised schema version against SchemaConstraint.
func (src *Source) Connect() error {
	rt := &http3.Transport{TLSClientConfig: src.TLS}
	src.roundTrip = rt
	src.client = &http.Client{Transport: rt, Timeout: 10 * time.Second}

	resp, err := src.client.Get(src.BaseURL + "/schema")
	if err != nil {
		src.roundTrip.Close()
		return fmt.Errorf("importremote: connecting to %s: %w", src.BaseURL, err)
	}

	defer resp.Body.Close()

	var hs handshakeResponse
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		src.roundTrip.Close()
		return fmt.Errorf("importremote: decoding schema handshake: %w", err)
	}

	constraint, err := semver.NewConstraint(SchemaConstraint)
	if err != nil {
		src.roundTrip.Close()
		return fmt.Errorf("importremote: invalid schema constraint %q: %w", SchemaConstraint, err)
	}

	remoteVersion, err := semver.NewVersion(hs.SchemaVersion)
	if err != nil {
		src.roundTrip.Close()
		return fmt.Errorf("importremote: remote reported invalid schema version %q: %w", hs.SchemaVersion, err)
	}

	if !constraint.Check(remoteVersion) {
		src.roundTrip.Close()
		return fmt.Errorf("importremote: remote schema version %s does not satisfy %s", remoteVersion, SchemaConstraint)
	}

	src.connected = true

	return nil
}

// Disconnect closes the HTTP/3 transport.
func (src *Source) Disconnect() error {
	src.connected = false

	if src.roundTrip == nil {
		return nil
	}

	return src.roundTrip.Close()
}

// wireRecord mirrors the remote's JSON record representation; field names
// match the provider's schema rather than this package's internal names.
type wireRecord struct {
	Kind          string                     `json:"kind"`
	Key           string                     `json:"key"`
	Name          string                     `json:"name"`
	QualifiedName string                     `json:"qualifiedName"`
	BasicKind     uint8                      `json:"basicKind,omitempty"`
	BasicSize     uint64                     `json:"basicSize,omitempty"`
	PointeeKey    string                     `json:"pointeeKey,omitempty"`
	PointerKind   uint8                      `json:"pointerKind,omitempty"`
	ElementKey    string                     `json:"elementKey,omitempty"`
	ByteLength    uint64                     `json:"byteLength,omitempty"`
	AliasKey      string                     `json:"aliasKey,omitempty"`
	UnderlyingKey string                     `json:"underlyingKey,omitempty"`
	Enumerators   []wireEnumerator           `json:"enumerators,omitempty"`
	Bases         []wireBase                 `json:"bases,omitempty"`
	Fields        []wireField                `json:"fields,omitempty"`
	ReturnKey     string                     `json:"returnKey,omitempty"`
	Params        []wireParam                `json:"params,omitempty"`
	Offset        uint64                     `json:"offset,omitempty"`
	Size          uint64                     `json:"size,omitempty"`
	TypeKey       string                     `json:"typeKey,omitempty"`
}

type wireBase struct {
	TypeKey  string `json:"typeKey"`
	Offset   int64  `json:"offset"`
	Explicit bool   `json:"explicit"`
}

type wireField struct {
	Name     string `json:"name"`
	TypeKey  string `json:"typeKey"`
	Offset   int64  `json:"offset"`
	Explicit bool   `json:"explicit"`
}

type wireEnumerator struct {
	Name     string `json:"name"`
	Explicit bool   `json:"explicit"`
	Value    int64  `json:"value"`
	Unsigned bool   `json:"unsigned"`
}

type wireParam struct {
	Name    string `json:"name"`
	TypeKey string `json:"typeKey"`
}

var recordKinds = map[string]importcore.RecordKind{
	"basic": importcore.RecBasic, "udt": importcore.RecUdt, "pointer": importcore.RecPointer,
	"array": importcore.RecArray, "typedef": importcore.RecTypedef, "enum": importcore.RecEnum,
	"function": importcore.RecFunction, "data": importcore.RecData,
}

func (w wireRecord) toExternal() (importcore.ExternalRecord, error) {
	kind, ok := recordKinds[w.Kind]
	if !ok {
		return importcore.ExternalRecord{}, fmt.Errorf("importremote: unknown record kind %q", w.Kind)
	}

	out := importcore.ExternalRecord{
		Kind: kind, Key: w.Key, Name: w.Name, QualifiedName: w.QualifiedName,
		BasicKind: symstore.IntrinsicKind(w.BasicKind), BasicSize: w.BasicSize,
		PointeeKey: w.PointeeKey, PointerKind: symstore.PointerKind(w.PointerKind),
		ElementKey: w.ElementKey, ByteLength: w.ByteLength,
		AliasKey: w.AliasKey, UnderlyingKey: w.UnderlyingKey,
		ReturnKey: w.ReturnKey, Offset: w.Offset, Size: w.Size, TypeKey: w.TypeKey,
	}

	for _, b := range w.Bases {
		out.Bases = append(out.Bases, importcore.ExternalBase{TypeKey: b.TypeKey, Offset: b.Offset, Explicit: b.Explicit})
	}

	for _, f := range w.Fields {
		out.Fields = append(out.Fields, importcore.ExternalField{Name: f.Name, TypeKey: f.TypeKey, Offset: f.Offset, Explicit: f.Explicit})
	}

	for _, e := range w.Enumerators {
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

	for _, p := range w.Params {
		out.Params = append(out.Params, importcore.ExternalParam{Name: p.Name, TypeKey: p.TypeKey})
	}

	return out, nil
}

func (src *Source) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.BaseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := src.client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("importremote: %s: status %d: %s", path, resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

var errNotFound = fmt.Errorf("importremote: not found")

// LookupByOffset queries the remote for every record covering offset.
func (src *Source) LookupByOffset(kind symstore.Kind, offset uint64) ([]importcore.ExternalRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wire []wireRecord
	if err := src.getJSON(ctx, fmt.Sprintf("/by-offset?kind=%d&offset=%d", kind, offset), &wire); err != nil {
		if err == errNotFound {
			return nil, nil
		}

		return nil, err
	}

	return toExternalSlice(wire)
}

// LookupByName queries the remote by name; name == "" requests a full
// import. A refusal is not mapped to importcore.ErrFullImportRefused: any
// status other than 200 or 404 is returned as an ordinary error.
func (src *Source) LookupByName(kind symstore.Kind, name string) ([]importcore.ExternalRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path := fmt.Sprintf("/by-name?kind=%d&name=%s", kind, name)

	var wire []wireRecord
	if err := src.getJSON(ctx, path, &wire); err != nil {
		if err == errNotFound {
			return nil, nil
		}

		return nil, err
	}

	return toExternalSlice(wire)
}

// Resolve looks up a single record by its external key.
func (src *Source) Resolve(key string) (importcore.ExternalRecord, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wire wireRecord
	if err := src.getJSON(ctx, "/resolve?key="+key, &wire); err != nil {
		if err == errNotFound {
			return importcore.ExternalRecord{}, false, nil
		}

		return importcore.ExternalRecord{}, false, err
	}

	rec, err := wire.toExternal()
	if err != nil {
		return importcore.ExternalRecord{}, false, err
	}

	return rec, true, nil
}

func toExternalSlice(wire []wireRecord) ([]importcore.ExternalRecord, error) {
	out := make([]importcore.ExternalRecord, 0, len(wire))

	for _, w := range wire {
		rec, err := w.toExternal()
		if err != nil {
			return nil, err
		}

		out = append(out, rec)
	}

	return out, nil
}
