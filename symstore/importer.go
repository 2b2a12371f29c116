package symstore

// Importer is the pluggable on-demand source the store consults before a
// name or offset lookup, so matching symbols can be lazily copied in from
// an external source on first query (spec 4.8). Concrete implementations
// live outside this package (symstore/importcore, symstore/importfile,
// symstore/importremote) since they each depend on an external
// collaborator this package does not know about.
type Importer interface {
	// Connect establishes the underlying session. If it fails, the
	// importer must be discarded by the caller (spec 4.8).
	Connect() error

	// Disconnect releases resources held by the session.
	Disconnect() error

	// ImportForOffset ensures every external symbol covering offset and
	// matching kind has been copied into s. Implementations memoize each
	// offset queried and whether a full import has run.
	ImportForOffset(s *Store, kind Kind, offset uint64) error

	// ImportForName ensures every external symbol with matching
	// name/kind has been copied into s. An empty name requests a full
	// import; implementations may refuse that.
	ImportForName(s *Store, kind Kind, name string) error
}
