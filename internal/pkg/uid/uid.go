// Package uid provides identifier generators behind small interfaces so
// callers can swap deterministic fakes in tests.
package uid

// StringID generates string identifiers (UUIDs and the like).
type StringID interface {
	// Generate returns a new identifier string.
	Generate() string
}

// NumberID generates int64 identifiers suitable for primary keys.
type NumberID interface {
	// Generate returns a new numeric identifier.
	Generate() int64
}
