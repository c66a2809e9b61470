package hash

// Hash computes and verifies keyed hashes of short strings.
type Hash interface {
	// Hash returns the hash of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str hashes to hashed.
	Verify(hashed, str string) bool
}
