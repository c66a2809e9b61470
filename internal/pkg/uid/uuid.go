package uid

import "github.com/google/uuid"

// UUID generates RFC 4122 UUID strings in the canonical 8-4-4-4-12 form.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string, preferring the time-ordered v7
// layout. Falls back to v4 if the entropy source misbehaves.
func (u *UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
