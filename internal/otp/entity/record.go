package entity

import (
	"time"

	"github.com/otterhq/otter/internal/pkg/valueobject"
)

// Record is the persisted OTP state keyed by a public correlation id.
//
// The id and secret are immutable after creation. Counter is only
// meaningful for ModeCounter records and IntervalSeconds only for
// ModeTime records.
type Record struct {
	ID              string
	Secret          string
	Mode            Mode
	Counter         uint64
	IntervalSeconds uint
	LinkedPrincipal string
	ExtraClaims     valueobject.JSONMap
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsBound reports whether a principal has been linked to the record.
func (r *Record) IsBound() bool {
	return r.LinkedPrincipal != ""
}
