// Package config defines the read-only configuration surface the rest of the
// service depends on, decoupled from the concrete file format and library.
package config

import (
	"io"
	"time"
)

// Config retrieves typed configuration values by dotted key.
//
// Implementations return the zero value when a key is absent or cannot be
// converted; callers that need a hard failure must check explicitly.
type Config interface {
	io.Closer

	// GetBool retrieves the value for key as a bool.
	GetBool(key string) bool

	// GetInt retrieves the value for key as an int.
	GetInt(key string) int

	// GetInt32 retrieves the value for key as an int32.
	GetInt32(key string) int32

	// GetInt64 retrieves the value for key as an int64.
	GetInt64(key string) int64

	// GetUint retrieves the value for key as a uint.
	GetUint(key string) uint

	// GetUint64 retrieves the value for key as a uint64.
	GetUint64(key string) uint64

	// GetFloat64 retrieves the value for key as a float64.
	GetFloat64(key string) float64

	// GetString retrieves the value for key as a string.
	GetString(key string) string

	// GetArray retrieves the value for key as a string slice.
	// The value is stored comma separated: <element1>,<element2>,...
	GetArray(key string) []string

	// GetSecond retrieves the integer value for key as a duration in seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the integer value for key as a duration in minutes.
	GetMinute(key string) time.Duration
}
