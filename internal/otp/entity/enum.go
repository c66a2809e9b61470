package entity

// Mode selects the moving factor of a record. A record is either
// counter-based or time-based, never both.
type Mode int16

const (
	// ModeUnknown is mean mode is not known / not set.
	ModeUnknown Mode = 0

	// ModeCounter mean codes derive from an explicit counter (HOTP).
	ModeCounter Mode = 1

	// ModeTime mean codes derive from the current time step (TOTP).
	ModeTime Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeCounter:
		return "counter"
	case ModeTime:
		return "time"
	default:
		return "unknown"
	}
}

// ModeFromOtpType maps the otp_type path segment onto a Mode.
func ModeFromOtpType(s string) Mode {
	switch s {
	case "hotp":
		return ModeCounter
	case "totp":
		return ModeTime
	default:
		return ModeUnknown
	}
}
