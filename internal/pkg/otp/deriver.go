package otp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// Deriver computes and verifies OTP codes for both moving-factor kinds.
//
// Verification walks a tolerance window and reports the moving factor that
// matched so the caller can persist the advanced state. It never mutates
// anything itself.
type Deriver interface {
	// HOTPCode derives the code for an explicit counter value.
	HOTPCode(secret string, counter uint64) (string, error)
	// VerifyHOTP checks candidate against counter..counter+lookAhead and
	// returns the first matching counter. The caller must persist match+1.
	VerifyHOTP(secret string, counter uint64, candidate string, lookAhead uint64) (uint64, bool)

	// TOTPCode derives the code for the time step containing at.
	TOTPCode(secret string, at time.Time, interval uint) (string, error)
	// VerifyTOTP checks candidate against the current step and up to skew
	// steps each direction, closest offset first, and returns the matching
	// step number.
	VerifyTOTP(secret string, at time.Time, interval uint, candidate string, skew uint) (uint64, bool)

	// Digits reports the configured code length.
	Digits() otp.Digits
}

// HMACDeriver implements Deriver on the standard HMAC dynamic-truncation
// construction (RFC 4226 / RFC 6238).
type HMACDeriver struct {
	digits    otp.Digits
	algorithm otp.Algorithm
}

// NewHMACDeriver constructs an HMACDeriver.
//
// Digits other than 6 or 8 fall back to 6. The zero algorithm value is
// SHA-1, the interop default for authenticator apps.
func NewHMACDeriver(digits otp.Digits, algorithm otp.Algorithm) *HMACDeriver {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	return &HMACDeriver{
		digits:    digits,
		algorithm: algorithm,
	}
}

// Digits returns the configured code length.
func (d *HMACDeriver) Digits() otp.Digits {
	return d.digits
}

// Algorithm returns the configured HMAC digest.
func (d *HMACDeriver) Algorithm() otp.Algorithm {
	return d.algorithm
}

// HOTPCode derives the code for an explicit counter value.
func (d *HMACDeriver) HOTPCode(secret string, counter uint64) (string, error) {
	return hotp.GenerateCodeCustom(secret, counter, d.validateOpts())
}

// VerifyHOTP checks candidate against counter..counter+lookAhead in order.
//
// The comparison inside each step is constant time. The first matching
// counter wins; (0, false) means no offset in the window matched.
func (d *HMACDeriver) VerifyHOTP(secret string, counter uint64, candidate string, lookAhead uint64) (uint64, bool) {
	for offset := uint64(0); offset <= lookAhead; offset++ {
		c := counter + offset
		if c < counter { // overflow guard
			break
		}

		ok, err := hotp.ValidateCustom(candidate, c, secret, d.validateOpts())
		if err != nil {
			// Malformed candidate or secret. Indistinguishable from a
			// mismatch for the caller.
			return 0, false
		}
		if ok {
			return c, true
		}
	}

	return 0, false
}

// TOTPCode derives the code for the time step containing at.
func (d *HMACDeriver) TOTPCode(secret string, at time.Time, interval uint) (string, error) {
	return d.HOTPCode(secret, timeStep(at, interval))
}

// VerifyTOTP checks candidate against steps within skew of the current one.
//
// Offsets are tried by absolute distance from the current step (0, -1, +1,
// -2, +2, ...) so that when more than one step would validate, the freshest
// code wins.
func (d *HMACDeriver) VerifyTOTP(secret string, at time.Time, interval uint, candidate string, skew uint) (uint64, bool) {
	current := timeStep(at, interval)

	steps := make([]uint64, 0, 2*skew+1)
	steps = append(steps, current)
	for offset := uint64(1); offset <= uint64(skew); offset++ {
		if current >= offset {
			steps = append(steps, current-offset)
		}
		steps = append(steps, current+offset)
	}

	for _, step := range steps {
		ok, err := hotp.ValidateCustom(candidate, step, secret, d.validateOpts())
		if err != nil {
			return 0, false
		}
		if ok {
			return step, true
		}
	}

	return 0, false
}

func (d *HMACDeriver) validateOpts() hotp.ValidateOpts {
	return hotp.ValidateOpts{
		Digits:    d.digits,
		Algorithm: d.algorithm,
	}
}

func timeStep(at time.Time, interval uint) uint64 {
	if interval == 0 {
		interval = 30
	}

	return uint64(at.Unix()) / uint64(interval)
}
