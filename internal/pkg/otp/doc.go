// Package otp implements the one-time password core: secret generation,
// HOTP (counter-based) and TOTP (time-based) code derivation, verification
// with look-ahead / clock-skew tolerance, and provisioning URI formatting
// for authenticator apps.
//
// Derivation and verification are pure. Advancing the stored moving factor
// after a successful verification is the caller's responsibility.
package otp
