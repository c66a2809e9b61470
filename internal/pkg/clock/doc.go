// Package clock abstracts wall-clock time.
//
// TOTP verification and code expiry depend on "now", so business logic takes
// a Clocker instead of calling time.Now() directly; tests swap in a fixed
// clock to pin the time step under test.
package clock
