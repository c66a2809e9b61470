// Package hash provides keyed hashing for values that must be stored
// server-side without keeping the plaintext, such as pending referral codes.
// Verification compares plaintext input against the stored hash in constant
// time.
package hash
