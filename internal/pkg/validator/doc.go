// Package validator provides a small validation abstraction for request
// structs.
//
// Handlers and usecases depend on the Validator interface; the concrete
// go-playground/validator v10 implementation lives here together with the
// OTP-specific custom rules.
package validator
