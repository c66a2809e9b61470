package validator

// Validator validates request and domain structs by their field tags.
type Validator interface {
	// Validate returns nil when data passes all tag rules, or an error
	// describing the failed fields.
	Validate(data any) error
}
