package domain

// ValidationError marks user-fixable input problems so handlers can map them
// to 400 instead of a generic server error.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
