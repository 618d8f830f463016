package encoder

import "fmt"

// MissingFieldError reports a required request field that is absent or null.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// MalformedInputError reports a field that is present but cannot be parsed
// as the expected type. Field is "body" when the payload itself is not a
// JSON object.
type MalformedInputError struct {
	Field string
	Err   error
}

func (e *MalformedInputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed field %q", e.Field)
	}
	return fmt.Sprintf("malformed field %q: %v", e.Field, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }
