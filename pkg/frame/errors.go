package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is matched by every *MissingFieldError.
	ErrMissingField = errors.New("frame field missing")
	// ErrType is matched by every *TypeError.
	ErrType = errors.New("frame field has wrong type")
)

// MissingFieldError reports a read of a key the frame does not hold.
type MissingFieldError struct {
	Key string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("frame has no field %q", e.Key)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// TypeError reports a field that exists but holds another variant.
type TypeError struct {
	Key  string
	Want Kind
	Got  Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("frame field %q is %s, want %s", e.Key, e.Got, e.Want)
}

func (e *TypeError) Unwrap() error { return ErrType }
