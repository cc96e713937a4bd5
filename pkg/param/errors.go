package param

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every *ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports an unknown, missing or invalid parameter.
type ConfigurationError struct {
	Owner  string
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("module %q: %s", e.Owner, e.Reason)
	}
	return fmt.Sprintf("module %q: parameter %q: %s", e.Owner, e.Param, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// Errorf builds a ConfigurationError. Modules use it to reject resolved values
// that fail validation.
func Errorf(owner, param, format string, args ...any) error {
	return &ConfigurationError{Owner: owner, Param: param, Reason: fmt.Sprintf(format, args...)}
}
