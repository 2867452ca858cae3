package tile

import (
	"errors"
	"fmt"
)

// ErrExhausted reports that a placement target could not be reached before
// the configured pass budget ran out.
var ErrExhausted = errors.New("placement target unreachable")

// ConfigError rejects a generation request before any work is done.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

func ConfigErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
