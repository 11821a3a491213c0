package pong

import "fmt"

// ConfigurationError rejects a match before any physics state exists.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid match configuration: %s=%s", e.Field, e.Value)
}
