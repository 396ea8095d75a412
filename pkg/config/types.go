// Package config holds the card configuration: where the usage JSON lives
// and the knobs that bound fetching, filtering and update pacing.
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration that reads and writes Go duration strings
// ("300ms", "10s") in JSON. Plain numbers are taken as milliseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the Go duration string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a duration string or a number of milliseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(val) * time.Millisecond)
	case nil:
		*d = 0
	default:
		return fmt.Errorf("invalid duration: %s", string(data))
	}
	return nil
}

// Error reports a missing or invalid configuration value. It is fatal:
// nothing is fetched or rendered with a configuration that fails validation.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}
