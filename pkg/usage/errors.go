package usage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyDataset is returned when no entry passes the significance filter.
var ErrEmptyDataset = errors.New("no usage entries above the size threshold")

// SchemaError reports a document that does not have the labels/parents/values shape.
type SchemaError struct {
	// Missing lists required keys that are absent or null.
	Missing []string
	// Reason describes any other structural problem.
	Reason string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("invalid JSON data structure: missing keys: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("invalid JSON data structure: %s", e.Reason)
}
