package usage

import (
	"fmt"

	"github.com/itchyny/gojq"
)

// Selector extracts the usage document from a wrapping payload with a jq
// expression. The first result is used.
// Immutable
type Selector struct {
	query string
	code  *gojq.Code
}

// NewSelector compiles query.
func NewSelector(query string) (*Selector, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", query, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", query, err)
	}
	return &Selector{query: query, code: code}, nil
}

// String returns the source expression.
func (s *Selector) String() string {
	return s.query
}

// Select runs the query against v. A query that fails or yields nothing is a
// SchemaError: the payload does not contain the expected document.
func (s *Selector) Select(v any) (any, error) {
	iter := s.code.Run(v)
	res, ok := iter.Next()
	if !ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("query %q produced no result", s.query)}
	}
	if err, ok := res.(error); ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("query %q failed: %v", s.query, err)}
	}
	return res, nil
}
