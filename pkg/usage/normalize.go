package usage

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var requiredKeys = []string{"labels", "parents", "values"}

// Normalize validates a decoded JSON value and converts it to a RawDocument.
// All three keys must be present and non-null arrays. Elements are coerced:
// labels and parents to strings, values to numbers (absent when not numeric).
func Normalize(v any) (RawDocument, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return RawDocument{}, &SchemaError{Reason: fmt.Sprintf("expected an object, got %s", kindOf(v))}
	}

	var missing []string
	for _, key := range requiredKeys {
		if val, ok := m[key]; !ok || val == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return RawDocument{}, &SchemaError{Missing: missing}
	}

	labels, err := array(m, "labels")
	if err != nil {
		return RawDocument{}, err
	}
	parents, err := array(m, "parents")
	if err != nil {
		return RawDocument{}, err
	}
	values, err := array(m, "values")
	if err != nil {
		return RawDocument{}, err
	}

	doc := RawDocument{
		Labels:  make([]string, len(labels)),
		Parents: make([]string, len(parents)),
		Values:  make([]Value, len(values)),
	}
	for i, l := range labels {
		doc.Labels[i] = toString(l)
	}
	for i, p := range parents {
		doc.Parents[i] = toString(p)
	}
	for i, val := range values {
		doc.Values[i] = toValue(val)
	}
	return doc, nil
}

func array(m map[string]any, key string) ([]any, error) {
	arr, ok := m[key].([]any)
	if !ok {
		return nil, &SchemaError{Reason: fmt.Sprintf("%q must be an array, got %s", key, kindOf(m[key]))}
	}
	return arr, nil
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

func toValue(v any) Value {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return Value{}
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return Value{}
		}
		f = parsed
	default:
		return Value{}
	}
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Bytes: f, Valid: true}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64, int, int64, json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
