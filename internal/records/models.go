package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is a single flattened payload destined for the vector store.
// The primary key and text fields are addressed by name so that each
// integration can map its own payload shape onto the same pipeline.
type Record map[string]any

// ParsePayload decodes a webhook body into records. Both a single JSON
// object and a JSON array of objects are accepted.
func ParsePayload(data []byte) ([]Record, error) {
	var many []Record
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}
	var one Record
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("%w: body is neither a JSON object nor an array of objects", ErrValidation)
	}
	return []Record{one}, nil
}

// StringField returns the named field coerced to string. Numeric values
// are formatted without an exponent so keys stay stable across payloads.
func (r Record) StringField(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

// PrimaryKey returns the record's primary key read from the given field.
func (r Record) PrimaryKey(field string) (string, error) {
	pk, ok := r.StringField(field)
	if !ok || pk == "" {
		return "", fmt.Errorf("%w: missing or empty primary key field %q", ErrValidation, field)
	}
	return pk, nil
}

// Text returns the record's embeddable text read from the given field.
// Whitespace-only text counts as missing; there is nothing to embed.
func (r Record) Text(field string) (string, error) {
	text, ok := r.StringField(field)
	if !ok || strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: missing or empty text field %q", ErrValidation, field)
	}
	return text, nil
}
