// Package submission validates contact-form submissions and composes the
// email that forwards them.
package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Field names with special meaning.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"

	// FieldBotTrap is a hidden form field that real clients strip before
	// posting. Its presence marks the submission as automated.
	FieldBotTrap = "_important"
)

// RequiredFields lists the required fields in the order they are checked.
var RequiredFields = []string{FieldName, FieldEmail, FieldMessage}

var (
	// ErrEmptyBody is returned when the body is absent, null or an empty object.
	ErrEmptyBody = errors.New("request body is empty")
	// ErrMalformedBody is returned when the body is not a JSON object.
	ErrMalformedBody = errors.New("request body is not a JSON object")
)

// Record is one submission: field name to field value.
type Record map[string]string

// ParseRecord decodes a JSON object into a Record.
// Null values are treated as absent. Non-string scalars, arrays and objects
// are kept as their compact JSON text.
func ParseRecord(body []byte) (Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	rec := make(Record, len(raw))
	for key, value := range raw {
		s, ok, err := decodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformedBody, key, err)
		}
		if ok {
			rec[key] = s
		}
	}

	if len(rec) == 0 {
		return nil, ErrEmptyBody
	}
	return rec, nil
}

// Has reports whether the field is present.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

func decodeValue(value json.RawMessage) (string, bool, error) {
	trimmed := bytes.TrimSpace(value)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return "", false, nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", false, err
		}
		return buf.String(), true, nil
	}
}
