package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Header is the ordered list of column names of the records table.
type Header []string

// nested field names the backend is known to use for the header payload
var headerFieldNames = []string{"columns", "header", "data"}

var ErrHeaderPayload = errors.New("header payload is neither a list nor an object holding one")

func (h Header) Contains(name string) bool {
	for _, col := range h {
		if col == name {
			return true
		}
	}
	return false
}

// Missing returns keys absent from the header in first-seen order, without duplicates.
func (h Header) Missing(keys []string) []string {

	var missing []string

	seen := make(map[string]struct{}, len(keys))

	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if !h.Contains(key) {
			missing = append(missing, key)
		}
	}

	return missing
}

// Extend returns a copy of the header with the missing keys appended.
func (h Header) Extend(keys ...string) Header {

	missing := h.Missing(keys)

	result := make(Header, 0, len(h)+len(missing))
	result = append(result, h...)
	result = append(result, missing...)

	return result
}

// UnmarshalJSON accepts both `["id","name"]` and `{"columns":["id","name"]}`.
func (h *Header) UnmarshalJSON(data []byte) error {

	trimmed := bytes.TrimSpace(data)

	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*h = Header{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var flat []string
		if err := json.Unmarshal(trimmed, &flat); err != nil {
			return fmt.Errorf("unable to decode header list: %s", err.Error())
		}
		*h = flat
		return nil

	case '{':
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &nested); err != nil {
			return fmt.Errorf("unable to decode header object: %s", err.Error())
		}

		for _, name := range headerFieldNames {
			if raw, ok := nested[name]; ok {
				return h.UnmarshalJSON(raw)
			}
		}

		// any single list-valued field is accepted as the header
		var candidate json.RawMessage
		lists := 0
		for _, raw := range nested {
			raw = bytes.TrimSpace(raw)
			if len(raw) > 0 && raw[0] == '[' {
				candidate = raw
				lists++
			}
		}

		if lists == 1 {
			return h.UnmarshalJSON(candidate)
		}

		return ErrHeaderPayload
	default:
		return ErrHeaderPayload
	}
}

// MarshalJSON writes the header in the shape PUT /header expects.
func (h Header) MarshalJSON() ([]byte, error) {

	columns := []string(h)
	if columns == nil {
		columns = []string{}
	}

	return json.Marshal(struct {
		Columns []string `json:"columns"`
	}{Columns: columns})
}
