package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Record maps a column name to its textual value. It may carry columns the
// current Header does not know about yet.
type Record map[string]string

func (r Record) Keys() []string {

	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Get returns the value for the column, empty string when absent.
func (r Record) Get(column string) string {
	return r[column]
}

// UnmarshalJSON keeps the textual form of any scalar the backend sends,
// so `{"id": 1}` and `{"id": "1"}` decode to the same record.
func (r *Record) UnmarshalJSON(data []byte) error {

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return fmt.Errorf("unable to decode record: %s", err.Error())
	}

	if raw == nil {
		*r = nil
		return nil
	}

	result := make(Record, len(raw))

	for key, val := range raw {
		switch typed := val.(type) {
		case nil:
			result[key] = ""
		case string:
			result[key] = typed
		case json.Number:
			result[key] = typed.String()
		case bool:
			result[key] = strconv.FormatBool(typed)
		default:
			nested, err := json.Marshal(typed)
			if err != nil {
				return fmt.Errorf("unable to encode nested value of `%s`: %s", key, err.Error())
			}
			result[key] = string(nested)
		}
	}

	*r = result

	return nil
}
