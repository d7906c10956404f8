package schema

import "strings"

// CustomField is an ad-hoc column/value pair added by the user.
type CustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (f CustomField) Empty() bool {
	return strings.TrimSpace(f.Value) == ""
}
