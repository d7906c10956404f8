package form

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dot5enko/simple-record-grid/schema"
	"github.com/shestakovda/errx"
)

var (
	ErrValidation          = errx.New("record validation failed")
	ErrTooManyCustomFields = errx.New("too many custom fields")
)

// FieldErrors maps a field key to its inline message. Custom fields use
// the keys returned by CustomNameKey and CustomValueKey.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {

	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}

	return strings.Join(parts, "; ")
}

func CustomNameKey(i int) string  { return fmt.Sprintf("custom.%d.name", i) }
func CustomValueKey(i int) string { return fmt.Sprintf("custom.%d.value", i) }

type Value struct {
	Name  string
	Value string
}

// Submission is what the form hands over on submit.
type Submission struct {
	Fields []Value
	Custom []schema.CustomField
}

func (s Submission) Get(name string) string {
	for _, v := range s.Fields {
		if v.Name == name {
			return v.Value
		}
	}
	return ""
}

// Validate runs every field rule. The result is nil when the form is valid.
func Validate(s Submission) FieldErrors {

	errs := FieldErrors{}

	for _, field := range Fields {
		if msg := field.Rule.Check(strings.TrimSpace(s.Get(field.Name))); msg != "" {
			errs[field.Name] = msg
		}
	}

	for name, msg := range ValidateCustom(s.Custom) {
		errs[name] = msg
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateCustom checks custom field names; values are free text.
func ValidateCustom(custom []schema.CustomField) FieldErrors {

	errs := FieldErrors{}

	for i, f := range custom {
		if msg := fieldNameRule.Check(strings.TrimSpace(f.Name)); msg != "" {
			errs[CustomNameKey(i)] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// CheckCustom is the part of validation the add-record flow enforces itself
// before any request leaves the client.
func CheckCustom(custom []schema.CustomField) error {

	if len(custom) > MaxCustomFields {
		return ErrValidation.WithReason(ErrTooManyCustomFields).WithDebug(errx.Debug{
			"count": len(custom),
			"max":   MaxCustomFields,
		})
	}

	if errs := ValidateCustom(custom); errs != nil {
		return ErrValidation.WithReason(errs)
	}

	return nil
}

// Record turns the fixed fields into a record, dropping empty values.
func (s Submission) Record() schema.Record {

	record := schema.Record{}

	for _, v := range s.Fields {
		if value := strings.TrimSpace(v.Value); value != "" {
			record[v.Name] = value
		}
	}

	return record
}

// Order lists the non-empty field names in form order, custom fields last.
func (s Submission) Order() []string {

	var order []string

	for _, v := range s.Fields {
		if strings.TrimSpace(v.Value) != "" {
			order = append(order, v.Name)
		}
	}

	for _, f := range s.Custom {
		if !f.Empty() {
			order = append(order, strings.TrimSpace(f.Name))
		}
	}

	return order
}

// Merge adds the custom fields to a copy of the record and drops every
// empty value. keys is the order new columns should be introduced in:
// record keys sorted, then custom fields as given.
func Merge(record schema.Record, custom []schema.CustomField) (merged schema.Record, keys []string) {

	merged = schema.Record{}

	for _, k := range record.Keys() {
		if value := strings.TrimSpace(record[k]); value != "" {
			merged[k] = value
			keys = append(keys, k)
		}
	}

	for _, f := range custom {
		if f.Empty() {
			continue
		}

		name := strings.TrimSpace(f.Name)

		if _, exists := merged[name]; !exists {
			keys = append(keys, name)
		}
		merged[name] = strings.TrimSpace(f.Value)
	}

	return merged, keys
}
