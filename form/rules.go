// Package form holds the add-record form: its fields, validation rules and
// the merge of user supplied custom fields into the record.
package form

import "regexp"

const MaxCustomFields = 5

type Rule struct {
	Required bool
	Pattern  *regexp.Regexp
	Message  string
}

const requiredMessage = "required field"

var (
	numberRule = Rule{
		Pattern: regexp.MustCompile(`^\d{1,10}$`),
		Message: "must be a number, up to 10 digits",
	}
	stringRule = Rule{
		Pattern: regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ0-9-]{1,23}$`),
		Message: "letters, digits and hyphen only, up to 23 characters",
	}
	emailRule = Rule{
		Pattern: regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`),
		Message: "must be a valid email",
	}
	fieldNameRule = Rule{
		Required: true,
		Pattern:  regexp.MustCompile(`^[a-zA-Z0-9]{1,23}$`),
		Message:  "latin letters and digits only, up to 23 characters",
	}
)

func required(r Rule) Rule {
	r.Required = true
	return r
}

type FieldSpec struct {
	Name        string
	Label       string
	Placeholder string
	Rule        Rule
}

// Fields is the fixed part of the form, in display order.
var Fields = []FieldSpec{
	{Name: "id", Label: "Id", Placeholder: "Enter id", Rule: required(numberRule)},
	{Name: "name", Label: "Name", Placeholder: "Enter name", Rule: required(stringRule)},
	{Name: "status", Label: "Status", Placeholder: "Enter status", Rule: required(stringRule)},
	{Name: "schet", Label: "Account number", Placeholder: "Enter account number", Rule: required(numberRule)},
	{Name: "email", Label: "Email", Placeholder: "Enter email", Rule: required(emailRule)},

	{Name: "country", Label: "Country", Placeholder: "Enter country", Rule: stringRule},
	{Name: "city", Label: "City", Placeholder: "Enter city", Rule: stringRule},
	{Name: "street", Label: "Street", Placeholder: "Enter street", Rule: stringRule},
	{Name: "house_number", Label: "House number", Placeholder: "Enter house number", Rule: numberRule},
	{Name: "flat_number", Label: "Flat number", Placeholder: "Enter flat number", Rule: numberRule},
}

func FieldByName(name string) (FieldSpec, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Check returns the message for an invalid value, empty when valid.
func (r Rule) Check(value string) string {

	if value == "" {
		if r.Required {
			return requiredMessage
		}
		return ""
	}

	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		return r.Message
	}

	return ""
}
