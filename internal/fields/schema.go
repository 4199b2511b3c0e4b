package fields

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"contact-form-service-go/internal/config"
	"contact-form-service-go/internal/model"
)

// Field declares one form field of the contact schema
type Field struct {
	Name      string
	Type      string // text, textarea, email, tel
	Required  bool
	MaxLength int
}

// Schema is the declarative description of the contact form fields. The
// submission pipeline uses it to extract and validate user data; hidden
// infrastructure fields (honeypot, timing, CSRF token) are never extracted.
type Schema struct {
	fields   []Field
	reserved map[string]bool
}

// ValidationError reports per-field validation problems
type ValidationError struct {
	Problems map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Problems))
	for name := range e.Problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid fields: %s", strings.Join(names, ", "))
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// DefaultFields is the schema used when none is configured
func DefaultFields() []Field {
	return []Field{
		{Name: "name", Type: "text", Required: true, MaxLength: 100},
		{Name: "email", Type: "email", Required: true, MaxLength: 255},
		{Name: "subject", Type: "text", Required: true, MaxLength: 200},
		{Name: "message", Type: "textarea", Required: true, MaxLength: 5000},
	}
}

// NewSchema creates a schema from the given fields, keeping their order. The
// reserved names are excluded from extraction regardless of the field list.
func NewSchema(fieldList []Field, reserved ...string) *Schema {
	if len(fieldList) == 0 {
		fieldList = DefaultFields()
	}
	r := make(map[string]bool, len(reserved)+1)
	r["_token"] = true
	for _, name := range reserved {
		if name != "" {
			r[name] = true
		}
	}
	return &Schema{fields: fieldList, reserved: r}
}

// FromConfig builds a schema from the configured field list
func FromConfig(cfgs []config.FieldConfig, reserved ...string) *Schema {
	fieldList := make([]Field, 0, len(cfgs))
	for _, c := range cfgs {
		fieldList = append(fieldList, Field{
			Name:      c.Name,
			Type:      c.Type,
			Required:  c.Required,
			MaxLength: c.MaxLength,
		})
	}
	return NewSchema(fieldList, reserved...)
}

// Fields returns the declared fields in order
func (s *Schema) Fields() []Field {
	return s.fields
}

// Extract validates the submitted values against the schema and returns the
// form data to carry on the message. Reserved infrastructure fields are
// dropped; unknown extra fields are kept as-is so custom form fields survive.
func (s *Schema) Extract(values map[string]string) (model.FormData, error) {
	problems := make(map[string]string)
	data := make(model.FormData, len(values))

	for _, f := range s.fields {
		v := strings.TrimSpace(values[f.Name])
		if v == "" {
			if f.Required {
				problems[f.Name] = "required"
			}
			continue
		}
		if f.MaxLength > 0 && len(v) > f.MaxLength {
			problems[f.Name] = "too long"
			continue
		}
		if f.Type == "email" && !emailRe.MatchString(v) {
			problems[f.Name] = "invalid email address"
			continue
		}
		data[f.Name] = v
	}

	declared := make(map[string]bool, len(s.fields))
	for _, f := range s.fields {
		declared[f.Name] = true
	}
	for name, v := range values {
		if name == "" || declared[name] || s.reserved[name] {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			data[name] = v
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return data, nil
}
