package spamcheck

import "strings"

// DefaultHoneypotField is the hidden field bots tend to fill in
const DefaultHoneypotField = "email_confirm"

// HoneypotCheck rejects submissions where the hidden honeypot field carries a
// value. Humans never see the field; a non-blank value indicates automation.
type HoneypotCheck struct {
	field string
}

// NewHoneypotCheck creates a honeypot check for the given field name. An
// empty name selects the default.
func NewHoneypotCheck(field string) *HoneypotCheck {
	if field == "" {
		field = DefaultHoneypotField
	}
	return &HoneypotCheck{field: field}
}

// Validate returns true when the honeypot field is absent or blank
func (c *HoneypotCheck) Validate(values map[string]string) bool {
	v, ok := values[c.field]
	if !ok {
		return true
	}
	return strings.TrimSpace(v) == ""
}

// Field returns the configured honeypot field name
func (c *HoneypotCheck) Field() string {
	return c.field
}
