package spamcheck

import (
	"strconv"
	"time"
)

// DefaultTimingField carries the Unix timestamp at which the form was rendered
const DefaultTimingField = "_form_token_time"

// DefaultMinSubmitTime is the minimum plausible human completion time
const DefaultMinSubmitTime = 3 * time.Second

// TimingCheck rejects submissions completed faster than a human plausibly
// could. The form embeds its render timestamp in a hidden field; too small an
// elapsed time indicates automation.
type TimingCheck struct {
	field         string
	minSubmitTime time.Duration
}

// NewTimingCheck creates a timing check. An empty field name or a negative
// minimum selects the defaults; a zero minimum disables the check.
func NewTimingCheck(field string, minSubmitTime time.Duration) *TimingCheck {
	if field == "" {
		field = DefaultTimingField
	}
	if minSubmitTime < 0 {
		minSubmitTime = DefaultMinSubmitTime
	}
	return &TimingCheck{field: field, minSubmitTime: minSubmitTime}
}

// Validate returns true when the check is disabled, the timing field is
// absent, or at least the minimum submit time elapsed since the form was
// rendered. A present but non-numeric value fails.
func (c *TimingCheck) Validate(values map[string]string, now time.Time) bool {
	if c.minSubmitTime == 0 {
		return true
	}
	v, ok := values[c.field]
	if !ok {
		return true
	}

	loadTime, err := strconv.ParseInt(v, 10, 64)
	if err != nil || loadTime <= 0 {
		return false
	}

	elapsed := now.Unix() - loadTime
	return elapsed >= int64(c.minSubmitTime/time.Second)
}

// Field returns the configured timing field name
func (c *TimingCheck) Field() string {
	return c.field
}
