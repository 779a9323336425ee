// Package validation collects field-level violations for write requests.
//
// Validation never short-circuits: every check runs and every violation is
// reported in one response, so a client can fix a bad request in a single
// round trip.
package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

// Collector accumulates field violations across a request.
type Collector struct {
	violations []string
}

// Add records a violation for a field.
func (c *Collector) Add(field, message string) {
	c.violations = append(c.violations, fmt.Sprintf("%s: %s", field, message))
}

// Addf records a formatted violation for a field.
func (c *Collector) Addf(field, format string, args ...any) {
	c.Add(field, fmt.Sprintf(format, args...))
}

// Require records a violation when value is empty or whitespace.
func (c *Collector) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.Add(field, "is required")
	}
}

// Email records a violation when value is not a parseable address. An empty
// value is left to Require.
func (c *Collector) Email(field, value string) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		c.Add(field, "must be a valid email address")
	}
}

// MinLength records a violation when value is shorter than min characters.
func (c *Collector) MinLength(field, value string, min int) {
	if value != "" && len(value) < min {
		c.Addf(field, "must be at least %d characters", min)
	}
}

// Range records a violation when value falls outside [min, max].
func (c *Collector) Range(field string, value, min, max int) {
	if value < min || value > max {
		c.Addf(field, "must be between %d and %d", min, max)
	}
}

// OneOf records a violation when value is not one of the allowed choices,
// determined by the valid predicate.
func (c *Collector) OneOf(field, value string, valid bool, choices ...string) {
	if value != "" && !valid {
		c.Addf(field, "must be one of: %s", strings.Join(choices, ", "))
	}
}

// Ok reports whether no violations were recorded.
func (c *Collector) Ok() bool {
	return len(c.violations) == 0
}

// Violations returns the recorded violations in insertion order.
func (c *Collector) Violations() []string {
	return c.violations
}
