package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollector_AllViolationsReported(t *testing.T) {
	var c Collector
	c.Require("name", "")
	c.Email("email", "not-an-email")
	c.Range("score", 15, 1, 10)

	assert.False(t, c.Ok())
	assert.Equal(t, []string{
		"name: is required",
		"email: must be a valid email address",
		"score: must be between 1 and 10",
	}, c.Violations())
}

func TestCollector_CleanRequest(t *testing.T) {
	var c Collector
	c.Require("name", "Amina")
	c.Email("email", "amina@example.org")
	c.MinLength("password", "longenough", 6)
	c.Range("score", 7, 1, 10)

	assert.True(t, c.Ok())
	assert.Empty(t, c.Violations())
}

func TestCollector_EmailSkipsEmpty(t *testing.T) {
	var c Collector
	c.Email("email", "")
	assert.True(t, c.Ok())
}

func TestCollector_OneOf(t *testing.T) {
	var c Collector
	c.OneOf("severity", "urgent", false, "low", "medium", "high", "critical")

	assert.Equal(t, []string{"severity: must be one of: low, medium, high, critical"}, c.Violations())

	var ok Collector
	ok.OneOf("severity", "high", true, "low", "medium", "high", "critical")
	assert.True(t, ok.Ok())
}
