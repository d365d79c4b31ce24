package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"labor", "tax"},
		DedupeAndTrim([]string{"  labor ", "tax", "labor", "", "  "}))

	var empty []string
	assert.Nil(t, DedupeAndTrim(empty))
}

func TestDedupeAndTrimLower(t *testing.T) {
	assert.Equal(t, []string{"labor", "tax"},
		DedupeAndTrimLower([]string{" LABOR ", "tax", "Labor"}))
}
