package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV("a, b"))
	assert.Equal(t, []string{"a"}, splitCSV("a,,"))
	assert.Nil(t, splitCSV(""))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("X_INT", "42")
	assert.Equal(t, 42, getEnvInt("X_INT", 7))

	t.Setenv("X_INT", "junk")
	assert.Equal(t, 7, getEnvInt("X_INT", 7))

	assert.Equal(t, 7, getEnvInt("X_MISSING", 7))
}
