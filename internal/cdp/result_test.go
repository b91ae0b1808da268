package cdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultOK(t *testing.T) {
	assert.True(t, Ok("anything").OK())
	assert.True(t, Ok(nil).OK(), "a null value is still a successful evaluation")
	assert.False(t, Failed().OK())
}

func TestResultTruthy(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   bool
	}{
		{"failed is never truthy", Failed(), false},
		{"null", Ok(nil), false},
		{"false", Ok(false), false},
		{"true", Ok(true), true},
		{"zero", Ok(float64(0)), false},
		{"nonzero number", Ok(float64(1)), true},
		{"empty string", Ok(""), false},
		{"string", Ok("Viewer"), true},
		{"empty array", Ok([]any{}), true},
		{"object", Ok(map[string]any{}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Truthy())
		})
	}
}

func TestResultAsString(t *testing.T) {
	s, ok := Ok("setup-complete").AsString()
	assert.True(t, ok)
	assert.Equal(t, "setup-complete", s)

	_, ok = Ok(float64(3)).AsString()
	assert.False(t, ok)

	_, ok = Failed().AsString()
	assert.False(t, ok)
}

func TestResultAsStrings(t *testing.T) {
	t.Run("array of strings", func(t *testing.T) {
		got, ok := Ok([]any{"a", "b"}).AsStrings()
		assert.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("empty array", func(t *testing.T) {
		got, ok := Ok([]any{}).AsStrings()
		assert.True(t, ok)
		assert.Empty(t, got)
	})

	t.Run("mixed element types", func(t *testing.T) {
		_, ok := Ok([]any{"a", float64(1)}).AsStrings()
		assert.False(t, ok)
	})

	t.Run("not an array", func(t *testing.T) {
		_, ok := Ok("a").AsStrings()
		assert.False(t, ok)
	})

	t.Run("failed", func(t *testing.T) {
		_, ok := Failed().AsStrings()
		assert.False(t, ok)
	})
}
