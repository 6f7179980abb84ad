package harm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectTriggers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"upper case trigger", "I want to KILL this bug", true},
		{"substring over-trigger", "a harmless picnic", true},
		{"hyphenated entry", "notes on self-harm", true},
		{"mixed case inside word", "the ExPloitation of labour", true},
		{"clean text", "where can I buy candles?", false},
		{"empty", "", false},
		{"no unicode folding", "ＫＩＬＬ", false},
		{"no stemming beyond substring", "murdering", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectTriggers(tt.text))
		})
	}
}

func TestMatchedTriggers(t *testing.T) {
	assert.Equal(t, []string{"harm", "self-harm"}, MatchedTriggers("Self-Harm"))
	assert.Nil(t, MatchedTriggers("candles"))
}

func TestMatchedFormTriggers(t *testing.T) {
	fields := map[string]any{
		"bio":   "an ATTACK on the castle",
		"note":  "another attack, with a weapon",
		"count": 3,
		"list":  []any{"kill"},
	}
	assert.Equal(t, []string{"weapon", "attack"}, MatchedFormTriggers(fields))
	assert.Nil(t, MatchedFormTriggers(map[string]any{"count": 3}))
}

func TestScanForm(t *testing.T) {
	t.Run("any triggering string field", func(t *testing.T) {
		assert.True(t, ScanForm(map[string]any{"name": "Ada", "bio": "I sell weapons"}))
	})

	t.Run("non-string values are ignored", func(t *testing.T) {
		assert.False(t, ScanForm(map[string]any{
			"count":  3,
			"nested": map[string]any{"x": "attack"},
			"list":   []any{"kill"},
			"flag":   true,
			"none":   nil,
		}))
	})

	t.Run("empty form", func(t *testing.T) {
		assert.False(t, ScanForm(nil))
		assert.False(t, ScanForm(map[string]any{}))
	})
}
