package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponse_ConfidencePrefix(t *testing.T) {
	parsed := ParseResponse("CONF:0.42\nhey what's up")

	assert.Equal(t, 0.42, parsed.Confidence)
	assert.False(t, parsed.Flagged)
	assert.Equal(t, []string{"hey what's up"}, parsed.Segments)
}

func TestParseResponse_NoPrefixDefaultsHigh(t *testing.T) {
	parsed := ParseResponse("no prefix here|||second part")

	assert.Equal(t, DefaultConfidence, parsed.Confidence)
	assert.Equal(t, []string{"no prefix here", "second part"}, parsed.Segments)
}

func TestParseResponse_ConfidenceClamped(t *testing.T) {
	assert.Equal(t, 1.0, ParseResponse("CONF:1.7\nok").Confidence)
	assert.Equal(t, 0.0, ParseResponse("CONF:-0.3\nok").Confidence)
}

func TestParseResponse_UnparseableMarkerFlags(t *testing.T) {
	parsed := ParseResponse("CONF:very sure\nok")

	assert.True(t, parsed.Flagged)
	assert.Equal(t, DefaultConfidence, parsed.Confidence)
	assert.Equal(t, []string{"ok"}, parsed.Segments)
}

func TestParseResponse_MarkerOnly(t *testing.T) {
	parsed := ParseResponse("CONF:0.9")

	assert.Equal(t, 0.9, parsed.Confidence)
	assert.Empty(t, parsed.Segments)
}

func TestParseResponse_DropsEmptySegments(t *testing.T) {
	parsed := ParseResponse("first|||   |||second|||")

	assert.Equal(t, []string{"first", "second"}, parsed.Segments)
}

func TestParseResponse_TrimsSegments(t *testing.T) {
	parsed := ParseResponse("CONF:0.8\n  hey  |||  there  ")

	assert.Equal(t, []string{"hey", "there"}, parsed.Segments)
}

func TestParseResponse_EmptyInput(t *testing.T) {
	parsed := ParseResponse("")

	assert.Equal(t, DefaultConfidence, parsed.Confidence)
	assert.Empty(t, parsed.Segments)
}
