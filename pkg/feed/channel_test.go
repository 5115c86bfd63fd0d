package feed

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/HapppyEnd/aibot/internal/model"
)

func TestChannelHandle(t *testing.T) {
	cases := map[string]*model.Source{
		"technews": {URL: "https://t.me/technews"},
		"mychan":   {URL: "@mychan"},
		"plain":    {URL: "plain"},
		"fromname": {Name: "@fromname"},
	}

	for want, source := range cases {
		assert.Equal(t, want, channelHandle(source))
	}
}

func TestMessageTitle(t *testing.T) {
	assert.Equal(t, "First line", messageTitle("First line\nsecond line"))
	assert.Equal(t, "Trimmed", messageTitle("  Trimmed  "))

	long := strings.Repeat("x", 200)
	assert.Equal(t, 120, len([]rune(messageTitle(long))))
}

func TestParsePreviewTime(t *testing.T) {
	got := parsePreviewTime("2026-03-02T10:30:00+00:00")
	assert.Equal(t, 2026, got.Year())

	assert.Equal(t, true, parsePreviewTime("").IsZero())
}
