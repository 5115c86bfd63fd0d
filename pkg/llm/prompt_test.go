package llm

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/HapppyEnd/aibot/internal/model"
)

func TestBuildNewsText(t *testing.T) {
	item := &model.NewsItem{
		Title:   "Headline",
		Summary: "Short summary.",
		RawText: "Full body text.",
	}

	got := BuildNewsText(item)

	assert.Equal(t, true, strings.HasPrefix(got, "Headline"))
	assert.Equal(t, true, strings.Contains(got, "Short summary."))
	assert.Equal(t, true, strings.Contains(got, "Full body text."))
}

func TestBuildNewsText_TitleOnly(t *testing.T) {
	item := &model.NewsItem{Title: "Just a headline"}

	assert.Equal(t, "Just a headline", BuildNewsText(item))
}
