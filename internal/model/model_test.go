package model

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestNewsID_Deterministic(t *testing.T) {
	id1 := NewsID("https://example.com/article/1", "Some headline")
	id2 := NewsID("https://example.com/article/1", "A different headline")

	assert.Equal(t, id1, id2)
	assert.Equal(t, 32, len(id1))
}

func TestNewsID_TitleFallback(t *testing.T) {
	id1 := NewsID("", "Breaking news")
	id2 := NewsID("", "Breaking news")
	other := NewsID("", "Other news")

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, other)
}

func TestNewsID_URLWinsOverTitle(t *testing.T) {
	withURL := NewsID("https://example.com/a", "Title")
	titleOnly := NewsID("", "Title")

	assert.NotEqual(t, withURL, titleOnly)
}

func TestURLHash(t *testing.T) {
	assert.Equal(t, "", URLHash(""))

	h1 := URLHash("https://example.com/a")
	h2 := URLHash("https://example.com/a")
	assert.Equal(t, h1, h2)
	assert.Equal(t, 32, len(h1))
	assert.NotEqual(t, h1, URLHash("https://example.com/b"))
}
