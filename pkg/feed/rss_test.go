package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/HapppyEnd/aibot/internal/model"
)

const rssPayload = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example feed</title>
    <item>
      <title>First story</title>
      <link>https://example.com/1</link>
      <description>Something happened.</description>
      <pubDate>Mon, 02 Mar 2026 10:30:00 +0000</pubDate>
    </item>
    <item>
      <title>Second story</title>
      <link>https://example.com/2</link>
      <description>Something else.</description>
    </item>
  </channel>
</rss>`

const atomPayload = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Atom story</title>
    <link href="https://example.com/atom/1"/>
    <summary>An atom entry.</summary>
    <updated>2026-03-02T10:30:00Z</updated>
  </entry>
</feed>`

func TestFetch_RSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssPayload))
	}))
	defer srv.Close()

	fetcher := NewRSSFetcher()
	items := fetcher.Fetch(context.Background(), &model.Source{Name: "example", URL: srv.URL})

	assert.Equal(t, 2, len(items))
	assert.Equal(t, "First story", items[0].Title)
	assert.Equal(t, "https://example.com/1", items[0].URL)
	assert.Equal(t, "Something happened.", items[0].Summary)
	assert.Equal(t, 2026, items[0].PublishedAt.Year())
	assert.Equal(t, true, items[1].PublishedAt.IsZero())
}

func TestFetch_Atom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(atomPayload))
	}))
	defer srv.Close()

	fetcher := NewRSSFetcher()
	items := fetcher.Fetch(context.Background(), &model.Source{Name: "example", URL: srv.URL})

	assert.Equal(t, 1, len(items))
	assert.Equal(t, "Atom story", items[0].Title)
	assert.Equal(t, "https://example.com/atom/1", items[0].URL)
	assert.Equal(t, "An atom entry.", items[0].Summary)
}

// An error page is not a feed, even when it parses as zero items.
func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher := NewRSSFetcher()
	items := fetcher.Fetch(context.Background(), &model.Source{Name: "example", URL: srv.URL})

	assert.Equal(t, 0, len(items))
}

func TestFetch_UnreachableSource(t *testing.T) {
	fetcher := NewRSSFetcher()
	items := fetcher.Fetch(context.Background(), &model.Source{Name: "down", URL: "http://127.0.0.1:1/feed"})

	assert.Equal(t, 0, len(items))
}

func TestParseFeedTime(t *testing.T) {
	got := parseFeedTime("Mon, 02 Mar 2026 10:30:00 +0000")
	assert.Equal(t, time.March, got.Month())

	got = parseFeedTime("2026-03-02T10:30:00Z")
	assert.Equal(t, 10, got.Hour())

	assert.Equal(t, true, parseFeedTime("not a date").IsZero())
}
