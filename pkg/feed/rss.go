package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/HapppyEnd/aibot/internal/model"
)

const userAgent = "aibot/1.0"

// RSSFetcher pulls items from an RSS 2.0 or Atom feed.
type RSSFetcher struct {
	client *http.Client
}

func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{client: &http.Client{Timeout: 30 * time.Second}}
}

func (f *RSSFetcher) Fetch(ctx context.Context, source *model.Source) []Item {
	raw, err := fetchBody(ctx, f.client, source.URL)
	if err != nil {
		slog.Error("error fetching feed", "source", source.Name, "error", err)
		return nil
	}

	items := parseRSS(raw)
	if len(items) == 0 {
		items = parseAtom(raw)
	}
	return items
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
			PubDate     string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

type atomFeed struct {
	Entries []struct {
		Title string `xml:"title"`
		Link  struct {
			Href string `xml:"href,attr"`
		} `xml:"link"`
		Summary   string `xml:"summary"`
		Content   string `xml:"content"`
		Published string `xml:"published"`
		Updated   string `xml:"updated"`
	} `xml:"entry"`
}

func parseRSS(raw []byte) []Item {
	var feed rssFeed
	if err := xml.Unmarshal(raw, &feed); err != nil {
		return nil
	}

	var items []Item
	for _, entry := range feed.Channel.Items {
		items = append(items, Item{
			Title:       strings.TrimSpace(entry.Title),
			URL:         strings.TrimSpace(entry.Link),
			Summary:     strings.TrimSpace(entry.Description),
			PublishedAt: parseFeedTime(entry.PubDate),
		})
	}
	return items
}

func parseAtom(raw []byte) []Item {
	var feed atomFeed
	if err := xml.Unmarshal(raw, &feed); err != nil {
		return nil
	}

	var items []Item
	for _, entry := range feed.Entries {
		published := entry.Published
		if published == "" {
			published = entry.Updated
		}
		items = append(items, Item{
			Title:       strings.TrimSpace(entry.Title),
			URL:         strings.TrimSpace(entry.Link.Href),
			Summary:     strings.TrimSpace(entry.Summary),
			RawText:     strings.TrimSpace(entry.Content),
			PublishedAt: parseFeedTime(published),
		})
	}
	return items
}

var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

func parseFeedTime(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func fetchBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}
