package feed

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/HapppyEnd/aibot/internal/model"
)

// HTMLFetcher scrapes article listings from plain web pages. It is the
// fallback for site sources whose endpoint is not a feed: it walks
// <article> blocks (or headline links when a page has none) and pulls a
// title, link and teaser out of each.
type HTMLFetcher struct {
	client *http.Client
}

func NewHTMLFetcher() *HTMLFetcher {
	return &HTMLFetcher{client: &http.Client{Timeout: 30 * time.Second}}
}

func (f *HTMLFetcher) Fetch(ctx context.Context, source *model.Source) []Item {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		slog.Error("error building page request", "source", source.Name, "error", err)
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Error("error fetching page", "source", source.Name, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("unexpected page status", "source", source.Name, "status", resp.StatusCode)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Error("error parsing page", "source", source.Name, "error", err)
		return nil
	}

	base, err := url.Parse(source.URL)
	if err != nil {
		base = nil
	}

	items := f.fromArticles(doc, base)
	if len(items) == 0 {
		items = f.fromHeadlines(doc, base)
	}
	return items
}

func (f *HTMLFetcher) fromArticles(doc *goquery.Document, base *url.URL) []Item {
	var items []Item
	doc.Find("article").Each(func(_ int, block *goquery.Selection) {
		title := strings.TrimSpace(block.Find("h1, h2, h3").First().Text())
		if title == "" {
			return
		}

		href, _ := block.Find("a[href]").First().Attr("href")
		items = append(items, Item{
			Title:   title,
			URL:     resolveLink(base, href),
			Summary: strings.TrimSpace(block.Find("p").First().Text()),
		})
	})
	return items
}

// fromHeadlines covers pages built from bare headline links.
func (f *HTMLFetcher) fromHeadlines(doc *goquery.Document, base *url.URL) []Item {
	var items []Item
	doc.Find("h1 a[href], h2 a[href], h3 a[href]").Each(func(_ int, link *goquery.Selection) {
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}

		href, _ := link.Attr("href")
		items = append(items, Item{
			Title: title,
			URL:   resolveLink(base, href),
		})
	})
	return items
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
