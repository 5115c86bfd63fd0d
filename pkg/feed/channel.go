package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/HapppyEnd/aibot/internal/model"
)

const channelPreviewURL = "https://t.me/s/%s"

// ChannelFetcher reads a public Telegram channel through its web
// preview page, which needs no API credentials. The source URL (or
// name) is the channel handle, with or without the leading @.
type ChannelFetcher struct {
	client *http.Client
	limit  int
}

func NewChannelFetcher(limit int) *ChannelFetcher {
	return &ChannelFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		limit:  limit,
	}
}

func (f *ChannelFetcher) Fetch(ctx context.Context, source *model.Source) []Item {
	handle := channelHandle(source)
	if handle == "" {
		slog.Error("channel source has no handle", "source", source.Name)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf(channelPreviewURL, handle), nil)
	if err != nil {
		slog.Error("error building preview request", "channel", handle, "error", err)
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Error("error fetching channel preview", "channel", handle, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("unexpected preview status", "channel", handle, "status", resp.StatusCode)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Error("error parsing channel preview", "channel", handle, "error", err)
		return nil
	}

	var items []Item
	doc.Find(".tgme_widget_message_wrap").Each(func(_ int, msg *goquery.Selection) {
		if f.limit > 0 && len(items) >= f.limit {
			return
		}

		text := strings.TrimSpace(msg.Find(".tgme_widget_message_text").First().Text())
		if text == "" {
			return
		}

		link, _ := msg.Find("a.tgme_widget_message_date").First().Attr("href")
		published, _ := msg.Find("a.tgme_widget_message_date time").First().Attr("datetime")

		items = append(items, Item{
			Title:       messageTitle(text),
			URL:         strings.TrimSpace(link),
			RawText:     text,
			PublishedAt: parsePreviewTime(published),
		})
	})
	return items
}

// messageTitle takes the first line of the message, clipped so a long
// unbroken message still yields a usable title.
func messageTitle(text string) string {
	title := text
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	title = strings.TrimSpace(title)

	runes := []rune(title)
	if len(runes) > 120 {
		title = string(runes[:120])
	}
	return title
}

func channelHandle(source *model.Source) string {
	handle := source.URL
	if handle == "" {
		handle = source.Name
	}

	handle = strings.TrimSpace(handle)
	if idx := strings.LastIndexByte(handle, '/'); idx >= 0 {
		handle = handle[idx+1:]
	}
	return strings.TrimPrefix(handle, "@")
}

func parsePreviewTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}
