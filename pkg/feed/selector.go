package feed

import (
	"context"

	"github.com/HapppyEnd/aibot/internal/model"
)

// Selector routes a source to the right fetcher by its type. Site
// sources are tried as a feed first; pages that turn out not to be
// feeds fall back to HTML scraping.
type Selector struct {
	rss     *RSSFetcher
	html    *HTMLFetcher
	channel *ChannelFetcher
}

func NewSelector(channelLimit int) *Selector {
	return &Selector{
		rss:     NewRSSFetcher(),
		html:    NewHTMLFetcher(),
		channel: NewChannelFetcher(channelLimit),
	}
}

func (s *Selector) Fetch(ctx context.Context, source *model.Source) []Item {
	if source.Type == model.SourceTypeChannel {
		return s.channel.Fetch(ctx, source)
	}

	items := s.rss.Fetch(ctx, source)
	if len(items) == 0 {
		items = s.html.Fetch(ctx, source)
	}
	return items
}
