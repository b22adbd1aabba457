package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/pevans/headlines"
)

// FeedReader turns an RSS or Atom feed into a headline mapping. gofeed
// detects the format, so both are handled the same way.
type FeedReader struct {
	parser *gofeed.Parser
}

// NewFeedReader creates a FeedReader that shares the Extractor's client and
// user agent.
func NewFeedReader(opts ...Option) *FeedReader {
	e := NewExtractor(opts...)

	fp := gofeed.NewParser()
	fp.Client = e.client
	fp.UserAgent = e.userAgent

	return &FeedReader{parser: fp}
}

// Read fetches feedURL and maps each item's title to its link. Items without
// a title or link are skipped; repeated titles keep the later link.
func (r *FeedReader) Read(ctx context.Context, feedURL string) (*headlines.Headlines, error) {
	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse feed: %w", ErrFetch, err)
	}
	return FeedToHeadlines(feed), nil
}

// FeedToHeadlines converts parsed feed items to a headline mapping.
func FeedToHeadlines(feed *gofeed.Feed) *headlines.Headlines {
	result := headlines.NewHeadlines()
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}
		result.Set(title, link)
	}
	return result
}
