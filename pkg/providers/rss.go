package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
)

// rssFetcher downloads a feed with the shared HTTP client and parses it with gofeed.
// gofeed also understands Atom and JSON feeds, so those work as type "rss" too.
type rssFetcher struct {
	client HTTPClient
	parser *gofeed.Parser
}

// NewRSSFetcher builds the fetcher for TypeRSS sources.
func NewRSSFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient(DefaultHTTPTimeout)
	}
	return &rssFetcher{
		client: client,
		parser: gofeed.NewParser(),
	}
}

func (f *rssFetcher) ID() string {
	return TypeRSS
}

func (f *rssFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.Entry, error) {
	if !strings.EqualFold(cfg.Type, TypeRSS) {
		return nil, fmt.Errorf("rss fetcher received incompatible source type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("source %q source_url is empty", cfg.ID)
	}

	raw, err := download(ctx, f.client, cfg.SourceURL, cfg.ID, Headers(cfg))
	if err != nil {
		return nil, err
	}

	feed, err := f.parser.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s feed: %w", cfg.ID, err)
	}

	return entriesFromFeed(feed), nil
}

func entriesFromFeed(feed *gofeed.Feed) []domain.Entry {
	if feed == nil {
		return nil
	}

	entries := make([]domain.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		desc := item.Description
		if strings.TrimSpace(desc) == "" {
			desc = item.Content
		}

		entry := domain.Entry{
			ID:          entryIdentity(item.GUID, item.Link),
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Description: StripHTML(desc),
		}
		if item.PublishedParsed != nil {
			entry.PublishedAt = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			entry.PublishedAt = item.UpdatedParsed.UTC()
		}

		entries = append(entries, entry)
	}
	return entries
}
