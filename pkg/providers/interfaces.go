package providers

import (
	"context"

	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
	"github.com/samvad-hq/samvad-feed-translator/pkg/httpclient"
)

// Fetcher retrieves the raw entries of one source feed.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.Entry, error)
}

// FetcherRegistry resolves the fetcher implementation for a given source config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client
