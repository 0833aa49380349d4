package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v2"
)

// GoogleConfig configures the Cloud Translation v2 client.
type GoogleConfig struct {
	APIKey string
	// Source is the source language code; empty lets the API detect it.
	Source string
	// Endpoint overrides the API base URL, e.g. for a test server.
	Endpoint string
}

// Google translates through the Cloud Translation v2 REST API using an API key.
type Google struct {
	svc    *translate.Service
	source string
}

// NewGoogle builds a Google translator. A missing API key is rejected here so it surfaces at
// startup rather than on the first call.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("google translate api key is empty")
	}

	opts := []option.ClientOption{option.WithAPIKey(key)}
	if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
		if !strings.HasSuffix(ep, "/") {
			ep += "/"
		}
		opts = append(opts, option.WithEndpoint(ep))
	}

	svc, err := translate.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate service: %w", err)
	}
	return &Google{svc: svc, source: strings.TrimSpace(cfg.Source)}, nil
}

// Translate sends text to the API. Whitespace-only text is returned as-is without a call.
func (g *Google) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if strings.TrimSpace(target) == "" {
		return "", errors.New("target language is empty")
	}

	req := &translate.TranslateTextRequest{
		Q:      []string{text},
		Target: target,
		Format: "text",
		Source: g.source,
	}
	resp, err := g.svc.Translations.Translate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	if resp == nil || len(resp.Translations) == 0 || resp.Translations[0] == nil {
		return "", errors.New("google translate: empty response")
	}
	return quoteEntities.Replace(resp.Translations[0].TranslatedText), nil
}

// Even with format=text the API escapes quotes. Other entities are left alone so
// literal source text such as "&lt;" survives.
var quoteEntities = strings.NewReplacer(
	"&#39;", "'",
	"&#x27;", "'",
	"&#34;", `"`,
	"&quot;", `"`,
)
