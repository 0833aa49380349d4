package providers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-feed-translator/pkg/httpclient"
)

type stubResponse struct {
	body   string
	status int
}

func (s stubResponse) Body() []byte         { return []byte(s.body) }
func (s stubResponse) StatusCode() int      { return s.status }
func (s stubResponse) Header(string) string { return "" }

type stubClient struct {
	resp    stubResponse
	err     error
	gotURL  string
	headers map[string]string
}

func (s *stubClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	s.gotURL = url
	s.headers = headers
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>NL Times</title>
  <link>https://nltimes.nl</link>
  <item>
    <title> Rain expected in Amsterdam </title>
    <link>https://nltimes.nl/2025/01/02/rain</link>
    <guid isPermaLink="false">nltimes-123</guid>
    <description><![CDATA[<p>Heavy <b>rain</b> tomorrow.</p>]]></description>
    <pubDate>Thu, 02 Jan 2025 10:00:00 +0100</pubDate>
  </item>
  <item>
    <title>Train strike</title>
    <link>https://nltimes.nl/2025/01/02/strike</link>
    <description>No trains</description>
  </item>
</channel>
</rss>`

func TestRSSFetcherFetchSuccess(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: sampleFeed, status: 200}}
	fetcher := NewRSSFetcher(client)

	entries, err := fetcher.Fetch(context.Background(), Provider{
		ID:        "nltimes",
		Type:      TypeRSS,
		SourceURL: "https://nltimes.nl/rssfeed2",
		Config:    map[string]any{ConfigUserAgentKey: "UA"},
	})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if client.gotURL != "https://nltimes.nl/rssfeed2" {
		t.Fatalf("unexpected url %q", client.gotURL)
	}
	if client.headers["User-Agent"] != "UA" {
		t.Fatalf("expected configured user agent, got %#v", client.headers)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.ID != "nltimes-123" {
		t.Errorf("expected guid identity, got %q", first.ID)
	}
	if first.Title != "Rain expected in Amsterdam" {
		t.Errorf("expected trimmed title, got %q", first.Title)
	}
	if first.Description != "Heavy rain tomorrow." {
		t.Errorf("expected stripped description, got %q", first.Description)
	}
	want := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Errorf("expected published %v, got %v", want, first.PublishedAt)
	}

	second := entries[1]
	if second.ID != "https://nltimes.nl/2025/01/02/strike" {
		t.Errorf("expected link fallback identity, got %q", second.ID)
	}
	if !second.PublishedAt.IsZero() {
		t.Errorf("expected zero published time, got %v", second.PublishedAt)
	}
}

func TestRSSFetcherRejectsNon200(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: "gone", status: 503}}
	_, err := NewRSSFetcher(client).Fetch(context.Background(), Provider{ID: "x", Type: TypeRSS, SourceURL: "https://x.example"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestRSSFetcherRejectsMalformedFeed(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: "<html><body>not a feed</body></html>", status: 200}}
	_, err := NewRSSFetcher(client).Fetch(context.Background(), Provider{ID: "x", Type: TypeRSS, SourceURL: "https://x.example"})
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRSSFetcherPropagatesTransportError(t *testing.T) {
	client := &stubClient{err: errors.New("dial tcp: refused")}
	_, err := NewRSSFetcher(client).Fetch(context.Background(), Provider{ID: "x", Type: TypeRSS, SourceURL: "https://x.example"})
	if err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestRSSFetcherRejectsOtherTypes(t *testing.T) {
	_, err := NewRSSFetcher(&stubClient{}).Fetch(context.Background(), Provider{ID: "x", Type: "sitemap", SourceURL: "https://x.example"})
	if err == nil {
		t.Fatal("expected error for mismatched source type")
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello</p>", "Hello"},
		{"<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"No tags here", "No tags here"},
		{"<div>  Multiple   spaces  </div>", "Multiple spaces"},
		{"", ""},
		{"Fish &amp; chips", "Fish & chips"},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.input); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
