package providers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sources.yaml")
	content := `
sources:
  - id: nltimes
    name: NL Times
    type: rss
    source_url: https://nltimes.nl/rssfeed2
    config:
      user_agent: feedbot
  - id: dutchnews
    name: Dutch News
    source_url: https://www.dutchnews.nl/feed/
    enabled: false
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(reg.All()))
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "nltimes" {
		t.Fatalf("expected only nltimes enabled, got %#v", enabled)
	}

	p, ok := reg.ByID("dutchnews")
	if !ok {
		t.Fatalf("expected source id dutchnews to be loaded")
	}
	if p.Type != TypeRSS {
		t.Fatalf("expected default type rss, got %q", p.Type)
	}
	if got := ConfigString(enabled[0], ConfigUserAgentKey, ""); got != "feedbot" {
		t.Fatalf("unexpected user agent %q", got)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sources.json")
	content := `{"sources":[{"id":"a","name":"A","type":"rss","source_url":"https://a.example/feed"}]}`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if len(reg.Enabled()) != 1 {
		t.Fatalf("expected 1 source, got %d", len(reg.Enabled()))
	}
}

func TestLoadRegistryDefaultsWhenPathEmpty(t *testing.T) {
	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	all := reg.Enabled()
	if len(all) != 2 {
		t.Fatalf("expected 2 built-in sources, got %d", len(all))
	}
	if all[0].SourceURL != "https://nltimes.nl/rssfeed2" || all[1].SourceURL != "https://www.dutchnews.nl/feed/" {
		t.Fatalf("unexpected built-in sources %#v", all)
	}
}

func TestLoadRegistryDuplicateID(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sources.yaml")
	content := `
sources:
  - id: duplicate
    name: Source One
    source_url: https://p1.example
  - id: duplicate
    name: Source Two
    source_url: https://p2.example
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}

	if _, err := LoadRegistry(file); err == nil {
		t.Fatalf("expected duplicate source error, got nil")
	}
}

func TestNewRegistryRejectsBadURL(t *testing.T) {
	_, err := NewRegistry([]Provider{{ID: "x", Name: "X", SourceURL: "ftp://x.example/feed"}})
	if err == nil {
		t.Fatalf("expected scheme validation error")
	}
}

func TestHeadersDefaultsAccept(t *testing.T) {
	h := Headers(Provider{ID: "x"})
	if h["Accept"] != defaultFeedAccept {
		t.Fatalf("unexpected Accept %q", h["Accept"])
	}
	if _, ok := h["User-Agent"]; ok {
		t.Fatalf("User-Agent should only be set when configured")
	}
}
