package feedwriter

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
)

type rssDoc struct {
	Channel struct {
		Title       string `xml:"title"`
		Link        string `xml:"link"`
		Description string `xml:"description"`
		Language    string `xml:"language"`
		PubDate     string `xml:"pubDate"`
		Items       []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
			GUID        struct {
				Value       string `xml:",chardata"`
				IsPermaLink string `xml:"isPermaLink,attr"`
			} `xml:"guid"`
			PubDate string `xml:"pubDate"`
			Author  string `xml:"author"`
		} `xml:"item"`
	} `xml:"channel"`
}

func testChannel() Channel {
	return Channel{
		Title:       "荷兰新闻",
		Link:        "https://xinwen.nl/",
		Description: "最新鲜的荷兰本地新闻",
		Language:    "zh-CN",
	}
}

func testArticles() []domain.Article {
	return []domain.Article{
		{
			ID:            "https://nltimes.nl/1",
			SourceID:      "nltimes",
			SourceName:    "NL Times",
			SourceTitle:   "Rain & wind",
			Translation:   &domain.Translation{Language: "zh", Title: "雨和风", Description: "明天 <b>下雨</b>"},
			Link:          "https://nltimes.nl/1",
			TranslateLink: "https://translate.google.com/translate?sl=en&tl=zh&u=https%3A%2F%2Fnltimes.nl%2F1",
			PublishedAt:   time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:          "pending",
			SourceTitle: "Not yet",
			PublishedAt: time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC),
		},
		{
			ID:          "dn-2",
			SourceID:    "dutchnews",
			SourceName:  "Dutch News",
			SourceTitle: "Trains",
			Translation: &domain.Translation{Language: "zh", Title: "火车"},
			Link:        "https://www.dutchnews.nl/2",
			PublishedAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		},
	}
}

func parse(t *testing.T, data []byte) rssDoc {
	t.Helper()
	var doc rssDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal rss: %v\n%s", err, data)
	}
	return doc
}

func TestRenderChannelAndItems(t *testing.T) {
	out, err := Render(testChannel(), testArticles())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte(xml.Header+"<rss")) {
		t.Fatalf("expected xml header on its own line, got %q", out[:45])
	}

	doc := parse(t, out)
	ch := doc.Channel
	if ch.Title != "荷兰新闻" || ch.Link != "https://xinwen.nl/" || ch.Language != "zh-CN" {
		t.Fatalf("unexpected channel %+v", ch)
	}
	if ch.PubDate != "Mon, 10 Mar 2025 09:00:00 +0000" {
		t.Fatalf("expected newest item time as pubDate, got %q", ch.PubDate)
	}
	if len(ch.Items) != 2 {
		t.Fatalf("expected untranslated article skipped, got %d items", len(ch.Items))
	}

	first := ch.Items[0]
	if first.Title != "雨和风" || first.GUID.Value != "https://nltimes.nl/1" || first.Link != "https://nltimes.nl/1" {
		t.Fatalf("unexpected first item %+v", first)
	}
	if first.Description != "明天 <b>下雨</b>" {
		t.Fatalf("description not escaped round trip: %q", first.Description)
	}
	if first.GUID.IsPermaLink != "" {
		t.Fatalf("url guid should keep the default permalink, got %q", first.GUID.IsPermaLink)
	}
	if first.Author != "nltimes@nltimes.nl (NL Times)" {
		t.Fatalf("expected email and source name as author, got %q", first.Author)
	}

	second := ch.Items[1]
	if second.Description != "火车" {
		t.Fatalf("expected title fallback for empty description, got %q", second.Description)
	}
	if second.GUID.Value != "dn-2" || second.GUID.IsPermaLink != "false" {
		t.Fatalf("expected non-url guid marked isPermaLink=false, got %+v", second.GUID)
	}
	if second.Author != "dutchnews@dutchnews.nl (Dutch News)" {
		t.Fatalf("unexpected author %q", second.Author)
	}
}

func TestRenderUsesTranslateLinkWhenEnabled(t *testing.T) {
	ch := testChannel()
	ch.UseTranslateLink = true

	out, err := Render(ch, testArticles())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	items := parse(t, out).Channel.Items
	if !strings.HasPrefix(items[0].Link, "https://translate.google.com/translate?") {
		t.Fatalf("expected proxy link, got %q", items[0].Link)
	}
	// No proxy link stored: keep the original.
	if items[1].Link != "https://www.dutchnews.nl/2" {
		t.Fatalf("expected original link fallback, got %q", items[1].Link)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	a, err := Render(testChannel(), testArticles())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := Render(testChannel(), testArticles())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("render output differs between calls")
	}
}

func TestRenderEmptyCollection(t *testing.T) {
	out, err := Render(testChannel(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := parse(t, out)
	if len(doc.Channel.Items) != 0 || doc.Channel.Title == "" {
		t.Fatalf("unexpected empty feed %+v", doc.Channel)
	}
}

func TestWriteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gh-pages", "rss.xml")
	if err := WriteFile(path, []byte("<rss/>\n")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "<rss/>\n" {
		t.Fatalf("unexpected content %q", got)
	}
}
