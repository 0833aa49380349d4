package feedwriter

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/gorilla/feeds"
	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
)

// Channel describes the RSS channel metadata.
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
	// UseTranslateLink points item links at the translate proxy instead of the original article.
	UseTranslateLink bool
}

const xmlDecl = `<?xml version="1.0" encoding="UTF-8"?>`

// Render builds the RSS 2.0 document for articles in the order given.
// Untranslated articles are skipped. The output depends only on its inputs.
func Render(ch Channel, articles []domain.Article) ([]byte, error) {
	feed := &feeds.Feed{
		Title:       ch.Title,
		Link:        &feeds.Link{Href: ch.Link},
		Description: ch.Description,
	}

	var newest time.Time
	for _, art := range articles {
		if art.State() != domain.Translated {
			continue
		}
		feed.Items = append(feed.Items, item(ch, art))
		if art.PublishedAt.After(newest) {
			newest = art.PublishedAt
		}
	}
	feed.Created = newest

	rss := (&feeds.Rss{Feed: feed}).RssFeed()
	rss.Language = ch.Language

	doc, err := feeds.ToXML(rss)
	if err != nil {
		return nil, fmt.Errorf("render rss: %w", err)
	}
	if rest, ok := strings.CutPrefix(doc, xmlDecl); ok && !strings.HasPrefix(rest, "\n") {
		doc = xmlDecl + "\n" + rest
	}
	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}
	return []byte(doc), nil
}

func item(ch Channel, art domain.Article) *feeds.Item {
	link := art.Link
	if ch.UseTranslateLink && art.TranslateLink != "" {
		link = art.TranslateLink
	}

	desc := art.Description()
	if strings.TrimSpace(desc) == "" {
		desc = art.Title()
	}

	it := &feeds.Item{
		Title:       art.Title(),
		Link:        &feeds.Link{Href: link},
		Description: desc,
		Id:          art.ID,
		Created:     art.PublishedAt.UTC(),
	}
	if !isAbsoluteURL(art.ID) {
		it.IsPermaLink = "false"
	}
	if author := rssAuthor(art); author != "" {
		it.Author = &feeds.Author{Name: author}
	}
	return it
}

// rssAuthor formats <author> as "email (name)". The address is synthetic, built from the
// source id and the article host.
func rssAuthor(art domain.Article) string {
	name := strings.TrimSpace(art.SourceName)
	if name == "" {
		return ""
	}
	u, err := url.Parse(art.Link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	local := strings.TrimSpace(art.SourceID)
	if local == "" {
		local = "news"
	}
	return fmt.Sprintf("%s@%s (%s)", local, strings.TrimPrefix(u.Hostname(), "www."), name)
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// WriteFile replaces path with data via a temp file and rename.
func WriteFile(path string, data []byte) error {
	f, err := Stage(path, data)
	if err != nil {
		return err
	}
	defer f.Cleanup()
	return f.CloseAtomicallyReplace()
}

// Stage writes data to a temp file beside path. The caller publishes it with
// CloseAtomicallyReplace or drops it with Cleanup.
func Stage(path string, data []byte) (*renameio.PendingFile, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create feed directory: %w", err)
		}
	}
	f, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644), renameio.WithExistingPermissions())
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Cleanup()
		return nil, err
	}
	return f, nil
}
