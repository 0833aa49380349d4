package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
)

// EventArticleTranslated is the only event type emitted today.
const EventArticleTranslated = "article.translated"

// Event is the payload published for each newly translated article.
type Event struct {
	Type        string         `json:"type"`
	SourceID    string         `json:"source_id"`
	SourceName  string         `json:"source_name"`
	Article     domain.Article `json:"article"`
	PublishedAt time.Time      `json:"published_at"`
}

// NewEvent builds the event for a translated article.
func NewEvent(article domain.Article, at time.Time) Event {
	return Event{
		Type:        EventArticleTranslated,
		SourceID:    article.SourceID,
		SourceName:  article.SourceName,
		Article:     article,
		PublishedAt: at.UTC(),
	}
}
