package domain

import "time"

// Domain contains core models and interfaces.

// TranslationState tags whether an Article has been translated.
type TranslationState int

const (
	Untranslated TranslationState = iota
	Translated
)

func (s TranslationState) String() string {
	if s == Translated {
		return "translated"
	}
	return "untranslated"
}

// Entry is a raw item as read from a source feed, before identity checks or translation.
type Entry struct {
	ID          string
	Title       string
	Link        string
	Description string
	PublishedAt time.Time
}

// Translation holds the target-language text of an Article. It is written once.
type Translation struct {
	Language     string    `json:"language"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	TranslatedAt time.Time `json:"translated_at"`
}

// Article is the persisted record of one news item.
type Article struct {
	ID                string       `json:"id"`
	SourceID          string       `json:"source_id"`
	SourceName        string       `json:"source_name"`
	SourceTitle       string       `json:"source_title"`
	SourceDescription string       `json:"source_description"`
	Translation       *Translation `json:"translation,omitempty"`
	Link              string       `json:"link"`
	TranslateLink     string       `json:"translate_link,omitempty"`
	PublishedAt       time.Time    `json:"published_at"`
	FirstSeenAt       time.Time    `json:"first_seen_at"`
}

// State reports the translation tag of the article.
func (a Article) State() TranslationState {
	if a.Translation == nil {
		return Untranslated
	}
	return Translated
}

// Title returns the translated title, or the source title when untranslated.
func (a Article) Title() string {
	if a.Translation != nil {
		return a.Translation.Title
	}
	return a.SourceTitle
}

// Description returns the translated description, or the source description when untranslated.
func (a Article) Description() string {
	if a.Translation != nil {
		return a.Translation.Description
	}
	return a.SourceDescription
}
