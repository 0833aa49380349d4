package app

import (
	"cmp"
	"slices"
	"time"

	"github.com/samvad-hq/samvad-feed-translator/internal/config"
	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
	"github.com/samvad-hq/samvad-feed-translator/internal/logger"
	"github.com/samvad-hq/samvad-feed-translator/internal/state"
	"github.com/samvad-hq/samvad-feed-translator/internal/syncer"
	"github.com/samvad-hq/samvad-feed-translator/pkg/feedwriter"
)

// RenderFromState rewrites the feed from the persisted state without fetching or
// translating. It returns the number of feed items written.
func RenderFromState(cfg *config.Config, log logger.Logger) (int, error) {
	log = logger.Ensure(log)

	records, err := state.New(cfg.StatePath, log).Load()
	if err != nil {
		return 0, err
	}
	syncer.SortArticles(records)
	items := syncer.FeedArticles(records, cfg.FeedMaxItems)

	feed, err := feedwriter.Render(ChannelFromConfig(cfg), items)
	if err != nil {
		return 0, err
	}
	if err := feedwriter.WriteFile(cfg.FeedPath, feed); err != nil {
		return 0, &domain.PersistenceError{Op: "write feed", Path: cfg.FeedPath, Err: err}
	}
	log.InfoObj("feed rendered from state", "render_meta", map[string]any{
		"feed_path": cfg.FeedPath,
		"items":     len(items),
	})
	return len(items), nil
}

// SourceStats counts the stored articles of one source.
type SourceStats struct {
	SourceID   string `json:"source_id"`
	Articles   int    `json:"articles"`
	Translated int    `json:"translated"`
}

// StateStats describes the persisted collection.
type StateStats struct {
	Path         string        `json:"path"`
	Articles     int           `json:"articles"`
	Translated   int           `json:"translated"`
	Untranslated int           `json:"untranslated"`
	Newest       time.Time     `json:"newest,omitzero"`
	Oldest       time.Time     `json:"oldest,omitzero"`
	Sources      []SourceStats `json:"sources"`
}

// Stats summarizes the state file.
func Stats(cfg *config.Config, log logger.Logger) (StateStats, error) {
	records, err := state.New(cfg.StatePath, logger.Ensure(log)).Load()
	if err != nil {
		return StateStats{}, err
	}

	out := StateStats{Path: cfg.StatePath, Articles: len(records), Sources: []SourceStats{}}
	bySource := make(map[string]*SourceStats)
	for _, rec := range records {
		src, ok := bySource[rec.SourceID]
		if !ok {
			src = &SourceStats{SourceID: rec.SourceID}
			bySource[rec.SourceID] = src
		}
		src.Articles++
		if rec.State() == domain.Translated {
			out.Translated++
			src.Translated++
		} else {
			out.Untranslated++
		}
		if out.Newest.IsZero() || rec.PublishedAt.After(out.Newest) {
			out.Newest = rec.PublishedAt
		}
		if out.Oldest.IsZero() || rec.PublishedAt.Before(out.Oldest) {
			out.Oldest = rec.PublishedAt
		}
	}
	for _, src := range bySource {
		out.Sources = append(out.Sources, *src)
	}
	slices.SortFunc(out.Sources, func(a, b SourceStats) int { return cmp.Compare(a.SourceID, b.SourceID) })
	return out, nil
}
