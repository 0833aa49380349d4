package syncer

import (
	"cmp"
	"slices"

	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
)

// SourceResult is the outcome of one source in a run.
type SourceResult struct {
	SourceID   string
	SourceName string
	Fetched    int
	Known      int
	Added      int
	Failed     int
	Skipped    int
	// Err is a *domain.FetchError when the source could not be fetched or parsed.
	Err error
}

// OK reports whether the source was fetched.
func (r SourceResult) OK() bool { return r.Err == nil }

// EntryFailure records one entry dropped from this run. Err is a *domain.TranslationError.
type EntryFailure struct {
	SourceID  string
	ArticleID string
	Title     string
	Err       error
}

// Summary aggregates a run.
type Summary struct {
	Sources  []SourceResult
	Failures []EntryFailure
	Fetched  int
	Known    int
	Added    int
	Failed   int
	Skipped  int
	Pruned   int
	Total    int
}

func (s *Summary) add(r SourceResult, failures []EntryFailure) {
	s.Sources = append(s.Sources, r)
	s.Failures = append(s.Failures, failures...)
	s.Fetched += r.Fetched
	s.Known += r.Known
	s.Added += r.Added
	s.Failed += r.Failed
	s.Skipped += r.Skipped
}

// FailedSources counts sources that could not be fetched.
func (s Summary) FailedSources() int {
	n := 0
	for _, r := range s.Sources {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Degraded reports a run in which no source could be fetched; the output is a re-render of
// the existing state.
func (s Summary) Degraded() bool {
	return len(s.Sources) > 0 && s.FailedSources() == len(s.Sources)
}

// Fields renders the summary for structured logging.
func (s Summary) Fields() map[string]any {
	sources := make([]map[string]any, 0, len(s.Sources))
	for _, r := range s.Sources {
		entry := map[string]any{
			"source_id": r.SourceID,
			"fetched":   r.Fetched,
			"added":     r.Added,
			"failed":    r.Failed,
		}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
		}
		sources = append(sources, entry)
	}
	return map[string]any{
		"fetched":        s.Fetched,
		"known":          s.Known,
		"added":          s.Added,
		"failed":         s.Failed,
		"skipped":        s.Skipped,
		"pruned":         s.Pruned,
		"total":          s.Total,
		"failed_sources": s.FailedSources(),
		"sources":        sources,
	}
}

// SortArticles orders newest first, ties broken by identity so output is stable across runs.
func SortArticles(records []domain.Article) {
	slices.SortStableFunc(records, func(a, b domain.Article) int {
		if c := b.PublishedAt.Compare(a.PublishedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// FeedArticles returns the translated records of an ordered collection, capped at limit
// when limit is positive. The result is a new slice.
func FeedArticles(ordered []domain.Article, limit int) []domain.Article {
	out := make([]domain.Article, 0, len(ordered))
	for _, rec := range ordered {
		if rec.State() != domain.Translated {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
