package syncer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
	"github.com/samvad-hq/samvad-feed-translator/internal/logger"
	"github.com/samvad-hq/samvad-feed-translator/pkg/providers"
	"github.com/samvad-hq/samvad-feed-translator/pkg/translator"
)

// Options tunes a sync run.
type Options struct {
	// TargetLang is the language every new article is translated into.
	TargetLang string
	// SourceLang is only used to build the translate proxy link; empty means "auto".
	SourceLang string
	// FeedLimit caps Result.Feed; zero keeps every translated article.
	FeedLimit int
	// Retention prunes records first seen longer ago than this; zero keeps everything.
	Retention time.Duration
}

// Engine merges freshly fetched source entries into the persisted collection,
// translating only identities it has never stored.
type Engine struct {
	registry   providers.FetcherRegistry
	translator translator.Translator
	opts       Options
	log        logger.Logger
	now        func() time.Time
}

// NewEngine wires an engine from the fetcher registry and translator.
func NewEngine(reg providers.FetcherRegistry, tr translator.Translator, opts Options, log logger.Logger) *Engine {
	return &Engine{
		registry:   reg,
		translator: tr,
		opts:       opts,
		log:        logger.Ensure(log),
		now:        time.Now,
	}
}

// Result is the outcome of one run. Nothing in it has been persisted yet.
type Result struct {
	// State is the full merged collection in output order.
	State []domain.Article
	// Feed is the translated prefix of State handed to the feed writer.
	Feed []domain.Article
	// Added holds the articles translated during this run.
	Added   []domain.Article
	Summary Summary
}

// Run fetches every source, translates unseen entries and merges them into existing.
// Source and entry failures are reported in the summary; the only error returned is
// context cancellation, in which case the caller must not persist anything.
func (e *Engine) Run(ctx context.Context, sources []providers.Provider, existing []domain.Article) (*Result, error) {
	if e == nil || e.registry == nil || e.translator == nil {
		return nil, fmt.Errorf("sync engine is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	known := make(map[string]struct{}, len(existing))
	merged := make([]domain.Article, 0, len(existing))
	for _, rec := range existing {
		if _, dup := known[rec.ID]; dup {
			continue
		}
		known[rec.ID] = struct{}{}
		merged = append(merged, rec)
	}

	observed := make(map[string]struct{})
	var (
		summary Summary
		added   []domain.Article
	)
	for _, src := range sources {
		run, err := e.syncSource(ctx, src, known, observed, now)
		if err != nil {
			return nil, err
		}
		summary.add(run.result, run.failures)
		added = append(added, run.added...)
	}

	merged = append(merged, added...)
	if e.opts.Retention > 0 && summary.FailedSources() == 0 {
		merged, summary.Pruned = prune(merged, observed, now.Add(-e.opts.Retention))
	}

	SortArticles(merged)
	SortArticles(added)
	summary.Total = len(merged)

	return &Result{
		State:   merged,
		Feed:    FeedArticles(merged, e.opts.FeedLimit),
		Added:   added,
		Summary: summary,
	}, nil
}

type sourceRun struct {
	result   SourceResult
	added    []domain.Article
	failures []EntryFailure
}

func (e *Engine) syncSource(ctx context.Context, src providers.Provider, known, observed map[string]struct{}, now time.Time) (sourceRun, error) {
	run := sourceRun{result: SourceResult{SourceID: src.ID, SourceName: src.Name}}

	entries, err := e.fetch(ctx, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return run, ctxErr
		}
		run.result.Err = &domain.FetchError{SourceID: src.ID, Err: err}
		e.log.ErrorObj("source fetch failed", "source_error", map[string]any{
			"source_id": src.ID,
			"url":       src.SourceURL,
			"error":     err.Error(),
		})
		return run, nil
	}
	run.result.Fetched = len(entries)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		if entry.ID == "" || entry.Title == "" {
			run.result.Skipped++
			continue
		}
		observed[entry.ID] = struct{}{}
		if _, ok := known[entry.ID]; ok {
			run.result.Known++
			continue
		}

		article, err := e.translateEntry(ctx, src, entry, now)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return run, ctxErr
			}
			run.result.Failed++
			run.failures = append(run.failures, EntryFailure{SourceID: src.ID, ArticleID: entry.ID, Title: entry.Title, Err: err})
			e.log.WarnObj("article translation failed; will retry next run", "translation_error", map[string]any{
				"source_id":  src.ID,
				"article_id": entry.ID,
				"error":      err.Error(),
			})
			continue
		}

		known[entry.ID] = struct{}{}
		run.result.Added++
		run.added = append(run.added, article)
		e.log.DebugObj("article translated", "article", map[string]any{
			"source_id":  src.ID,
			"article_id": article.ID,
		})
	}

	e.log.InfoObj("source sync completed", "source_result", map[string]any{
		"source_id": src.ID,
		"fetched":   run.result.Fetched,
		"known":     run.result.Known,
		"added":     run.result.Added,
		"failed":    run.result.Failed,
		"skipped":   run.result.Skipped,
	})
	return run, nil
}

func (e *Engine) fetch(ctx context.Context, src providers.Provider) ([]domain.Entry, error) {
	fetcher, err := e.registry.FetcherFor(src)
	if err != nil {
		return nil, fmt.Errorf("resolve fetcher: %w", err)
	}
	return fetcher.Fetch(ctx, src)
}

// translateEntry translates title and description independently; either failing drops
// the entry for this run.
func (e *Engine) translateEntry(ctx context.Context, src providers.Provider, entry domain.Entry, now time.Time) (domain.Article, error) {
	title, err := e.translator.Translate(ctx, entry.Title, e.opts.TargetLang)
	if err != nil {
		return domain.Article{}, &domain.TranslationError{ArticleID: entry.ID, Field: "title", Err: err}
	}

	var desc string
	if strings.TrimSpace(entry.Description) != "" {
		desc, err = e.translator.Translate(ctx, entry.Description, e.opts.TargetLang)
		if err != nil {
			return domain.Article{}, &domain.TranslationError{ArticleID: entry.ID, Field: "description", Err: err}
		}
	}

	published := entry.PublishedAt
	if published.IsZero() {
		published = now
	}

	return domain.Article{
		ID:                entry.ID,
		SourceID:          src.ID,
		SourceName:        src.Name,
		SourceTitle:       entry.Title,
		SourceDescription: entry.Description,
		Translation: &domain.Translation{
			Language:     e.opts.TargetLang,
			Title:        title,
			Description:  desc,
			TranslatedAt: now,
		},
		Link:          entry.Link,
		TranslateLink: TranslateLink(entry.Link, e.opts.SourceLang, e.opts.TargetLang),
		PublishedAt:   published.UTC(),
		FirstSeenAt:   now,
	}, nil
}

// prune drops records first seen before cutoff unless a source listed them in this run.
// Records without a first-seen time fall back to their publication time.
func prune(records []domain.Article, observed map[string]struct{}, cutoff time.Time) ([]domain.Article, int) {
	kept := make([]domain.Article, 0, len(records))
	pruned := 0
	for _, rec := range records {
		seenAt := rec.FirstSeenAt
		if seenAt.IsZero() {
			seenAt = rec.PublishedAt
		}
		if _, listed := observed[rec.ID]; !listed && !seenAt.IsZero() && seenAt.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, pruned
}

// TranslateLink builds the Google Translate proxy URL for an article link.
func TranslateLink(link, source, target string) string {
	if strings.TrimSpace(link) == "" {
		return ""
	}
	if source == "" {
		source = "auto"
	}
	return fmt.Sprintf("https://translate.google.com/translate?sl=%s&tl=%s&u=%s",
		url.QueryEscape(source), url.QueryEscape(target), url.QueryEscape(link))
}
