package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-feed-translator/internal/config"
	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
	"github.com/samvad-hq/samvad-feed-translator/internal/logger"
	"github.com/samvad-hq/samvad-feed-translator/internal/state"
	"github.com/samvad-hq/samvad-feed-translator/internal/storage"
	"github.com/samvad-hq/samvad-feed-translator/internal/syncer"
	"github.com/samvad-hq/samvad-feed-translator/pkg/feedwriter"
	"github.com/samvad-hq/samvad-feed-translator/pkg/mirror"
	"github.com/samvad-hq/samvad-feed-translator/pkg/providers"
	"github.com/samvad-hq/samvad-feed-translator/pkg/publishers"
	"github.com/samvad-hq/samvad-feed-translator/pkg/translator"
)

// FeedMirror receives a copy of every rendered feed.
type FeedMirror interface {
	Upload(ctx context.Context, feed []byte) error
}

// Deps are the collaborators a Runner needs. NewRunner builds the production set.
type Deps struct {
	Sources    []providers.Provider
	Fetchers   providers.FetcherRegistry
	Translator translator.Translator
	// Optional.
	Mirror     FeedMirror
	Publishers []publishers.Publisher
	Cache      storage.Store
}

// Runner executes the fetch, translate, persist and render cycle.
type Runner struct {
	cfg     *config.Config
	sources []providers.Provider
	engine  *syncer.Engine
	state   *state.Store
	channel feedwriter.Channel
	mirror  FeedMirror
	fanout  *publishers.Fanout
	cache   storage.Store
	log     logger.Logger
	now     func() time.Time
}

// Report describes one completed cycle.
type Report struct {
	Summary   syncer.Summary
	FeedItems int
	FeedBytes int
	Mirrored  bool
	Events    publishers.Stats
	Elapsed   time.Duration
}

// NewRunner builds a runner from config: source registry, resty fetchers, the Google
// translator behind the bbolt cache, and the optional S3 mirror and publishers.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	sourceReg, err := providers.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, &domain.ConfigurationError{Key: "sources_file", Reason: err.Error()}
	}
	sources := sourceReg.Enabled()
	sourceIDs := make([]string, 0, len(sources))
	for _, s := range sources {
		sourceIDs = append(sourceIDs, s.ID)
	}
	log.InfoObj("sources loaded", "sources_meta", map[string]any{
		"count": len(sources),
		"ids":   sourceIDs,
	})

	var publisherCfgs []publishers.PublisherConfig
	if cfg.PublishersFile != "" {
		reg, err := publishers.LoadRegistry(cfg.PublishersFile)
		if err != nil {
			return nil, &domain.ConfigurationError{Key: "publishers_file", Reason: err.Error()}
		}
		publisherCfgs = reg.Enabled()
	}

	google, err := translator.NewGoogle(ctx, translator.GoogleConfig{
		APIKey:   cfg.TranslateAPIKey,
		Source:   cfg.TranslateSourceLang,
		Endpoint: cfg.TranslateEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("init translator: %w", err)
	}

	cache, err := storage.NewStore(cfg.CacheType, cfg.CachePath, storage.Options{
		EntryTTL:        cfg.CacheTTL,
		CleanupInterval: cfg.CacheCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init translation cache: %w", err)
	}
	log.InfoObj("translation cache initialized", "cache_config", map[string]any{
		"type":                     cfg.CacheType,
		"path":                     cfg.CachePath,
		"entry_ttl_seconds":        int(cfg.CacheTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.CacheCleanupInterval.Seconds()),
	})

	deps := Deps{
		Sources:    sources,
		Fetchers:   providers.DefaultFetcherRegistry(providers.DefaultHTTPClient(cfg.HTTPTimeout)),
		Translator: translator.NewCached(google, cache, cfg.TranslateSourceLang, log),
		Cache:      cache,
	}

	if strings.TrimSpace(cfg.FeedS3Bucket) != "" {
		m, err := mirror.NewS3(ctx, MirrorConfig(cfg), log)
		if err != nil {
			_ = cache.Close()
			return nil, fmt.Errorf("init feed mirror: %w", err)
		}
		deps.Mirror = m
	}

	if len(publisherCfgs) > 0 {
		pubs, err := buildPublishers(ctx, publisherCfgs, log)
		if err != nil {
			_ = cache.Close()
			return nil, err
		}
		deps.Publishers = pubs
	}

	return NewRunnerWithDeps(cfg, deps, log)
}

func buildPublishers(ctx context.Context, enabled []publishers.PublisherConfig, log logger.Logger) ([]publishers.Publisher, error) {
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, p := range enabled {
		summaries = append(summaries, map[string]string{"id": p.ID, "type": p.Type})
	}
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return pubs, nil
}

// NewRunnerWithDeps builds a runner around explicit collaborators.
func NewRunnerWithDeps(cfg *config.Config, deps Deps, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if deps.Fetchers == nil || deps.Translator == nil {
		return nil, fmt.Errorf("fetchers and translator are required")
	}
	log = logger.Ensure(log)

	engine := syncer.NewEngine(deps.Fetchers, deps.Translator, syncer.Options{
		TargetLang: cfg.TranslateTargetLang,
		SourceLang: cfg.TranslateSourceLang,
		FeedLimit:  cfg.FeedMaxItems,
		Retention:  cfg.StateRetention,
	}, log)

	return &Runner{
		cfg:     cfg,
		sources: deps.Sources,
		engine:  engine,
		state:   state.New(cfg.StatePath, log),
		channel: ChannelFromConfig(cfg),
		mirror:  deps.Mirror,
		fanout:  publishers.NewFanout(deps.Publishers),
		cache:   deps.Cache,
		log:     log,
		now:     time.Now,
	}, nil
}

// ChannelFromConfig maps the feed_* settings onto the RSS channel.
func ChannelFromConfig(cfg *config.Config) feedwriter.Channel {
	return feedwriter.Channel{
		Title:            cfg.FeedTitle,
		Link:             cfg.FeedLink,
		Description:      cfg.FeedDescription,
		Language:         cfg.FeedLanguage,
		UseTranslateLink: cfg.FeedUseTranslateLink,
	}
}

// MirrorConfig maps the feed_s3_* settings onto the S3 mirror.
func MirrorConfig(cfg *config.Config) mirror.Config {
	return mirror.Config{
		Bucket:       strings.TrimSpace(cfg.FeedS3Bucket),
		Key:          cfg.FeedS3Key,
		Region:       cfg.FeedS3Region,
		CacheControl: cfg.FeedS3CacheControl,
		UsePathStyle: cfg.FeedS3PathStyle,
	}
}

// Run performs one cycle, or with a positive run interval keeps cycling until ctx is done.
// In loop mode failed cycles are logged and retried on the next tick.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.engine == nil {
		return fmt.Errorf("runner is not initialized")
	}

	if r.cfg.RunInterval <= 0 {
		_, err := r.RunOnce(ctx)
		return err
	}

	r.log.InfoObj("run loop starting", "runner_state", map[string]any{
		"sources_count":    len(r.sources),
		"publishers_count": r.fanout.Size(),
		"run_interval":     r.cfg.RunInterval.String(),
	})

	if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
		r.log.ErrorObj("initial run failed", "error", err.Error())
	}

	ticker := time.NewTicker(r.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("run loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.ErrorObj("scheduled run failed", "error", err.Error())
			}
		}
	}
}

// RunOnce loads state, syncs every source, then writes state and feed. A render or write
// failure leaves both files as they were. Mirror and publish failures are logged only.
func (r *Runner) RunOnce(ctx context.Context) (*Report, error) {
	start := r.now()
	r.log.InfoObj("run started", "run_meta", map[string]any{
		"sources_count": len(r.sources),
		"started_at":    start.UTC(),
	})

	existing, err := r.state.Load()
	if err != nil {
		return nil, err
	}

	res, err := r.engine.Run(ctx, r.sources, existing)
	if err != nil {
		return nil, fmt.Errorf("sync sources: %w", err)
	}
	if res.Summary.Degraded() {
		r.log.WarnObj("no source could be fetched; re-rendering existing state", "run_meta", map[string]any{
			"articles": len(res.State),
		})
	}

	feed, err := feedwriter.Render(r.channel, res.Feed)
	if err != nil {
		return nil, err
	}
	if err := r.persist(res.State, feed); err != nil {
		return nil, err
	}

	report := &Report{
		Summary:   res.Summary,
		FeedItems: len(res.Feed),
		FeedBytes: len(feed),
	}
	report.Mirrored = r.mirrorFeed(ctx, feed)
	report.Events = r.publishAdded(ctx, res.Added)
	report.Elapsed = r.now().Sub(start)

	fields := res.Summary.Fields()
	fields["feed_items"] = report.FeedItems
	fields["feed_path"] = r.cfg.FeedPath
	fields["state_path"] = r.cfg.StatePath
	fields["events_delivered"] = report.Events.Delivered
	fields["events_failed"] = report.Events.Failed
	fields["elapsed_ms"] = report.Elapsed.Milliseconds()
	r.log.InfoObj("run completed", "run_summary", fields)
	return report, nil
}

// persist stages both files before replacing either. If the feed cannot be put in place
// after the state was, the previous state is written back.
func (r *Runner) persist(records []domain.Article, feed []byte) error {
	pendingState, err := r.state.Stage(records)
	if err != nil {
		return err
	}
	defer pendingState.Discard()

	pendingFeed, err := feedwriter.Stage(r.cfg.FeedPath, feed)
	if err != nil {
		return &domain.PersistenceError{Op: "write feed", Path: r.cfg.FeedPath, Err: err}
	}
	defer pendingFeed.Cleanup()

	if err := pendingState.Commit(); err != nil {
		return err
	}
	if err := pendingFeed.CloseAtomicallyReplace(); err != nil {
		if rerr := pendingState.Restore(); rerr != nil {
			r.log.ErrorObj("state restore failed", "error", rerr.Error())
		}
		return &domain.PersistenceError{Op: "write feed", Path: r.cfg.FeedPath, Err: err}
	}
	return nil
}

func (r *Runner) mirrorFeed(ctx context.Context, feed []byte) bool {
	if r.mirror == nil {
		return false
	}
	if err := r.mirror.Upload(ctx, feed); err != nil {
		r.log.ErrorObj("feed mirror upload failed", "mirror_error", map[string]any{
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (r *Runner) publishAdded(ctx context.Context, added []domain.Article) publishers.Stats {
	if r.fanout.Size() == 0 || len(added) == 0 {
		return publishers.Stats{}
	}
	at := r.now()
	events := make([]publishers.Event, 0, len(added))
	for _, art := range added {
		events = append(events, publishers.NewEvent(art, at))
	}

	stats, err := r.fanout.PublishAll(ctx, events)
	if err != nil {
		r.log.WarnObj("some events were not delivered", "publish_error", map[string]any{
			"events":    stats.Events,
			"delivered": stats.Delivered,
			"failed":    stats.Failed,
			"error":     err.Error(),
		})
	}
	return stats
}

// Close releases the translation cache and publisher clients.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close translation cache: %w", err))
		}
	}
	if err := r.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
