package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-feed-translator/internal/app"
	"github.com/samvad-hq/samvad-feed-translator/internal/config"
	"github.com/samvad-hq/samvad-feed-translator/internal/logger"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "feedtranslator",
		Short: "Translate Dutch news feeds and publish them as a Chinese RSS feed",
		Long: "feedtranslator fetches the configured RSS sources, translates new articles with the " +
			"Google Translation API, keeps every processed article in a JSON state file and renders " +
			"the translated RSS feed. Settings come from the environment and configs/.env.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCycle,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Fetch, translate, persist and render (the default command)",
			Args:  cobra.NoArgs,
			RunE:  runCycle,
		},
		&cobra.Command{
			Use:   "render",
			Short: "Rewrite the feed from the state file without fetching",
			Args:  cobra.NoArgs,
			RunE:  runRender,
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print state file statistics as JSON",
			Args:  cobra.NoArgs,
			RunE:  runStats,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "feedtranslator %s (commit: %s, built: %s)\n", version, commit, date)
			},
		},
	)
	return root
}

func runCycle(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("feedtranslator starting", "config", cfg.Summary())

	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err.Error())
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			logger.ErrorObj("runner close failed", "error", err.Error())
		}
	}()

	if err := runner.Run(ctx); err != nil {
		logger.ErrorObj("run failed", "error", err.Error())
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOffline()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	n, err := app.RenderFromState(cfg, log)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d items to %s\n", n, cfg.FeedPath)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOffline()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	stats, err := app.Stats(cfg, nil)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
