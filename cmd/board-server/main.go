package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/feed"
	"github.com/park285/cheese-board/internal/hub"
	"github.com/park285/cheese-board/internal/metrics"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/obslog"
	"github.com/park285/cheese-board/internal/relay"
	"github.com/park285/cheese-board/internal/render"
	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/internal/web"
)

const releaseVersion = "0.1.0"

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	cfg := config.Default()
	var envFile string

	cmd := &cobra.Command{
		Use:     "board-server",
		Short:   "Serves a single shared chess board to two players and any number of spectators.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			if err := config.ApplyEnv(cmd.Flags()); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	config.BindFlags(fs, cfg)
	fs.StringVar(&envFile, "env-file", ".env", "optional KEY=VALUE file loaded before env lookups")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("cheese-board v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func run(parent context.Context, cfg *config.AppConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	opts := obslog.OptionsFromEnv()
	if cfg.Verbose {
		opts.Level = "debug"
	}
	if err := obslog.Init(opts); err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return fmt.Errorf("message catalog: %w", err)
	}
	stats := metrics.New()

	var pub relay.Publisher
	if strings.TrimSpace(cfg.RedisURL) != "" {
		p, err := feed.Open(ctx, cfg.RedisURL, cfg.FeedChannel)
		if err != nil {
			return fmt.Errorf("move feed: %w", err)
		}
		defer func() { _ = p.Close() }()
		if err := p.Reset(ctx); err != nil {
			return fmt.Errorf("move feed reset: %w", err)
		}
		logger.Info("feed_ready", zap.String("channel", p.Channel()))
		pub = p
	}

	h := hub.New(session.NewGame(), hub.Options{
		SendQueue:  cfg.SendQueue,
		TurnNotice: cfg.TurnNotice,
		Publisher:  pub,
		Stats:      stats,
		Logger:     logger,
	})
	go h.Run(ctx)

	logger.Info("board_start",
		zap.String("version", releaseVersion),
		zap.String("addr", cfg.Addr()),
		zap.Bool("turn_notice", cfg.TurnNotice),
	)
	return web.Serve(ctx, cfg, web.Deps{
		Hub:      h,
		Catalog:  cat,
		Renderer: render.New(cfg.SquareSize),
		Metrics:  stats,
		Logger:   logger,
		Version:  releaseVersion,
	})
}
