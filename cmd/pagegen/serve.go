package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/verbatlas/pagegen/internal/config"
	"github.com/verbatlas/pagegen/internal/gnc"
	"github.com/verbatlas/pagegen/internal/server"
	"github.com/verbatlas/pagegen/internal/verbstore"
	"github.com/verbatlas/pagegen/pkg/compose"
)

func newServeCmd() *cobra.Command {
	var (
		configFile string
		addr       string
		debug      bool
		grace      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the verb site HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger, err := newLogger(debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			composer, templateCache, err := buildComposer(cfg, logger)
			if err != nil {
				return err
			}
			if templateCache != nil {
				defer templateCache.Close()
			}

			options := []server.Option{
				server.WithLogger(logger),
				server.WithComposer(composer),
				server.WithVerbStore(verbstore.New(cfg.VerbsFile,
					verbstore.WithLogger(logger),
					verbstore.WithBackupKeep(cfg.BackupKeep),
				)),
			}

			if cfg.UpstreamURL != "" {
				client := gnc.NewClient(cfg.UpstreamURL,
					gnc.WithAPIKey(cfg.UpstreamKey),
					gnc.WithClientLogger(logger),
				)
				cache := gnc.NewCache(client, cfg.CacheTTL.Std())
				options = append(options, server.WithAnalyzer(cache), server.WithAnalysisCache(cache))
			} else {
				logger.Warn("no upstream analysis URL configured, analyze endpoints disabled")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(options...).Run(ctx, cfg.Addr, grace)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "pagegen.yaml", "config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.Flags().DurationVar(&grace, "grace", 5*time.Second, "shutdown grace period")
	return cmd
}

func newLogger(debug bool) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if debug {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// buildComposer wires template source and optional cache from config. The
// returned cache is non-nil only when caching (and watching) is enabled.
func buildComposer(cfg config.Config, logger *zap.Logger) (*compose.Composer, *compose.Cache, error) {
	options := []compose.Option{compose.WithLogger(logger)}
	if cfg.TemplatesDir != "" {
		options = append(options, compose.WithTemplatesDir(cfg.TemplatesDir))
	}

	if !cfg.TemplateCache {
		return compose.New(options...), nil, nil
	}

	cache := compose.NewCache(compose.WithCacheLogger(logger))
	if cfg.TemplatesDir != "" {
		if err := cache.Watch(cfg.TemplatesDir); err != nil {
			return nil, nil, err
		}
	}
	options = append(options, compose.WithCache(cache))
	return compose.New(options...), cache, nil
}
