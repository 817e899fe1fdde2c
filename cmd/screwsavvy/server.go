package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/server"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/watcher"
	"github.com/Srikanthmvtsc/screw-savvy-bot/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServerCmd(opts *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server and the inbox watcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, resolvedConfigPath, err := loadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			debugMode := cfg.Debug || opts.debug
			logger, err := utils.NewLogger(debugMode)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()
			logger.Info("config loaded",
				zap.String("config_path", resolvedConfigPath),
				zap.Bool("debug", debugMode),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Close()

			inbox := watcher.NewInbox(cfg.Watch.Directories, cfg.Watch.Extensions, components.Indexer,
				watcher.WithLogger(logger))
			if err := inbox.Start(ctx); err != nil {
				return fmt.Errorf("failed to start inbox watcher: %w", err)
			}
			defer inbox.Stop()
			go inbox.SyncExisting(ctx)

			srv := server.NewServer(server.Deps{
				Engine:        components.Engine,
				Indexer:       components.Indexer,
				Documents:     components.Storage,
				Feedback:      components.Recorder,
				FeedbackStore: components.Feedback,
				Vectors:       components.Vectors,
				Watch:         inbox,
				Config:        cfg,
				ConfigPath:    resolvedConfigPath,
				Logger:        logger,
			})
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}
