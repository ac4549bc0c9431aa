package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/api"
	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/frontend/telegram"
)

const stopTimeout = 5 * time.Second

// newServeCmd returns the "serve" subcommand for the HTTP and WebSocket API.
func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the movie screens over HTTP and WebSocket",
		Long: "Serve the list and detail screens as JSON (GET /api/movies, /api/movies/{id})\n" +
			"and as live state streams (/ws/movies, /ws/movies/{id}).\n" +
			"The Telegram bot runs alongside when it is configured.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

// runServe starts the API server, plus the Telegram bot when configured.
func runServe(port int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App.LogLevel, nil)
	catalog, err := initCatalog(cfg, logger)
	if err != nil {
		return err
	}

	if port == 0 {
		port = cfg.ServerPort()
	}
	frontends := []core.Frontend{api.NewServer(port, catalog, logger)}

	if cfg.Telegram != nil {
		bot, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.AllowedUserIDs, catalog, logger)
		if err != nil {
			return err
		}
		frontends = append(frontends, bot)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return runFrontends(ctx, logger, frontends...)
}

// runFrontends starts every frontend and waits for all of them to return.
// The first failure cancels the others; every frontend is stopped on the way out.
func runFrontends(ctx context.Context, logger *slog.Logger, frontends ...core.Frontend) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, f := range frontends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("frontend starting", slog.String("frontend", f.Name()))
			err := f.Start(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("frontend stopped", slog.String("frontend", f.Name()), slog.String("error", err.Error()))
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			cancel()
		}()
	}
	wg.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	for _, f := range frontends {
		if err := f.Stop(stopCtx); err != nil {
			logger.Warn("frontend stop failed", slog.String("frontend", f.Name()), slog.String("error", err.Error()))
		}
	}
	return firstErr
}
