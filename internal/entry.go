// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/othala/internal/mcpserver"
	"github.com/starford/othala/internal/notebook"
	"github.com/starford/othala/internal/watch"
)

// Run starts the long-running mode: a file watcher keeping the index and
// cache in step with the notebook, plus an MCP stdio server when enabled.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// The stdio transport owns stdout in MCP mode, so logs go to stderr.
	logOut := io.Writer(os.Stdout)
	if app.mcp {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("notebook_path", cfg.Notebook.Path),
		slog.String("cache_path", cfg.Cache.Path),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("mcp", app.mcp))

	// Ensure the notebook directory exists.
	if err := os.MkdirAll(cfg.Notebook.Path, 0o755); err != nil {
		return fmt.Errorf("create notebook dir: %w", err)
	}

	nb, err := notebook.Open(cfg.Notebook.Path, cfg.Cache.Path, logger)
	if err != nil {
		return fmt.Errorf("open notebook: %w", err)
	}
	defer nb.Close()

	// Initial build.
	if err := nb.Rebuild(ctx); err != nil {
		logger.Warn("initial rebuild failed", slog.String("error", err.Error()))
	}
	logger.Info("Notebook indexed", slog.Int("notes", nb.Len()))

	g, gCtx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gCtx)
	defer cancel()

	// File watcher keeps the derived views current.
	g.Go(func() error {
		return watch.Watch(runCtx, nb, nb.Root(), logger, nil)
	})

	// MCP server over stdio.
	if app.mcp {
		g.Go(func() error {
			logger.Info("Starting MCP server on stdio")
			srv := mcpserver.New(nb)
			err := srv.Listen(runCtx, os.Stdin, os.Stdout)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				return fmt.Errorf("mcp server: %w", err)
			}
			// stdin closed or context done: stop the watcher too.
			cancel()
			return nil
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-runCtx.Done():
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Stopped")
	return nil
}
