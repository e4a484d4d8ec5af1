package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/hybridsync/internal/transport/chi"
	"github.com/kailas-cloud/hybridsync/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. The target collection is ensured on startup (bootstrap)
unless --no-bootstrap is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var noBootstrap bool

func init() {
	serveCmd.Flags().BoolVar(&noBootstrap, "no-bootstrap", false, "skip ensuring the target collection on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger.Info("Starting hybridsync API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", envName),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("source", cfg.Collections.Source),
		zap.String("target", cfg.Collections.Target),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if !noBootstrap {
		created, err := a.lifecycle.EnsureExists(ctx, cfg.Collections.Target, cfg.Collections.Source)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		if created {
			logger.Info("Hybrid collection created", zap.String("target", cfg.Collections.Target))
		}
	}

	server := chiTransport.NewServer(
		a.lifecycle, a.migrator, a.search, a.settings, a.health,
		chiTransport.Collections{Source: cfg.Collections.Source, Target: cfg.Collections.Target},
		logger,
	)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		Keys:   chiTransport.KeySet{Keys: cfg.Auth.APIKeys, AdminKeys: cfg.Auth.AdminKeys},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
