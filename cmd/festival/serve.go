package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/noah-isme/festival-live-api/api/swagger"
	"github.com/noah-isme/festival-live-api/internal/handler"
	"github.com/noah-isme/festival-live-api/internal/router"
	"github.com/noah-isme/festival-live-api/pkg/config"
	"github.com/noah-isme/festival-live-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/festival-live-api/pkg/middleware/cors"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the live stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			return serveRun(cmd.Context(), cfg)
		},
	}
}

func serveRun(ctx context.Context, cfg *config.Config) error {
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.finalize.Load(ctx); err != nil {
		return err
	}

	handlers := router.Handlers{
		Results:     handler.NewResultHandler(a.results),
		Leaderboard: handler.NewLeaderboardHandler(a.leaderboard, a.export, cfg.Leaderboard.Limit),
		Finalize:    handler.NewFinalizeHandler(a.finalize),
		Catalog:     handler.NewCatalogHandler(a.events, a.institutions),
		Stream:      handler.NewStreamHandler(a.bus, cfg.Stream.KeepaliveInterval, corsmiddleware.Allowed(cfg.CORS.AllowedOrigins), logr.Named("stream")),
		Metrics:     handler.NewMetricsHandler(a.metrics, a.bus, a.databasePinger(), a.cachePinger(), logr),
	}
	engine := router.New(router.Options{
		Env:              cfg.Env,
		APIPrefix:        cfg.APIPrefix,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		WebsocketEnabled: cfg.Stream.WebsocketEnabled,
		Observer:         a.metrics,
	}, handlers, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "finalized", a.finalize.Get().Finalized)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	// Streaming handlers only return once their subscription is released.
	a.bus.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped", zap.Duration("timeout", shutdownTimeout))
	return nil
}
