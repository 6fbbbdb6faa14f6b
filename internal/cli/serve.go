package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/industrieimport/storefront/internal/api"
	"github.com/industrieimport/storefront/internal/config"
	"github.com/industrieimport/storefront/internal/logger"
	"github.com/industrieimport/storefront/internal/redis"
	"github.com/industrieimport/storefront/internal/tracing"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Config
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 2. Logger
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	zlog.Info().Str("version", version).Msg("logger initialized")

	// 3. Tracing
	tp, err := tracing.InitTracing(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.OTelEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(sctx)
	}()

	// 4. Redis (optional)
	var rc *redis.Client
	if cfg.RedisAddr != "" {
		rc = redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			zlog.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable yet")
		}
	} else {
		zlog.Warn().Msg("REDIS_ADDR empty: sessions and notices are kept in memory")
	}

	// 5. Router
	deps, err := api.NewDeps(cfg, rc)
	if err != nil {
		return err
	}
	handler, err := api.NewRouter(cfg, deps)
	if err != nil {
		return err
	}

	// 6. Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Str("port", cfg.Port).Str("api", cfg.APIBase()).Msg("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
