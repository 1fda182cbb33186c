package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/actuallystonmai/order-recommender/internal/bootstrap"
	"github.com/actuallystonmai/order-recommender/internal/cache"
	"github.com/actuallystonmai/order-recommender/internal/config"
	"github.com/actuallystonmai/order-recommender/internal/handler"
	"github.com/actuallystonmai/order-recommender/internal/logging"
	"github.com/actuallystonmai/order-recommender/internal/model"
	"github.com/actuallystonmai/order-recommender/internal/repository"
	"github.com/actuallystonmai/order-recommender/internal/router"
	"github.com/actuallystonmai/order-recommender/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ------------ PostgreSQL (optional) ---------------
	var repo *repository.Repository
	if cfg.Database.URL != "" {
		pool, err := repository.Connect(ctx, cfg.Database.URL, cfg.Database.PoolSize)
		if err != nil {
			logging.Fatal().Err(err).Msg("database not ready")
		}
		defer pool.Close()
		logging.Info().Msg("connected to PostgreSQL")
		repo = repository.New(pool)

		// for migrate-down using CLI command
		if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
			if err := repo.MigrateDown(ctx); err != nil {
				logging.Fatal().Err(err).Msg("failed to migrate down")
			}
			return
		}
		if err := repo.Migrate(ctx); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate up")
		}
	} else if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		logging.Fatal().Msg("migrate-down requires DATABASE_URL")
	}

	// ------------ Serving state ---------------
	opts := bootstrap.Options{
		TablePath: cfg.Data.TablePath,
		ModelPath: cfg.Data.ModelPath,
		Model: model.Config{
			Factors:        cfg.Model.Factors,
			Epochs:         cfg.Model.Epochs,
			LearningRate:   cfg.Model.LearningRate,
			Regularization: cfg.Model.Regularization,
			InitStdDev:     cfg.Model.InitStdDev,
			Seed:           cfg.Model.Seed,
		},
		RetrainOnMismatch: cfg.Model.RetrainOnMismatch,
	}
	if cfg.Data.Source == "postgres" {
		if repo == nil {
			logging.Fatal().Msg("data.source=postgres requires DATABASE_URL")
		}
		opts.Source = repo
	}
	state, err := bootstrap.Load(ctx, opts)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load serving state")
	}

	// ------------ Redis (optional) ---------------
	var recCache service.Cache
	if cfg.CacheEnabled() {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer func() { _ = client.Close() }()
		c := cache.NewCache(client, cfg.Redis.CacheTTL)
		if state.Trained {
			// Entries for older generations can never be read again.
			if n, err := c.ClearModelCache(ctx, ""); err != nil {
				logging.Warn().Err(err).Msg("failed to clear stale cache entries")
			} else {
				logging.Info().Int("keys", n).Msg("cleared stale cache entries")
			}
		}
		recCache = c
		logging.Info().Dur("ttl", cfg.Redis.CacheTTL).Msg("connected to Redis")
	}

	// ---------------- Server --------------------
	svc := service.NewService(state, recCache, service.Options{
		Limit:            cfg.Recommend.Limit,
		BatchConcurrency: cfg.Recommend.BatchConcurrency,
	})
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.Setup(handler.NewHandler(svc), router.Options{
			Timeout:         cfg.Server.Timeout,
			RateLimitReqs:   cfg.Server.RateLimitReqs,
			RateLimitWindow: cfg.Server.RateLimitWindow,
		}),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server running")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
