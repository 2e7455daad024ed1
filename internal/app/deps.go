package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vidfriends/mediahub/internal/aggregate"
	"github.com/vidfriends/mediahub/internal/auth"
	"github.com/vidfriends/mediahub/internal/catalog"
	"github.com/vidfriends/mediahub/internal/config"
	"github.com/vidfriends/mediahub/internal/db"
	"github.com/vidfriends/mediahub/internal/handlers"
	"github.com/vidfriends/mediahub/internal/media"
	"github.com/vidfriends/mediahub/internal/middleware"
	"github.com/vidfriends/mediahub/internal/repositories"
)

// limiterIdleTTL bounds how long an idle client's bucket is kept by the in-process limiter.
const limiterIdleTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// pool may be nil when the memory store is selected. The returned cleanup releases
// background workers and clients in reverse order of construction.
func buildDependencies(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func(context.Context) error
	cleanup := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}

	var (
		store    repositories.Store
		database handlers.Pinger
	)
	switch cfg.Store {
	case "memory":
		store = repositories.NewMemoryStore()
	default:
		if pool == nil {
			return handlers.Dependencies{}, nil, errors.New("postgres store selected without a connection pool")
		}
		store = repositories.NewPostgresStore(pool)
		database = pool
	}

	tokens, err := auth.NewTokenService(auth.Config{
		AccessSecret:  cfg.Auth.AccessTokenSecret,
		RefreshSecret: cfg.Auth.RefreshTokenSecret,
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
	}, store)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure token service: %w", err)
	}

	var catalogOpts []catalog.Option
	if cfg.ObjectStore.Enabled() {
		prober := media.NewFFProbe(cfg.Media.FFProbePath, cfg.Media.FFProbeTimeout)
		assets, err := media.NewS3Service(ctx, cfg.ObjectStore, prober)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure object store: %w", err)
		}
		janitor := media.NewJanitor(assets, media.JanitorConfig{
			QueueSize: cfg.Media.CleanupQueue,
			Workers:   cfg.Media.CleanupWorkers,
		}, logger)
		closers = append(closers, janitor.Shutdown)
		catalogOpts = append(catalogOpts, catalog.WithMedia(assets), catalog.WithCleaner(janitor))
	} else {
		logger.Warn("object store not configured, uploads are disabled")
	}

	var limiter middleware.RateLimiter
	if cfg.RateLimit.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
		})
		closers = append(closers, func(context.Context) error { return client.Close() })
		limiter = middleware.NewRedisRateLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst)
	} else {
		limiter = middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, limiterIdleTTL)
	}

	svc := catalog.New(store, catalogOpts...)

	return handlers.Dependencies{
		Accounts:     svc,
		Sessions:     tokens,
		Catalog:      svc,
		Reads:        aggregate.New(store, aggregate.WithHistoryLimit(cfg.WatchHistoryLimit)),
		Uploads:      handlers.Uploads{Dir: cfg.Media.UploadDir, MaxBytes: cfg.Media.MaxUploadBytes},
		AuthLimiter:  limiter,
		Database:     database,
		SecureCookie: cfg.Auth.CookieSecure,

		TrustedProxies: cfg.RateLimit.TrustedProxies,
	}, cleanup, nil
}

func poolOptions(c config.DBConfig) db.PoolOptions {
	return db.PoolOptions{
		MaxConns:          c.MaxConns,
		MinConns:          c.MinConns,
		HealthCheckPeriod: c.HealthCheckPeriod,
		MaxConnIdleTime:   c.MaxConnIdleTime,
	}
}
