package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/dogtribe/entitlement/pkg/catalog"
	"github.com/dogtribe/entitlement/pkg/entitlement"
	"github.com/dogtribe/entitlement/pkg/httpapi"
	"github.com/dogtribe/entitlement/pkg/httpserver"
	"github.com/dogtribe/entitlement/pkg/tier"
	"github.com/dogtribe/entitlement/pkg/usage"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("entitlementd failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// The .env file might not exist and that's ok.
	_ = godotenv.Load()

	var cfg appConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	log := newLogger(cfg)

	// A malformed catalog must prevent startup, never limp along.
	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
	}
	log.InfoContext(ctx, "catalog loaded",
		"path", cfg.CatalogPath, "tiers", cat.TiersByRank())

	usageStore, closeUsage, healthChecks, err := newUsageStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeUsage()

	tierStore, closeTiers, tierChecks, err := newTierStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeTiers()
	healthChecks = append(healthChecks, tierChecks...)

	manager := tier.NewManager(cat, tierStore, usageStore,
		tier.WithLogger(log),
		tier.WithDefaultTier(catalog.Tier(cfg.DefaultTier)))

	eval := entitlement.New(cat, usageStore, manager.Resolve,
		entitlement.WithLogger(log))

	handler := httpapi.New(eval, manager, httpapi.WithLogger(log))

	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthCheckHandler(log, healthChecks...))
	r.Mount("/", handler.Router())

	var httpCfg httpserver.Config
	if err := env.Parse(&httpCfg); err != nil {
		return fmt.Errorf("parse http config: %w", err)
	}

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

func newLogger(cfg appConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(h).With("service", "entitlementd")
}

func newUsageStore(ctx context.Context, cfg appConfig, log *slog.Logger) (usage.Store, func(), []func(context.Context) error, error) {
	switch cfg.UsageBackend {
	case "memory":
		store := usage.NewMemoryStore()
		return store, store.Close, nil, nil

	case "redis":
		var redisCfg redisConfig
		if err := env.Parse(&redisCfg); err != nil {
			return nil, nil, nil, fmt.Errorf("parse redis config: %w", err)
		}

		client, err := connectRedis(ctx, redisCfg, log)
		if err != nil {
			return nil, nil, nil, err
		}

		store := usage.NewRedisStore(client, usage.WithOpTimeout(redisCfg.OpTimeout))
		closeFn := func() { _ = client.Close() }
		check := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return store, closeFn, []func(context.Context) error{check}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown usage backend %q", cfg.UsageBackend)
	}
}

func newTierStore(ctx context.Context, cfg appConfig, log *slog.Logger) (tier.Store, func(), []func(context.Context) error, error) {
	switch cfg.TierBackend {
	case "memory":
		return tier.NewMemoryStore(), func() {}, nil, nil

	case "postgres":
		var pgCfg postgresConfig
		if err := env.Parse(&pgCfg); err != nil {
			return nil, nil, nil, fmt.Errorf("parse postgres config: %w", err)
		}
		if pgCfg.ConnectionString == "" {
			return nil, nil, nil, errors.New("PG_CONN_URL is required for the postgres tier backend")
		}

		pool, err := connectPostgres(ctx, pgCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := tier.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		check := func(ctx context.Context) error { return pool.Ping(ctx) }
		return tier.NewPostgresStore(pool), pool.Close, []func(context.Context) error{check}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown tier backend %q", cfg.TierBackend)
	}
}

func connectRedis(ctx context.Context, cfg redisConfig, log *slog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	for range cfg.RetryAttempts {
		client := redis.NewClient(opt)
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		log.WarnContext(ctx, "redis not ready, retrying", "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect redis: %w", ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, fmt.Errorf("connect redis: %w", err)
}

func connectPostgres(ctx context.Context, cfg postgresConfig) (*pgxpool.Pool, error) {
	var lastErr error
	for i := range cfg.RetryAttempts {
		pool, err := pgxpool.New(ctx, cfg.ConnectionString)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
	}
	return nil, fmt.Errorf("connect postgres: %w", lastErr)
}
