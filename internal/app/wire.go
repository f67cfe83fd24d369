package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/quotespell/internal/adapter/postgres"
	spellrepo "github.com/heartmarshall/quotespell/internal/adapter/postgres/spell"
	"github.com/heartmarshall/quotespell/internal/adapter/provider/spotify"
	"github.com/heartmarshall/quotespell/internal/adapter/redis/trackcache"
	"github.com/heartmarshall/quotespell/internal/auth"
	"github.com/heartmarshall/quotespell/internal/config"
	"github.com/heartmarshall/quotespell/internal/domain"
	"github.com/heartmarshall/quotespell/internal/service/history"
	"github.com/heartmarshall/quotespell/internal/service/spell"
	"github.com/heartmarshall/quotespell/internal/transport/rest"
)

type titleStore interface {
	Get(ctx context.Context, title string) (*domain.Track, error)
	Set(ctx context.Context, title string, track domain.Track) error
}

type spellRecorder interface {
	Create(ctx context.Context, s *domain.Spell) error
}

// Components is the wired object graph. Optional parts are nil when their
// configuration is absent.
type Components struct {
	Spells  *spell.Service
	History *history.Service
	Tokens  *auth.JWTManager
	Pingers map[string]rest.Pinger

	redis *redis.Client
	pool  *pgxpool.Pool
}

// Wire connects every configured dependency and builds the services.
// On error everything opened so far is closed.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Components, err error) {
	c := &Components{Pingers: make(map[string]rest.Pinger)}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	catalogOpts := spotify.Options{
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Burst:             cfg.Catalog.Burst,
	}
	catalog := spotify.NewClientWithURL(cfg.Catalog.APIURL, catalogOpts, logger)
	creds := spotify.NewAuthenticatorWithURL(cfg.Catalog.TokenURL,
		cfg.Catalog.ClientID, cfg.Catalog.ClientSecret, catalogOpts, logger)

	var store titleStore
	if cfg.Cache.Enabled() {
		c.redis, err = trackcache.NewClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		cache := trackcache.New(c.redis, cfg.Cache.TTL)
		store = cache
		c.Pingers["redis"] = cache
		logger.Info("title cache enabled", slog.Duration("ttl", cfg.Cache.TTL))
	}

	var recorder spellRecorder
	if cfg.Database.Enabled() {
		c.pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err = postgres.Migrate(ctx, c.pool); err != nil {
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		repo := spellrepo.New(c.pool)
		recorder = repo
		c.History = history.NewService(logger, repo)
		c.Pingers["postgres"] = c.pool
		logger.Info("spell history enabled")
	}

	if cfg.Auth.Enabled() {
		c.Tokens = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	}

	c.Spells = spell.NewService(logger, catalog, creds, store, recorder, spell.Options{
		ChunkSize:           cfg.Resolver.ChunkSize,
		PageSize:            cfg.Resolver.PageSize,
		MaxOffset:           cfg.Resolver.MaxOffset,
		MaxConcurrentTitles: cfg.Resolver.MaxConcurrentTitles,
		MaxWords:            cfg.Resolver.MaxWords,
		BatchWait:           cfg.Resolver.BatchWait,
	})

	return c, nil
}

// Close releases connections. Safe on a partially wired value.
func (c *Components) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}
