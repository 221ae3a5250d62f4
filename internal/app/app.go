// Package app wires configuration into a ready-to-serve sign-in application.
package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/githubauth/internal/auth"
	"github.com/dropDatabas3/githubauth/internal/config"
	"github.com/dropDatabas3/githubauth/internal/csrf"
	httpserver "github.com/dropDatabas3/githubauth/internal/http"
	"github.com/dropDatabas3/githubauth/internal/http/handlers"
	"github.com/dropDatabas3/githubauth/internal/metrics"
	"github.com/dropDatabas3/githubauth/internal/oauth/github"
	"github.com/dropDatabas3/githubauth/internal/observability/logger"
	"github.com/dropDatabas3/githubauth/internal/rate"
	"github.com/dropDatabas3/githubauth/internal/users"
)

// App is the wired application.
type App struct {
	Handler  http.Handler
	Provider *auth.Provider
	Users    users.Registry

	redis   *redis.Client
	closers []func() error
}

// New builds every dependency described by cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.From(ctx).With(logger.Layer("app"))
	a := &App{}

	if err := metrics.Register(nil); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	store, err := a.stateStore(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	secret := []byte(cfg.State.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("state secret: %w", err)
		}
		log.Warn("state.secret not set; using an ephemeral key, states will not survive a restart")
	}
	states, err := csrf.NewManager(csrf.Options{
		Secret: secret,
		Issuer: cfg.App.Name,
		TTL:    cfg.State.TTL,
		Store:  store,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	limiter, err := a.rateLimiter(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	registry, err := a.userRegistry(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Users = registry
	a.Provider = auth.NewProvider(auth.Deps{
		Settings: cfg.GitHubSettings(),
		Client:   github.NewClient(),
	})

	gh := handlers.NewGitHub(handlers.Deps{
		Provider:      a.Provider,
		States:        states,
		Users:         registry,
		PublicURL:     cfg.Server.PublicURL,
		SecureCookies: strings.HasPrefix(cfg.Server.PublicURL, "https://"),
		StateTTL:      cfg.State.TTL,
	})
	a.Handler = httpserver.NewRouter(gh, nil, limiter)

	log.Info("app ready",
		logger.Bool("github_enabled", a.Provider.IsEnabled()),
		logger.String("state_store", cfg.State.Store),
		logger.String("users_driver", cfg.Users.Driver),
		logger.Int("rate_limit", cfg.RateLimit.Requests),
	)
	return a, nil
}

// redisClient dials the state backend once; the state store and the limiter share it.
func (a *App) redisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	r := cfg.State.Redis
	rdb, err := csrf.DialRedis(ctx, r.Addr, r.Password, r.DB)
	if err != nil {
		return nil, err
	}
	a.redis = rdb
	a.closers = append(a.closers, rdb.Close)
	return rdb, nil
}

func (a *App) stateStore(ctx context.Context, cfg *config.Config) (csrf.Store, error) {
	if cfg.State.Store != "redis" {
		return csrf.NewMemoryStore(), nil
	}
	rdb, err := a.redisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return csrf.NewRedisStore(rdb, cfg.State.Redis.Prefix), nil
}

// rateLimiter returns nil when rate limiting is off.
func (a *App) rateLimiter(ctx context.Context, cfg *config.Config) (rate.Limiter, error) {
	rl := cfg.RateLimit
	if rl.Requests <= 0 {
		return nil, nil
	}
	if cfg.State.Store != "redis" {
		l, err := rate.NewMemoryLimiter(rl.Requests, rl.Window)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	rdb, err := a.redisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	l, err := rate.NewRedisLimiter(rdb, rl.Prefix, rl.Requests, rl.Window)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (a *App) userRegistry(ctx context.Context, cfg *config.Config) (users.Registry, error) {
	if cfg.Users.Driver != "postgres" {
		return users.NewMemoryRegistry(), nil
	}
	pool, err := users.OpenPool(ctx, cfg.Users.DSN, cfg.Users.MaxConns)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	reg := users.NewPostgresRegistry(pool)
	if err := reg.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return reg, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
