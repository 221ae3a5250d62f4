package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/githubauth/internal/identity"
	"github.com/dropDatabas3/githubauth/internal/observability/logger"
)

type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

// OpenPool parses dsn, applies maxConns when positive and pings.
func OpenPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("users: parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("users: open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("users: ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the github_user table when missing.
func (r *PostgresRegistry) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS github_user (
    id            UUID PRIMARY KEY,
    login         TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    email         TEXT,
    provider_id   TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("users: ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) Upsert(ctx context.Context, id identity.Identity) (*User, error) {
	if err := validate(id); err != nil {
		return nil, err
	}
	log := logger.From(ctx).With(logger.Layer("repository"), logger.Component("users.postgres"))

	const query = `
INSERT INTO github_user (id, login, name, email, provider_id, created_at, last_login_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NOW(), NOW())
ON CONFLICT (login) DO UPDATE
   SET name = EXCLUDED.name,
       email = EXCLUDED.email,
       provider_id = EXCLUDED.provider_id,
       last_login_at = NOW()
RETURNING id::text, login, name, COALESCE(email, ''), COALESCE(provider_id, ''), created_at, last_login_at`

	var u User
	err := r.pool.QueryRow(ctx, query, uuid.NewString(), id.Login, id.Name, id.Email, id.ProviderID).
		Scan(&u.ID, &u.Login, &u.Name, &u.Email, &u.ProviderID, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		log.Error("upsert failed", logger.Login(id.Login), logger.Err(err))
		return nil, fmt.Errorf("users: upsert: %w", err)
	}
	return &u, nil
}

func (r *PostgresRegistry) Get(ctx context.Context, login string) (*User, error) {
	const query = `
SELECT id::text, login, name, COALESCE(email, ''), COALESCE(provider_id, ''), created_at, last_login_at
  FROM github_user
 WHERE login = $1`

	var u User
	err := r.pool.QueryRow(ctx, query, login).
		Scan(&u.ID, &u.Login, &u.Name, &u.Email, &u.ProviderID, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("users: get: %w", err)
	}
	return &u, nil
}
