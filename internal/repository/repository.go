// Package repository mirrors interaction tables into PostgreSQL so the
// service can load them without the local artifact file.
package repository

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/actuallystonmai/order-recommender/internal/logging"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Connect opens a pool sized to poolSize and waits for the database.
func Connect(ctx context.Context, url string, poolSize int) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(poolSize) //nolint:gosec // validated by config

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := WaitForDB(ctx, pool, 30, time.Second); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// WaitForDB pings until the database answers or attempts run out.
func WaitForDB(ctx context.Context, pool *pgxpool.Pool, attempts int, interval time.Duration) error {
	for i := range attempts {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		logging.Info().Int("attempt", i+1).Int("of", attempts).Msg("waiting for database")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("database connection timeout after %d attempts", attempts)
}

// Migrate creates the mirror tables if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.execFile(ctx, "migrations/create_tables.up.sql"); err != nil {
		return err
	}
	logging.Info().Msg("migrations applied successfully")
	return nil
}

// MigrateDown drops the mirror tables.
func (r *Repository) MigrateDown(ctx context.Context) error {
	if err := r.execFile(ctx, "migrations/create_tables.down.sql"); err != nil {
		return err
	}
	logging.Info().Msg("migrations dropped successfully")
	return nil
}

func (r *Repository) execFile(ctx context.Context, name string) error {
	sql, err := migrations.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := r.pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration %s: %w", name, err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
