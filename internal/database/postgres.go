// Package database wires the PostgreSQL connection pool and bootstraps the
// schema on startup.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"inventario/internal/config"
)

// Connect builds a pgx connection pool from the database configuration and
// verifies the connection with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// schema is applied on startup. Statements are idempotent so restarts are
// safe without a migration tool.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		nombre      VARCHAR(255) NOT NULL,
		descripcion TEXT,
		precio      DOUBLE PRECISION NOT NULL,
		stock       INTEGER NOT NULL,
		categoria   VARCHAR(100) NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_nombre ON products (nombre)`,
	`CREATE INDEX IF NOT EXISTS idx_products_categoria ON products (categoria)`,
	`CREATE INDEX IF NOT EXISTS idx_products_categoria_nombre ON products (categoria, nombre)`,

	`CREATE TABLE IF NOT EXISTS import_logs (
		id              BIGSERIAL PRIMARY KEY,
		filename        VARCHAR(255) NOT NULL,
		total_rows      INTEGER NOT NULL DEFAULT 0,
		successful_rows INTEGER NOT NULL DEFAULT 0,
		failed_rows     INTEGER NOT NULL DEFAULT 0,
		errors          TEXT,
		status          VARCHAR(20) NOT NULL DEFAULT 'processing',
		started_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_import_logs_started_at ON import_logs (started_at DESC)`,

	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		username        VARCHAR(50) NOT NULL,
		email           VARCHAR(255) NOT NULL,
		hashed_password VARCHAR(255) NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT users_username_key UNIQUE (username),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
}

// EnsureSchema creates the tables and indexes the service needs if they do
// not already exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
