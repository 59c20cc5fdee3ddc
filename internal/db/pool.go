package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a small pool; the archive writes once per finished game.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 0
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE SCHEMA IF NOT EXISTS ffb;

CREATE TABLE IF NOT EXISTS ffb.games (
	game_id    UUID PRIMARY KEY,
	ended_at   TIMESTAMPTZ NOT NULL,
	rounds     INTEGER NOT NULL,
	winner_id  UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ffb.game_standings (
	game_id               UUID NOT NULL REFERENCES ffb.games (game_id) ON DELETE CASCADE,
	rank                  INTEGER NOT NULL,
	player_id             UUID NOT NULL,
	player_name           TEXT NOT NULL,
	club_name             TEXT NOT NULL,
	cash                  BIGINT NOT NULL,
	net_worth             BIGINT NOT NULL,
	cumulative_npv_earned BIGINT NOT NULL,
	PRIMARY KEY (game_id, rank)
);

CREATE INDEX IF NOT EXISTS games_ended_at_idx ON ffb.games (ended_at DESC);
`

// EnsureSchema creates the archive tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
