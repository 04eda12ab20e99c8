package db

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS swiss_tournaments (
		id              SERIAL PRIMARY KEY,
		name            TEXT NOT NULL,
		round           INTEGER NOT NULL DEFAULT 0,
		status          TEXT NOT NULL DEFAULT 'created',
		variant         TEXT NOT NULL DEFAULT 'standard',
		clock_limit     INTEGER NOT NULL,
		clock_increment INTEGER NOT NULL DEFAULT 0,
		rated           BOOLEAN NOT NULL DEFAULT TRUE,
		position_fen    TEXT,
		opening_tables  BOOLEAN NOT NULL DEFAULT FALSE,
		micro_match     BOOLEAN NOT NULL DEFAULT FALSE,
		nb_ongoing      INTEGER NOT NULL DEFAULT 0,
		last_round_at   TIMESTAMPTZ,
		next_round_at   TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS swiss_players (
		id            SERIAL PRIMARY KEY,
		tournament_id INTEGER NOT NULL REFERENCES swiss_tournaments(id) ON DELETE CASCADE,
		user_id       INTEGER NOT NULL,
		rating        INTEGER NOT NULL,
		provisional   BOOLEAN NOT NULL DEFAULT FALSE,
		withdrawn     BOOLEAN NOT NULL DEFAULT FALSE,
		bye_rounds    INTEGER[] NOT NULL DEFAULT '{}',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (tournament_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS swiss_pairings (
		id             TEXT PRIMARY KEY,
		tournament_id  INTEGER NOT NULL REFERENCES swiss_tournaments(id) ON DELETE CASCADE,
		round          INTEGER NOT NULL,
		white_user_id  INTEGER NOT NULL,
		black_user_id  INTEGER NOT NULL,
		status         TEXT NOT NULL DEFAULT 'ongoing',
		result         TEXT,
		micro_match    BOOLEAN NOT NULL DEFAULT FALSE,
		second_game_id TEXT,
		opening_fen    TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (tournament_id, round, white_user_id, black_user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS games (
		id                TEXT PRIMARY KEY,
		tournament_id     INTEGER NOT NULL REFERENCES swiss_tournaments(id) ON DELETE CASCADE,
		variant           TEXT NOT NULL DEFAULT 'standard',
		initial_fen       TEXT,
		white_user_id     INTEGER NOT NULL,
		white_rating      INTEGER NOT NULL,
		white_provisional BOOLEAN NOT NULL DEFAULT FALSE,
		black_user_id     INTEGER NOT NULL,
		black_rating      INTEGER NOT NULL,
		black_provisional BOOLEAN NOT NULL DEFAULT FALSE,
		clock_limit       INTEGER NOT NULL,
		clock_increment   INTEGER NOT NULL DEFAULT 0,
		rated             BOOLEAN NOT NULL DEFAULT TRUE,
		turns             INTEGER NOT NULL DEFAULT 0,
		started_at_turn   INTEGER NOT NULL DEFAULT 0,
		status            TEXT NOT NULL DEFAULT 'created',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_swiss_players_tournament ON swiss_players (tournament_id)`,
	`CREATE INDEX IF NOT EXISTS idx_swiss_pairings_tournament_round ON swiss_pairings (tournament_id, round)`,
	`CREATE INDEX IF NOT EXISTS idx_games_tournament ON games (tournament_id)`,
	`CREATE INDEX IF NOT EXISTS idx_swiss_tournaments_due ON swiss_tournaments (next_round_at) WHERE status = 'ongoing'`,
}

// Migrate creates the schema. Every statement is idempotent so the function
// is safe to run on every boot.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
