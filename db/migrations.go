package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	migrate "github.com/rubenv/sql-migrate"
)

const migrationsTable = "schema_migrations"

// Migrations are applied in Id order; applied ids are kept in schema_migrations.
var Migrations = []*migrate.Migration{
	{
		Id: "0001_create_player_ratings",
		Up: []string{`
		CREATE TABLE IF NOT EXISTS player_ratings (
			name          TEXT PRIMARY KEY,
			rating        INTEGER     NOT NULL DEFAULT 1000,
			total_games   INTEGER     NOT NULL DEFAULT 0,
			total_wins    INTEGER     NOT NULL DEFAULT 0,
			total_points  INTEGER     NOT NULL DEFAULT 0,
			total_scores  INTEGER     NOT NULL DEFAULT 0,
			last_active   TIMESTAMPTZ,
			game_history  JSONB       NOT NULL DEFAULT '[]',
			teammates     JSONB       NOT NULL DEFAULT '{}',
			opponents     JSONB       NOT NULL DEFAULT '{}',
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT player_ratings_wins_le_games CHECK (total_wins <= total_games)
		)`},
		Down: []string{`DROP TABLE IF EXISTS player_ratings`},
	},
	{
		Id: "0002_create_tournament_state",
		Up: []string{`
		CREATE TABLE IF NOT EXISTS tournament_current_state (
			id            SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			tournament_id TEXT        NOT NULL,
			state         JSONB       NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
		Down: []string{`DROP TABLE IF EXISTS tournament_current_state`},
	},
	{
		Id: "0003_create_tournament_history",
		Up: []string{`
		CREATE TABLE IF NOT EXISTS tournament_history (
			id                 TEXT PRIMARY KEY,
			played_at          TIMESTAMPTZ NOT NULL,
			format             TEXT        NOT NULL,
			players            TEXT[]      NOT NULL DEFAULT '{}',
			record             JSONB       NOT NULL,
			ratings_applied    BOOLEAN     NOT NULL DEFAULT FALSE,
			ratings_applied_at TIMESTAMPTZ
		)`, `
		CREATE INDEX IF NOT EXISTS idx_tournament_history_pending
			ON tournament_history (played_at) WHERE ratings_applied = FALSE`},
		Down: []string{`DROP TABLE IF EXISTS tournament_history`},
	},
	{
		Id: "0004_create_tournament_settings",
		Up: []string{`
		CREATE TABLE IF NOT EXISTS tournament_settings (
			id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			settings   JSONB       NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
		Down: []string{`DROP TABLE IF EXISTS tournament_settings`},
	},
}

func migrationSource() *migrate.MemoryMigrationSource {
	return &migrate.MemoryMigrationSource{Migrations: Migrations}
}

// Migrate applies every pending migration, each one in its own transaction.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	set := migrate.MigrationSet{TableName: migrationsTable}
	applied, err := set.ExecContext(ctx, db, "postgres", migrationSource(), migrate.Up)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("migrations applied", slog.Int("count", applied))
	return nil
}
