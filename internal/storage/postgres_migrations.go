package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

type pgMigration struct {
	Description string
	Statements  []string
	Version     int
}

var pgMigrations = []pgMigration{
	{
		Version:     1,
		Description: "Initial schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE TABLE IF NOT EXISTS transactions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				amount NUMERIC NOT NULL,
				description TEXT NOT NULL,
				category TEXT NOT NULL,
				date TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date)`,
		},
	},
	{
		Version:     2,
		Description: "Index transactions by category",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_transactions_user_category ON transactions(user_id, category)`,
		},
	},
}

// pgExpectedSchemaVersion is the latest PostgreSQL schema version.
var pgExpectedSchemaVersion = pgMigrations[len(pgMigrations)-1].Version

func (s *PostgresStorage) ensureMigrationTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the highest applied migration and the version this
// build expects.
func (s *PostgresStorage) SchemaVersion(ctx context.Context) (int, int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, 0, err
	}
	if err := s.ensureMigrationTable(ctx); err != nil {
		return 0, 0, err
	}

	var current int
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return 0, 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return current, pgExpectedSchemaVersion, nil
}

// Migrate applies pending migrations, each in its own transaction.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	currentVersion, _, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range pgMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		if err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			for _, stmt := range migration.Statements {
				if _, execErr := tx.Exec(ctx, stmt); execErr != nil {
					return fmt.Errorf("failed to execute query: %w", execErr)
				}
			}
			_, execErr := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
				migration.Version, migration.Description)
			return execErr
		}); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	return nil
}
