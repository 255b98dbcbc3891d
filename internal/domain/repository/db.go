package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS insight_runs (
		id              TEXT PRIMARY KEY,
		start_year      INTEGER NOT NULL,
		end_year        INTEGER NOT NULL,
		stable_class    TEXT NOT NULL,
		retention_ratio DOUBLE PRECISION NOT NULL,
		expansion_delta DOUBLE PRECISION NOT NULL,
		dominant_from   TEXT,
		dominant_to     TEXT,
		dominant_area   DOUBLE PRECISION,
		result_json     TEXT NOT NULL,
		computed_at     BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_insight_runs_period ON insight_runs(start_year, end_year)`,
	`CREATE INDEX IF NOT EXISTS idx_insight_runs_computed_at ON insight_runs(computed_at)`,
}

// Open connects to databaseURL and creates the schema.
// postgres:// and postgresql:// URLs use lib/pq, sqlite://<path> uses the embedded driver.
func Open(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	driver, dsn, err := parseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// one connection keeps :memory: databases shared and serializes writers
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return db, nil
}

func parseDatabaseURL(databaseURL string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return "postgres", databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite database url needs a path")
		}
		return "sqlite", path, nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q", databaseURL)
	}
}
