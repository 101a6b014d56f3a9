package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"tradepulse/config"

	"github.com/lib/pq"
)

// CreateDatabase connects to the server's default 'postgres' database and
// creates cfg.DBName if it doesn't exist.
func CreateDatabase(ctx context.Context, cfg config.PostgresConfig, env string) error {
	admin := cfg
	admin.DBName = "postgres"

	dsn, err := admin.DSN(ctx, env)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	defer db.Close()

	// Check if database exists
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1);`
	if err := db.QueryRowContext(ctx, query, cfg.DBName).Scan(&exists); err != nil {
		return fmt.Errorf("check db exists failed: %w", err)
	}

	if exists {
		return nil // DB already exists
	}

	_, err = db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(cfg.DBName))
	if err != nil {
		return fmt.Errorf("create db failed: %w", err)
	}

	return nil
}
