package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"time"

	"retail_backoffice/internal/config"
	"retail_backoffice/pkg/utils"

	_ "github.com/lib/pq" // PostgreSQL driver
)

//go:embed schema.sql
var embeddedSchema string

// InitDB opens the connection pool and verifies it with a ping.
func InitDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	utils.LogInfo("Successfully connected to the database", map[string]interface{}{
		"host": cfg.Host, "db": cfg.Name, "max_open_conns": cfg.MaxOpenConns,
	})
	return db, nil
}

// LoadSchema returns the schema script at path, or the built-in one when path is empty.
func LoadSchema(path string) (string, error) {
	if path == "" {
		return embeddedSchema, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read schema file %s: %w", path, err)
	}
	return string(content), nil
}

// ApplySchema executes the schema script.
func ApplySchema(ctx context.Context, db *sql.DB, path string) error {
	script, err := LoadSchema(path)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	source := path
	if source == "" {
		source = "embedded"
	}
	utils.LogInfo("Database schema applied", map[string]interface{}{"source": source})
	return nil
}
