// Package db mirrors the location store into DuckDB for ad-hoc SQL.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/joeblew999/plat-scenes/internal/service"
)

// Config holds database configuration.
type Config struct {
	DataDir string // empty means in-memory
	DBName  string
}

// Open opens a DuckDB connection. With an empty DataDir the database lives
// in memory and disappears with the process.
func Open(cfg Config) (*sql.DB, error) {
	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		name := cfg.DBName
		if name == "" {
			name = "scenes"
		}
		dsn = filepath.Join(duckdbDir, name+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// One connection keeps an in-memory database shared across queries.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	// The catalog only ever reads its own tables; keep queries off the host
	// filesystem and network. The single connection carries the setting.
	if _, err := conn.Exec("SET enable_external_access = false"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("restrict duckdb access: %w", err)
	}
	return conn, nil
}

// SeedLocations replaces the locations table with the store contents.
func SeedLocations(ctx context.Context, conn *sql.DB, locations []service.PointOfInterest) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DROP TABLE IF EXISTS locations`,
		`CREATE TABLE locations (
			position  INTEGER,
			id        VARCHAR PRIMARY KEY,
			title     VARCHAR NOT NULL,
			movie     VARCHAR NOT NULL,
			latitude  DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			icon      VARCHAR NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create locations: %w", err)
		}
	}

	for i, l := range locations {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO locations VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, l.ID, l.Title, l.Movie, l.Coordinate.Latitude, l.Coordinate.Longitude, l.Icon,
		)
		if err != nil {
			return fmt.Errorf("insert %q: %w", l.Title, err)
		}
	}
	return tx.Commit()
}

// InRegion returns the IDs of catalogued locations inside r, in store order.
func InRegion(ctx context.Context, conn *sql.DB, r service.Region) ([]string, error) {
	b := r.Bound()
	rows, err := conn.QueryContext(ctx,
		`SELECT id FROM locations
		 WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
		 ORDER BY position`,
		b.Min.Lat(), b.Max.Lat(), b.Min.Lon(), b.Max.Lon(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
