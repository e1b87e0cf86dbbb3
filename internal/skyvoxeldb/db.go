// Package skyvoxeldb wraps the SQLite database backing both the
// SensorData batch source and the ProcessedData exporter sink, and
// applies its schema via golang-migrate.
package skyvoxeldb

import (
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a SQLite connection configured for concurrent readers.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the SQLite database at path,
// applies WAL mode and a busy timeout, and brings the schema up to the
// latest migration.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := conn.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("configure sqlite pragmas: %w", err)
	}

	db := &DB{conn}
	if err := db.MigrateUp(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return db, nil
}
