package db

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SchemaVersion is the version recorded after applying schema.sql
const SchemaVersion = 1

// DB wraps the database connection
type DB struct {
	*sqlx.DB
}

// Open opens a database connection and runs migrations. driver is "sqlite"
// or "postgres".
func Open(driver, dsn string) (*DB, error) {
	var driverName string
	switch driver {
	case "sqlite":
		driverName = "sqlite3"
	case "postgres":
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type: %s", driver)
	}

	sqlDB, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Wrap adopts an existing connection without running migrations.
func Wrap(x *sqlx.DB) *DB {
	return &DB{x}
}

// migrate applies schema.sql unless schema_version is already current
func (db *DB) migrate() error {
	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err == nil && currentVersion >= SchemaVersion {
		return nil
	}

	// Table might not exist yet; the schema is idempotent
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	_, err = db.Exec(db.Rebind("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)"), SchemaVersion, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}
