package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect is the default backend, used for local development and tests.
type SQLiteDialect struct{}

func (SQLiteDialect) DriverName() string {
	return "sqlite3"
}

func (SQLiteDialect) RewriteQuery(query string) string {
	return query
}

func (SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (SQLiteDialect) MigrationsDir() string {
	return "sqlite"
}

func (SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// SQLite handles one writer at a time; avoid "database is locked"
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	_, err := db.Exec("PRAGMA busy_timeout = 5000")
	return err
}
