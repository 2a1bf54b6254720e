package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDialect targets PostgreSQL via DATABASE_URL.
type PostgresDialect struct{}

func (PostgresDialect) DriverName() string {
	return "postgres"
}

func (PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

func (PostgresDialect) SupportsLastInsertId() bool {
	return false
}

func (PostgresDialect) MigrationsDir() string {
	return "postgres"
}

func (PostgresDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return nil
}
