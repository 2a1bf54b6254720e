package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect targets MySQL/MariaDB via DATABASE_URL.
// The DSN should include parseTime=true so DATETIME columns scan into time.Time.
type MySQLDialect struct{}

func (MySQLDialect) DriverName() string {
	return "mysql"
}

func (MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (MySQLDialect) MigrationsDir() string {
	return "mysql"
}

func (MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return nil
}
