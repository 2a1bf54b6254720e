package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// Dialect abstracts over the differences between supported SQL backends.
// Queries throughout the codebase are written with ? placeholders and
// SQLite-flavored DDL; dialects rewrite what they need.
type Dialect interface {
	// DriverName returns the database/sql driver name
	DriverName() string

	// RewriteQuery converts ? placeholders to the dialect's native form
	RewriteQuery(query string) string

	// SupportsLastInsertId reports whether sql.Result.LastInsertId works
	SupportsLastInsertId() bool

	// MigrationsDir is the per-dialect subdirectory of the migrations path
	MigrationsDir() string

	// ConfigureConnection applies per-connection settings after open
	ConfigureConnection(db *sql.DB) error
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ...
// Skips question marks inside single-quoted string literals.
func rewritePlaceholdersToNumbered(query string) string {
	var b strings.Builder
	n := 0
	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString:
			n++
			fmt.Fprintf(&b, "$%d", n)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
