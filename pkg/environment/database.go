package environment

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// Database drivers understood by DatabaseVersion.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var versionQueries = map[string]string{
	DriverSQLite:   "SELECT sqlite_version()",
	DriverPostgres: "SHOW server_version",
}

// DatabaseVersion asks the server behind db for its version string.
func DatabaseVersion(ctx context.Context, db *sql.DB, driver string) (string, error) {
	query, ok := versionQueries[driver]
	if !ok {
		return "", fmt.Errorf("no version query for driver %q", driver)
	}

	var version string
	if err := db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", fmt.Errorf("query %s version: %w", driver, err)
	}
	return version, nil
}

// OpenAndQueryVersion opens dsn with driver, reads its version and closes
// the connection again.
func OpenAndQueryVersion(ctx context.Context, driver, dsn string) (string, error) {
	if _, ok := versionQueries[driver]; !ok {
		return "", fmt.Errorf("no version query for driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return "", fmt.Errorf("open %s database: %w", driver, err)
	}
	defer db.Close()

	return DatabaseVersion(ctx, db, driver)
}
