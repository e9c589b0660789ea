package data

import (
	"errors"
	"fmt"

	"github.com/blogicum/blogicum/migrations"
	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned (wrapped) by repositories when no row matches.
var ErrNotFound = errors.New("not found")

// NewDB creates a new database connection pool for the given driver.
func NewDB(driver, dsn string) (*sqlx.DB, error) {
	if driver == "mysql" {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		// Updates that change nothing must still report the matched row.
		cfg.ClientFoundRows = true
		dsn = cfg.FormatDSN()
	}

	// sqlx.Connect opens a connection and pings it to verify it's alive.
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if IsSQLite(driver) {
		// SQLite allows a single writer, and in-memory databases live only
		// as long as their connection.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	return db, nil
}

// IsSQLite reports whether driver is one of the SQLite drivers.
func IsSQLite(driver string) bool {
	return driver == "sqlite3" || driver == "sqlite"
}

// ApplyMigrations runs all up migrations embedded for the driver's dialect.
// SQLite migrations run on db itself; MySQL opens its own connection from dsn.
func ApplyMigrations(db *sqlx.DB, driver, dsn string) error {
	dialect := "mysql"
	if IsSQLite(driver) {
		dialect = "sqlite"
	}
	src, err := iofs.New(migrations.FS, dialect)
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	var m *migrate.Migrate
	switch driver {
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return fmt.Errorf("failed to parse mysql dsn: %w", err)
		}
		cfg.MultiStatements = true
		cfg.ParseTime = true
		// The migrate library needs the DSN in a URL format.
		m, err = migrate.NewWithSourceInstance("iofs", src, "mysql://"+cfg.FormatDSN())
		if err != nil {
			return fmt.Errorf("failed to create migrate instance: %w", err)
		}
		defer m.Close()
	case "sqlite3", "sqlite":
		var dbDriver database.Driver
		if driver == "sqlite3" {
			dbDriver, err = migratesqlite3.WithInstance(db.DB, &migratesqlite3.Config{})
		} else {
			dbDriver, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
		}
		if err != nil {
			return fmt.Errorf("failed to create migrate driver: %w", err)
		}
		// The instance shares db, so it is not closed here.
		m, err = migrate.NewWithInstance("iofs", src, driver, dbDriver)
		if err != nil {
			return fmt.Errorf("failed to create migrate instance: %w", err)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
