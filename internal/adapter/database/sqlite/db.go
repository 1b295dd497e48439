package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"

	"todoguard/internal/adapter/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

const MemoryPath = ":memory:"

type Config struct {
	Path       string
	LogQueries bool
}

// Open connects to the sqlite file at cfg.Path, creating its directory when
// needed, and applies the embedded migrations.
func Open(cfg Config) (*database.DB, error) {
	path := cfg.Path
	if path == "" {
		path = "data/todos.db"
	}

	inMemory := isMemory(path)

	dsn := path
	if !inMemory {
		if err := ensureDir(path); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", path)
	}

	sqlDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("todoguard"),
	)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if cfg.LogQueries {
		logged := database.WithQueryLogging(dsn, sqlDB.Driver())
		sqlDB.Close()
		sqlDB = logged
	}

	if inMemory {
		// every new connection to :memory: would see an empty database
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return database.New(sqlDB, "sqlite3", database.DialectSQLite, squirrel.Question), nil
}

// RunMigrations applies the embedded migrations to db. The migrate instance is
// not closed because that would close db too.
func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func isMemory(path string) bool {
	return strings.HasPrefix(path, MemoryPath) || strings.Contains(path, "mode=memory")
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
