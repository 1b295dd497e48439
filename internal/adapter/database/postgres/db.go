package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"todoguard/internal/adapter/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Config struct {
	URL        string
	LogQueries bool
}

// Open builds a pgx pool for cfg.URL, migrates the schema and exposes the pool
// through database/sql so repositories stay driver agnostic.
func Open(ctx context.Context, cfg Config) (*database.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	pool, err := newPool(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(cfg.URL); err != nil {
		pool.Close()
		return nil, err
	}

	var sqlDB *sql.DB
	if cfg.LogQueries {
		sqlDB = database.WithQueryLogging(cfg.URL, stdlib.GetDefaultDriver())
	} else {
		sqlDB = stdlib.OpenDBFromPool(pool)
	}

	db := database.New(sqlDB, "pgx", database.DialectPostgres, squirrel.Dollar)
	db.OnClose(pool.Close)

	return db, nil
}

func newPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

// RunMigrations applies the embedded migrations over a short lived connection.
func RunMigrations(url string) error {
	sqlDB, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("create migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
