package database

import (
	"database/sql"
	"database/sql/driver"
	"os"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB is the handle shared by every repository: a sqlx connection plus a
// statement builder already set to the driver's placeholder format.
type DB struct {
	*sqlx.DB
	QueryBuilder squirrel.StatementBuilderType
	Dialect      Dialect

	onClose func()
}

func New(sqlDB *sql.DB, driverName string, dialect Dialect, placeholder squirrel.PlaceholderFormat) *DB {
	return &DB{
		DB:           sqlx.NewDb(sqlDB, driverName),
		QueryBuilder: squirrel.StatementBuilder.PlaceholderFormat(placeholder),
		Dialect:      dialect,
	}
}

// OnClose registers a hook run after the sql handle is closed.
func (db *DB) OnClose(fn func()) {
	db.onClose = fn
}

func (db *DB) Close() error {
	err := db.DB.Close()
	if db.onClose != nil {
		db.onClose()
	}
	return err
}

// WithQueryLogging opens dsn through drv wrapped by sqldb-logger so every
// statement is written to stdout as a zerolog line.
func WithQueryLogging(dsn string, drv driver.Driver) *sql.DB {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "sql").Logger()

	return sqldblogger.OpenDriver(dsn, drv, zerologadapter.New(logger),
		sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug),
		sqldblogger.WithSQLQueryAsMessage(true),
	)
}
