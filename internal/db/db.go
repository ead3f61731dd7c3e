// Package db opens the SQL database backing the draft store.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type DB interface {
	InitDB(ctx context.Context) error

	Get() *sqlx.DB
	Close() error

	// Rebind converts '?' placeholders to the driver's bindvar style.
	Rebind(query string) string

	QueryRowx(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Queryx(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var dbLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns an uninitialised DB for the named driver.
func Open(driver, dsn string) (DB, error) {
	switch driver {
	case DriverSQLite, "sqlite3":
		return NewSQLite(dsn), nil
	case DriverPostgres:
		return NewPostgres(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// sqlxDB carries the query helpers shared by both drivers.
type sqlxDB struct {
	conn *sqlx.DB
}

func (s *sqlxDB) Get() *sqlx.DB {
	return s.conn
}

func (s *sqlxDB) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *sqlxDB) Rebind(query string) string {
	return s.conn.Rebind(query)
}

func (s *sqlxDB) QueryRowx(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	query = s.conn.Rebind(query)
	dbLogger.Debug().Str("query", query).Msg("QueryRow")
	return s.conn.QueryRowxContext(ctx, query, args...)
}

func (s *sqlxDB) Queryx(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	query = s.conn.Rebind(query)
	dbLogger.Debug().Str("query", query).Msg("Query")
	return s.conn.QueryxContext(ctx, query, args...)
}

func (s *sqlxDB) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	query = s.conn.Rebind(query)
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return s.conn.ExecContext(ctx, query, args...)
}
