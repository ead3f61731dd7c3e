package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	sqlxDB
	dsn string
}

func NewSQLite(dsn string) *SQLite {
	if dsn == "" {
		dsn = "./database.db"
	}
	return &SQLite{dsn: dsn}
}

func (s *SQLite) InitDB(ctx context.Context) error {
	conn, err := sqlx.Open("sqlite3", s.dsn)
	if err != nil {
		return err
	}
	// SQLite serialises writers anyway, and ":memory:" databases exist per connection.
	conn.SetMaxOpenConns(1)
	s.conn = conn

	res, err := s.conn.ExecContext(ctx, `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS drafts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    content BLOB,
    description TEXT NOT NULL DEFAULT '',
    cover_image TEXT NOT NULL DEFAULT '',
    custom_author TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft',
    user_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS drafts_user_updated ON drafts (user_id, updated_at);`)
	if err != nil {
		return err
	}

	dbLogger.Info().Any("db_result", res).Str("driver", DriverSQLite).Msg("Database initialized")
	return nil
}
