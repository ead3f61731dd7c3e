package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Postgres struct {
	sqlxDB
	dsn string
}

func NewPostgres(dsn string) *Postgres {
	return &Postgres{dsn: dsn}
}

func (p *Postgres) InitDB(ctx context.Context) error {
	conn, err := sqlx.ConnectContext(ctx, "postgres", p.dsn)
	if err != nil {
		return err
	}
	p.conn = conn

	// updated_at stays TEXT so both drivers compare versions the same way.
	res, err := p.conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS drafts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    content BYTEA,
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

	dbLogger.Info().Any("db_result", res).Str("driver", DriverPostgres).Msg("Database initialized")
	return nil
}
