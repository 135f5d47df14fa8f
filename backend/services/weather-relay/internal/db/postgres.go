package db

import (
	"context"
	"database/sql"

	libdb "weatherrelay/backend/libs/db"
)

// NewPostgres opens the readings store. The relay only reads, so the pool stays small.
func NewPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	return libdb.NewPostgresDB(ctx, dsn, libdb.PoolOptions{MaxOpenConns: 4, MaxIdleConns: 2})
}
