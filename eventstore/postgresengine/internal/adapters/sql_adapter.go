package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for sql.DB (driver: lib/pq).
type SQLAdapter struct {
	stdAdapter
}

func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{
		stdAdapter: stdAdapter{
			query: func(ctx context.Context, query string) (*sql.Rows, error) {
				return db.QueryContext(ctx, query)
			},
			exec: db.ExecContext,
		},
	}
}
