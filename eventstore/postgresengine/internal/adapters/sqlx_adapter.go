package adapters

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB. Rows come from QueryxContext.
type SQLXAdapter struct {
	stdAdapter
}

func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{
		stdAdapter: stdAdapter{
			query: func(ctx context.Context, query string) (*sql.Rows, error) {
				rows, err := db.QueryxContext(ctx, query)
				if err != nil {
					return nil, err
				}

				return rows.Rows, nil
			},
			exec: db.ExecContext,
		},
	}
}
