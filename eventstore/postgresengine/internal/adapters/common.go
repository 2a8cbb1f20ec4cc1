package adapters

import (
	"context"
	"database/sql"
)

// stdAdapter serves both database/sql based drivers. The sql.DB and sqlx.DB
// adapters only differ in how they open the rows.
type stdAdapter struct {
	query func(ctx context.Context, query string) (*sql.Rows, error)
	exec  func(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (a stdAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	rows, err := a.query(ctx, query)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (a stdAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	return a.exec(ctx, query)
}
