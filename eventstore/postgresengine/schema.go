package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/school-library/librarian/eventstore"
)

// schemaStatements returns the DDL for the events table and its indexes.
// The GIN index with jsonb_path_ops serves the payload containment predicates.
func (es EventStore) schemaStatements() []sqlQueryString {
	table := pgx.Identifier{es.eventTableName}.Sanitize()
	typeIndex := pgx.Identifier{es.eventTableName + "_event_type_idx"}.Sanitize()
	payloadIndex := pgx.Identifier{es.eventTableName + "_payload_idx"}.Sanitize()

	return []sqlQueryString{
		`CREATE TABLE IF NOT EXISTS ` + table + ` (
			sequence_number BIGSERIAL PRIMARY KEY,
			event_type TEXT NOT NULL,
			occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
			payload JSONB NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)`,
		`CREATE INDEX IF NOT EXISTS ` + typeIndex + ` ON ` + table + ` (event_type)`,
		`CREATE INDEX IF NOT EXISTS ` + payloadIndex + ` ON ` + table + ` USING gin (payload jsonb_path_ops)`,
	}
}

// EnsureSchema creates the events table and its indexes if they do not exist yet.
func (es EventStore) EnsureSchema(ctx context.Context) error {
	start := time.Now()

	for _, statement := range es.schemaStatements() {
		if _, err := es.db.Exec(ctx, statement); err != nil {
			es.logError(ctx, logMsgSchemaFailed, err, logAttrTable, es.eventTableName)
			es.recordError(ctx, operationSchema, errorTypeDatabaseExec)

			return errors.Join(eventstore.ErrEnsuringSchemaFailed, err)
		}

		es.logQueryWithDuration(ctx, statement, operationSchema, time.Since(start))
	}

	es.logOperation(ctx, logMsgSchemaEnsured, logAttrTable, es.eventTableName, logAttrDurationMS, toMilliseconds(time.Since(start)))

	return nil
}
