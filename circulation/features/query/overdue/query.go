package overdue

import (
	"time"
)

const (
	queryType = "OverdueReport"
)

// Query represents the intent to list overdue loans as of a point in time.
type Query struct {
	AsOf time.Time
}

// BuildQuery creates a new Query.
func BuildQuery(asOf time.Time) Query {
	return Query{AsOf: asOf.UTC()}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
