package classborrowed

import (
	"strings"

	"github.com/school-library/librarian/circulation/shared/core"
)

const (
	queryType = "ClassBorrowed"
)

// Query represents the intent to list what the students of a class currently borrow.
type Query struct {
	ClassID core.ClassIDString
}

// BuildQuery creates a new Query.
func BuildQuery(classID core.ClassIDString) Query {
	return Query{ClassID: strings.TrimSpace(classID)}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
