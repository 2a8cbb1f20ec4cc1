package studentborrowed

import (
	"strings"

	"github.com/school-library/librarian/circulation/shared/core"
)

const (
	queryType = "StudentBorrowed"
)

// Query represents the intent to see the loans of one student.
type Query struct {
	StudentID core.StudentIDString
}

// BuildQuery creates a new Query.
func BuildQuery(studentID core.StudentIDString) Query {
	return Query{StudentID: strings.TrimSpace(studentID)}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
