package classusage

import (
	"strings"

	"github.com/school-library/librarian/circulation/shared/core"
)

const (
	queryType = "ClassUsageReport"
)

// Query represents the intent to build usage reports. An empty ClassID reports every class.
// TopN limits the ranked books per class, 0 means unrestricted.
type Query struct {
	ClassID core.ClassIDString
	TopN    int
}

// BuildQuery creates a new Query. A negative topN is treated as unrestricted.
func BuildQuery(classID core.ClassIDString, topN int) Query {
	return Query{ClassID: strings.TrimSpace(classID), TopN: max(0, topN)}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
