// Package sqlxrepos implements the storage repositories on PostgreSQL.
package sqlxrepos

import (
	"fmt"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

// queryArgs accumulates positional parameters while a query is being built;
// bind appends the value and returns its placeholder.
type queryArgs []interface{}

func (qa *queryArgs) bind(v interface{}) string {
	*qa = append(*qa, v)
	return fmt.Sprintf("$%d", len(*qa))
}
