package query

import "strconv"

// Dialect renders bind placeholders for a database backend.
type Dialect interface {
	// Placeholder returns the placeholder for the n-th argument,
	// counting from 1.
	Placeholder(n int) string
}

type postgresDialect struct{}

func (postgresDialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

type sqliteDialect struct{}

func (sqliteDialect) Placeholder(n int) string {
	return "?" + strconv.Itoa(n)
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)
