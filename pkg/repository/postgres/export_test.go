package postgres

import "database/sql"

// NewWithDB exposes newWithDB for tests that inject a mocked *sql.DB
func NewWithDB(db *sql.DB) *Postgres {
	return newWithDB(db)
}
