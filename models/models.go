package models

import (
	"database/sql"
)

// NullString is a helper function to create a sql.NullString from a string.
// An empty input yields a NullString with Valid set to false.
func NullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{String: "", Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
