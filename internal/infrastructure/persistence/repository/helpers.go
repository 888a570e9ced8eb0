package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoRowsAffected is returned when an update or delete matched nothing
var ErrNoRowsAffected = errors.New("no rows affected")

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func expectOneRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNoRowsAffected)
	}
	return nil
}
