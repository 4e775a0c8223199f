package postgres

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const pgUniqueViolation = "23505"

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func textOrEmpty(t pgtype.Text) string {
	if t.Valid {
		return t.String
	}
	return ""
}

func timestamptzPtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	tt := t.Time
	return &tt
}

func uuidOrEmpty(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// uuidArg returns nil for ids that cannot be a uuid so lookups miss instead
// of failing with an invalid input syntax error.
func uuidArg(id string) any {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	return parsed.String()
}

func textArray(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func uniqueViolation(err error) (string, bool) {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == pgUniqueViolation {
		return pgerr.ConstraintName, true
	}
	return "", false
}
