package postgres

import (
	"context"
	"fmt"
	"strings"

	"gamerlink/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserSearchStore struct {
	pool *pgxpool.Pool
}

func NewUserSearchStore(pool *pgxpool.Pool) *UserSearchStore {
	return &UserSearchStore{pool: pool}
}

// SearchUsers matches active players by username or gamertag.
func (s *UserSearchStore) SearchUsers(ctx context.Context, q string, limit int, excludeUserID string) ([]domain.UserSummary, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.UserSummary{}, nil
	}

	like := "%" + escapeLike(q) + "%"
	const query = `
		SELECT u.id, u.username, coalesce(p.gamertag, ''), coalesce(p.avatar, '')
		FROM users u
		LEFT JOIN profiles p ON p.id = u.id
		WHERE u.status = 'active'
		  AND u.id IS DISTINCT FROM $3::uuid
		  AND (u.username ILIKE $1 OR p.gamertag ILIKE $1)
		ORDER BY u.username ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, like, limit, uuidArg(excludeUserID))
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows, "search users")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
