package service

import (
	"context"
	"strings"

	"gamerlink/internal/domain"
)

type UsersSearchStore interface {
	SearchUsers(ctx context.Context, q string, limit int, excludeUserID string) ([]domain.UserSummary, error)
}

type UsersService struct {
	Store UsersSearchStore
}

const maxSearchLimit = 50

// Search finds players by username or gamertag, excluding the caller.
func (s *UsersService) Search(ctx context.Context, q string, limit int, excludeUserID string) ([]domain.UserSummary, error) {
	q = strings.TrimSpace(q)
	if len(q) < 3 {
		return nil, domain.NewValidationError(map[string]string{"q": "must be at least 3 characters"})
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = 20
	}
	return s.Store.SearchUsers(ctx, q, limit, excludeUserID)
}
