package service

import (
	"context"
	"log/slog"
	"strings"

	"gamerlink/internal/domain"
	"gamerlink/internal/metrics"
)

type CatalogSearcher interface {
	Search(ctx context.Context, query string, pageSize int) ([]domain.CatalogGame, error)
}

type CatalogCache interface {
	Get(ctx context.Context, query string) ([]domain.CatalogGame, bool, error)
	Set(ctx context.Context, query string, games []domain.CatalogGame) error
}

const (
	defaultCatalogPageSize = 10
	maxCatalogPageSize     = 40
)

// CatalogService searches the external catalog. Cache is optional; cache
// failures are logged and the search falls through to the catalog.
type CatalogService struct {
	Client CatalogSearcher
	Cache  CatalogCache
	Logger *slog.Logger
}

func (s *CatalogService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *CatalogService) Search(ctx context.Context, query string, pageSize int) ([]domain.CatalogGame, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, domain.NewValidationError(map[string]string{"q": "must be at least 2 characters"})
	}
	if s.Client == nil {
		return nil, domain.ErrCatalogUnavailable
	}
	if pageSize <= 0 {
		pageSize = defaultCatalogPageSize
	}
	if pageSize > maxCatalogPageSize {
		pageSize = maxCatalogPageSize
	}

	if s.Cache != nil {
		games, ok, err := s.Cache.Get(ctx, query)
		if err != nil {
			s.logger().Warn("catalog cache read failed", "err", err)
		}
		if ok {
			metrics.RecordCatalogSearch("cache")
			return games, nil
		}
	}

	games, err := s.Client.Search(ctx, query, pageSize)
	if err != nil {
		s.logger().Error("catalog search failed", "q", query, "err", err)
		return nil, err
	}
	metrics.RecordCatalogSearch("remote")

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, query, games); err != nil {
			s.logger().Warn("catalog cache write failed", "err", err)
		}
	}
	return games, nil
}
