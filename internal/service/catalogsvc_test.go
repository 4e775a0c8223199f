package service

import (
	"context"
	"errors"
	"testing"

	"gamerlink/internal/domain"
)

type stubCatalogSearcher struct {
	t          *testing.T
	searchFunc func(context.Context, string, int) ([]domain.CatalogGame, error)
}

func (s *stubCatalogSearcher) Search(ctx context.Context, q string, pageSize int) ([]domain.CatalogGame, error) {
	if s.searchFunc != nil {
		return s.searchFunc(ctx, q, pageSize)
	}
	s.t.Fatalf("Search called unexpectedly")
	return nil, errors.New("unexpected call")
}

type memCatalogCache struct {
	entries map[string][]domain.CatalogGame
	getErr  error
}

func (m *memCatalogCache) Get(_ context.Context, q string) ([]domain.CatalogGame, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	g, ok := m.entries[q]
	return g, ok, nil
}

func (m *memCatalogCache) Set(_ context.Context, q string, games []domain.CatalogGame) error {
	m.entries[q] = games
	return nil
}

func TestCatalogServiceSearchCachesResults(t *testing.T) {
	calls := 0
	client := &stubCatalogSearcher{t: t, searchFunc: func(_ context.Context, q string, pageSize int) ([]domain.CatalogGame, error) {
		calls++
		if q != "elden" || pageSize != defaultCatalogPageSize {
			t.Fatalf("unexpected search args: %q %d", q, pageSize)
		}
		return []domain.CatalogGame{{CatalogID: 1, Name: "Elden Ring"}}, nil
	}}
	cache := &memCatalogCache{entries: map[string][]domain.CatalogGame{}}
	svc := &CatalogService{Client: client, Cache: cache}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		games, err := svc.Search(ctx, " elden ", 0)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(games) != 1 || games[0].Name != "Elden Ring" {
			t.Fatalf("unexpected games: %+v", games)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one remote search, got %d", calls)
	}
}

func TestCatalogServiceSearchIgnoresCacheErrors(t *testing.T) {
	client := &stubCatalogSearcher{t: t, searchFunc: func(context.Context, string, int) ([]domain.CatalogGame, error) {
		return []domain.CatalogGame{}, nil
	}}
	cache := &memCatalogCache{entries: map[string][]domain.CatalogGame{}, getErr: errors.New("redis down")}
	svc := &CatalogService{Client: client, Cache: cache}

	if _, err := svc.Search(context.Background(), "zelda", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCatalogServiceSearchValidation(t *testing.T) {
	svc := &CatalogService{Client: &stubCatalogSearcher{t: t}}
	if _, err := svc.Search(context.Background(), "x", 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	unconfigured := &CatalogService{}
	if _, err := unconfigured.Search(context.Background(), "zelda", 0); !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected catalog unavailable, got %v", err)
	}
}

func TestCatalogServiceSearchSurfacesRemoteFailure(t *testing.T) {
	client := &stubCatalogSearcher{t: t, searchFunc: func(context.Context, string, int) ([]domain.CatalogGame, error) {
		return nil, domain.ErrCatalogUnavailable
	}}
	svc := &CatalogService{Client: client}

	if _, err := svc.Search(context.Background(), "zelda", 5); !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Fatalf("expected catalog unavailable, got %v", err)
	}
}
