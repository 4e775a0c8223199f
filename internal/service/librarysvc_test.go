package service

import (
	"context"
	"errors"
	"testing"

	"gamerlink/internal/domain"
)

// memGamesStore mirrors the games/linked_games tables: games unique by name,
// links unique by (user, game).
type memGamesStore struct {
	games    map[string]domain.Game
	links    map[string]map[int64]bool
	nextID   int64
	failWith error
}

func newMemGamesStore() *memGamesStore {
	return &memGamesStore{games: map[string]domain.Game{}, links: map[string]map[int64]bool{}}
}

func (m *memGamesStore) ImportGame(_ context.Context, userID string, in domain.GameInput) (domain.LibraryEntry, error) {
	if m.failWith != nil {
		return domain.LibraryEntry{}, m.failWith
	}
	g, ok := m.games[in.Name]
	if !ok {
		m.nextID++
		g.ID = m.nextID
	}
	g.Name, g.Genres, g.Art, g.Platforms = in.Name, in.Genres, in.Art, in.Platforms
	m.games[in.Name] = g

	if m.links[userID] == nil {
		m.links[userID] = map[int64]bool{}
	}
	created := !m.links[userID][g.ID]
	m.links[userID][g.ID] = true
	return domain.LibraryEntry{UserID: userID, Game: g, Created: created}, nil
}

func (m *memGamesStore) ListLibrary(_ context.Context, userID string) ([]domain.LibraryEntry, error) {
	out := []domain.LibraryEntry{}
	for _, g := range m.games {
		if m.links[userID][g.ID] {
			out = append(out, domain.LibraryEntry{UserID: userID, Game: g})
		}
	}
	return out, nil
}

func (m *memGamesStore) UnlinkGame(_ context.Context, userID string, gameID int64) error {
	if !m.links[userID][gameID] {
		return domain.ErrNotFound
	}
	delete(m.links[userID], gameID)
	return nil
}

type stubCatalog struct {
	t       *testing.T
	getFunc func(context.Context, int64) (domain.CatalogGame, error)
}

func (s *stubCatalog) Get(ctx context.Context, id int64) (domain.CatalogGame, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, id)
	}
	s.t.Fatalf("Get called unexpectedly")
	return domain.CatalogGame{}, errors.New("unexpected call")
}

var eldenRing = domain.GameInput{
	Name:      "Elden Ring",
	Genres:    []string{"Action", "RPG"},
	Art:       "https://media.example/elden.jpg",
	Platforms: []string{"PC", "PlayStation 5"},
}

func TestLibraryServiceImportLinksGame(t *testing.T) {
	games := newMemGamesStore()
	svc := &LibraryService{Games: games}

	entry, err := svc.ImportGame(context.Background(), "user-1", eldenRing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.Created || entry.Game.Name != "Elden Ring" || entry.Game.ID == 0 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if len(entry.Game.Genres) != 2 || entry.Game.Platforms[1] != "PlayStation 5" {
		t.Fatalf("unexpected game fields: %+v", entry.Game)
	}
}

func TestLibraryServiceReimportKeepsSingleLink(t *testing.T) {
	games := newMemGamesStore()
	svc := &LibraryService{Games: games}
	ctx := context.Background()

	first, err := svc.ImportGame(ctx, "user-1", eldenRing)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	second, err := svc.ImportGame(ctx, "user-1", eldenRing)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if second.Created || second.Game.ID != first.Game.ID {
		t.Fatalf("expected existing link, got %+v", second)
	}

	lib, _ := svc.List(ctx, "user-1")
	if len(lib) != 1 {
		t.Fatalf("expected one library entry, got %d", len(lib))
	}
}

func TestLibraryServiceLastImporterWins(t *testing.T) {
	games := newMemGamesStore()
	svc := &LibraryService{Games: games}
	ctx := context.Background()

	if _, err := svc.ImportGame(ctx, "user-1", eldenRing); err != nil {
		t.Fatalf("import: %v", err)
	}
	updated := eldenRing
	updated.Art = "https://media.example/elden-v2.jpg"
	entry, err := svc.ImportGame(ctx, "user-2", updated)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !entry.Created || entry.Game.Art != updated.Art {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if len(games.games) != 1 {
		t.Fatalf("expected one shared game row, got %d", len(games.games))
	}
	for _, user := range []string{"user-1", "user-2"} {
		if n := len(games.links[user]); n != 1 {
			t.Fatalf("expected one link for %s, got %d", user, n)
		}
	}
}

func TestLibraryServiceImportRejectsEmptyName(t *testing.T) {
	svc := &LibraryService{Games: newMemGamesStore()}

	_, err := svc.ImportGame(context.Background(), "user-1", domain.GameInput{Name: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLibraryServiceImportSurfacesStoreFailure(t *testing.T) {
	games := newMemGamesStore()
	games.failWith = errors.New("link insert failed")
	svc := &LibraryService{Games: games}

	if _, err := svc.ImportGame(context.Background(), "user-1", eldenRing); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLibraryServiceImportByCatalogID(t *testing.T) {
	svc := &LibraryService{
		Games: newMemGamesStore(),
		Catalog: &stubCatalog{t: t, getFunc: func(_ context.Context, id int64) (domain.CatalogGame, error) {
			if id != 326243 {
				t.Fatalf("unexpected catalog id: %d", id)
			}
			return domain.CatalogGame{CatalogID: id, Name: eldenRing.Name, Genres: eldenRing.Genres, Art: eldenRing.Art, Platforms: eldenRing.Platforms}, nil
		}},
	}

	entry, err := svc.ImportByCatalogID(context.Background(), "user-1", 326243)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Game.Name != "Elden Ring" || entry.Game.Art != eldenRing.Art {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestLibraryServiceImportByCatalogIDNotFound(t *testing.T) {
	svc := &LibraryService{
		Games: newMemGamesStore(),
		Catalog: &stubCatalog{t: t, getFunc: func(context.Context, int64) (domain.CatalogGame, error) {
			return domain.CatalogGame{}, domain.ErrNotFound
		}},
	}

	if _, err := svc.ImportByCatalogID(context.Background(), "user-1", 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLibraryServiceRemove(t *testing.T) {
	svc := &LibraryService{Games: newMemGamesStore()}
	ctx := context.Background()

	entry, _ := svc.ImportGame(ctx, "user-1", eldenRing)
	if err := svc.Remove(ctx, "user-1", entry.Game.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.Remove(ctx, "user-1", entry.Game.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}
