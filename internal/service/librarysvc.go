package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gamerlink/internal/domain"
	"gamerlink/internal/metrics"
)

type GamesStore interface {
	ImportGame(ctx context.Context, userID string, in domain.GameInput) (domain.LibraryEntry, error)
	ListLibrary(ctx context.Context, userID string) ([]domain.LibraryEntry, error)
	UnlinkGame(ctx context.Context, userID string, gameID int64) error
}

// CatalogLookup fetches single records from the external catalog.
type CatalogLookup interface {
	Get(ctx context.Context, catalogID int64) (domain.CatalogGame, error)
}

// LibraryService imports catalog games into the shared games table and links
// them to the caller. It never touches the caller's profile or friends.
type LibraryService struct {
	Games   GamesStore
	Catalog CatalogLookup
	Logger  *slog.Logger
}

func (s *LibraryService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// ImportGame upserts the game by name (last importer's details win) and links
// it to userID. Importing the same game again keeps a single link.
func (s *LibraryService) ImportGame(ctx context.Context, userID string, in domain.GameInput) (domain.LibraryEntry, error) {
	in = cleanGameInput(in)
	if in.Name == "" {
		metrics.RecordImport(metrics.ImportInvalid)
		return domain.LibraryEntry{}, domain.NewValidationError(map[string]string{"name": "required"})
	}

	entry, err := s.Games.ImportGame(ctx, userID, in)
	if err != nil {
		metrics.RecordImport(metrics.ImportFailed)
		s.logger().Error("import game failed", "user_id", userID, "game", in.Name, "err", err)
		return domain.LibraryEntry{}, err
	}

	if entry.Created {
		metrics.RecordImport(metrics.ImportCreated)
	} else {
		metrics.RecordImport(metrics.ImportExisted)
	}
	s.logger().Info("game imported", "user_id", userID, "game_id", entry.Game.ID, "created", entry.Created)
	return entry, nil
}

// ImportByCatalogID fetches one catalog record and imports it.
func (s *LibraryService) ImportByCatalogID(ctx context.Context, userID string, catalogID int64) (domain.LibraryEntry, error) {
	if s.Catalog == nil {
		return domain.LibraryEntry{}, domain.ErrCatalogUnavailable
	}
	if catalogID <= 0 {
		return domain.LibraryEntry{}, domain.NewValidationError(map[string]string{"id": "must be positive"})
	}

	g, err := s.Catalog.Get(ctx, catalogID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger().Error("catalog lookup failed", "catalog_id", catalogID, "err", err)
		}
		return domain.LibraryEntry{}, err
	}
	return s.ImportGame(ctx, userID, g.Input())
}

func (s *LibraryService) List(ctx context.Context, userID string) ([]domain.LibraryEntry, error) {
	return s.Games.ListLibrary(ctx, userID)
}

func (s *LibraryService) Remove(ctx context.Context, userID string, gameID int64) error {
	return s.Games.UnlinkGame(ctx, userID, gameID)
}

func cleanGameInput(in domain.GameInput) domain.GameInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Art = strings.TrimSpace(in.Art)
	if in.Genres == nil {
		in.Genres = []string{}
	}
	if in.Platforms == nil {
		in.Platforms = []string{}
	}
	return in
}
