package postgres

import (
	"context"
	"errors"
	"fmt"

	"gamerlink/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GamesStore struct {
	pool *pgxpool.Pool
}

func NewGamesStore(pool *pgxpool.Pool) *GamesStore {
	return &GamesStore{pool: pool}
}

// ImportGame upserts the shared game row by name and links it to the user in
// one transaction. Re-importing a game the user already owns keeps the
// existing link and reports Created=false.
func (s *GamesStore) ImportGame(ctx context.Context, userID string, in domain.GameInput) (domain.LibraryEntry, error) {
	var entry domain.LibraryEntry
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		game, err := upsertGameTx(ctx, tx, in)
		if err != nil {
			return err
		}
		entry, err = linkGameTx(ctx, tx, userID, game)
		return err
	})
	if err != nil {
		return domain.LibraryEntry{}, err
	}
	return entry, nil
}

func upsertGameTx(ctx context.Context, tx pgx.Tx, in domain.GameInput) (domain.Game, error) {
	const q = `
		INSERT INTO games (name, genre, art, platform)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET genre = EXCLUDED.genre,
		    art = EXCLUDED.art,
		    platform = EXCLUDED.platform,
		    updated_at = now()
		RETURNING id, name, genre, art, platform, updated_at
	`

	var g domain.Game
	err := tx.QueryRow(ctx, q, in.Name, textArray(in.Genres), in.Art, textArray(in.Platforms)).Scan(
		&g.ID, &g.Name, &g.Genres, &g.Art, &g.Platforms, &g.UpdatedAt,
	)
	if err != nil {
		return domain.Game{}, fmt.Errorf("upsert game: %w", err)
	}
	return g, nil
}

func linkGameTx(ctx context.Context, tx pgx.Tx, userID string, game domain.Game) (domain.LibraryEntry, error) {
	const insertQ = `
		INSERT INTO linked_games (user_id, game_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, game_id) DO NOTHING
		RETURNING id, created_at
	`

	entry := domain.LibraryEntry{UserID: userID, Game: game, Created: true}
	err := tx.QueryRow(ctx, insertQ, userID, game.ID).Scan(&entry.ID, &entry.CreatedAt)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.LibraryEntry{}, fmt.Errorf("link game: %w", err)
	}

	const existingQ = `SELECT id, created_at FROM linked_games WHERE user_id = $1 AND game_id = $2`
	entry.Created = false
	if err := tx.QueryRow(ctx, existingQ, userID, game.ID).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("load existing link: %w", err)
	}
	return entry, nil
}

func (s *GamesStore) ListLibrary(ctx context.Context, userID string) ([]domain.LibraryEntry, error) {
	const q = `
		SELECT l.id, l.created_at, g.id, g.name, g.genre, g.art, g.platform, g.updated_at
		FROM linked_games l
		JOIN games g ON g.id = l.game_id
		WHERE l.user_id = $1
		ORDER BY lower(g.name) ASC
	`

	rows, err := s.pool.Query(ctx, q, uuidArg(userID))
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	defer rows.Close()

	out := []domain.LibraryEntry{}
	for rows.Next() {
		var e domain.LibraryEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Game.ID, &e.Game.Name, &e.Game.Genres, &e.Game.Art, &e.Game.Platforms, &e.Game.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan library entry: %w", err)
		}
		e.UserID = userID
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	return out, nil
}

func (s *GamesStore) UnlinkGame(ctx context.Context, userID string, gameID int64) error {
	const q = `DELETE FROM linked_games WHERE user_id = $1 AND game_id = $2`
	ct, err := s.pool.Exec(ctx, q, uuidArg(userID), gameID)
	if err != nil {
		return fmt.Errorf("unlink game: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
