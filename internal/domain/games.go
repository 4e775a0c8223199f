package domain

import "time"

// GameInput is a catalog record normalized into the local game schema.
type GameInput struct {
	Name      string
	Genres    []string
	Art       string
	Platforms []string
}

type Game struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Genres    []string  `json:"genre"`
	Art       string    `json:"art"`
	Platforms []string  `json:"platform"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LibraryEntry links a user to a shared catalog game.
type LibraryEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Game      Game      `json:"game"`
	CreatedAt time.Time `json:"created_at"`
	// Created is false when the user already had the game linked.
	Created bool `json:"created"`
}

// CatalogGame is one external catalog search hit.
type CatalogGame struct {
	CatalogID int64    `json:"catalog_id"`
	Name      string   `json:"name"`
	Genres    []string `json:"genres"`
	Art       string   `json:"background_image"`
	Platforms []string `json:"platforms"`
	Released  string   `json:"released,omitempty"`
}

func (g CatalogGame) Input() GameInput {
	return GameInput{Name: g.Name, Genres: g.Genres, Art: g.Art, Platforms: g.Platforms}
}
