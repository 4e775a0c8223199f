// Package catalog talks to the external game catalog (a RAWG-compatible API)
// and normalizes its records into the local game schema.
package catalog

import (
	"strings"

	"gamerlink/internal/domain"

	"github.com/tidwall/gjson"
)

// Normalize maps one catalog record onto the local game schema:
//
//	name                      -> Name
//	genres[].name             -> Genres
//	background_image          -> Art
//	platforms[].platform.name -> Platforms
func Normalize(raw []byte) (domain.GameInput, error) {
	if !gjson.ValidBytes(raw) {
		return domain.GameInput{}, domain.NewValidationError(map[string]string{"game": "invalid json"})
	}
	return normalizeResult(gjson.ParseBytes(raw))
}

func normalizeResult(r gjson.Result) (domain.GameInput, error) {
	if !r.IsObject() {
		return domain.GameInput{}, domain.NewValidationError(map[string]string{"game": "must be an object"})
	}

	in := domain.GameInput{
		Name:      strings.TrimSpace(r.Get("name").String()),
		Genres:    names(r.Get("genres.#.name")),
		Art:       strings.TrimSpace(r.Get("background_image").String()),
		Platforms: names(r.Get("platforms.#.platform.name")),
	}
	if in.Name == "" {
		return domain.GameInput{}, domain.NewValidationError(map[string]string{"name": "required"})
	}
	return in, nil
}

func names(list gjson.Result) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range list.Array() {
		s := strings.TrimSpace(v.String())
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func toCatalogGame(r gjson.Result) (domain.CatalogGame, bool) {
	in, err := normalizeResult(r)
	if err != nil {
		return domain.CatalogGame{}, false
	}
	return domain.CatalogGame{
		CatalogID: r.Get("id").Int(),
		Name:      in.Name,
		Genres:    in.Genres,
		Art:       in.Art,
		Platforms: in.Platforms,
		Released:  r.Get("released").String(),
	}, true
}

// ParseSearchResults extracts the usable hits of a /games search response.
// Hits without a name are dropped.
func ParseSearchResults(body []byte) ([]domain.CatalogGame, error) {
	if !gjson.ValidBytes(body) {
		return nil, domain.ErrCatalogUnavailable
	}
	out := []domain.CatalogGame{}
	for _, r := range gjson.GetBytes(body, "results").Array() {
		if g, ok := toCatalogGame(r); ok {
			out = append(out, g)
		}
	}
	return out, nil
}
