package userui

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gamerlink/internal/domain"
)

func (a *app) handleLibraryGet(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))

	data := libraryViewData{
		Title:  "Library",
		Nav:    "library",
		User:   u,
		Query:  query,
		Notice: noticeMessage(q.Get("notice")),
		Error:  errorMessage(q.Get("error")),
	}

	games, err := a.librarySvc.List(r.Context(), u.ID)
	if err != nil {
		a.logger.Error("userui: list library failed", "user_id", u.ID, "err", err)
		a.templates.renderError(w, http.StatusInternalServerError, "Library", errorMessage("load_failed"))
		return
	}
	data.Games = games

	if query != "" {
		owned := make(map[string]bool, len(games))
		for _, g := range games {
			owned[strings.ToLower(g.Game.Name)] = true
		}

		hits, err := a.searchCatalog(r, query)
		switch {
		case err == nil:
			for _, h := range hits {
				data.Results = append(data.Results, catalogResult{CatalogGame: h, Owned: owned[strings.ToLower(h.Name)]})
			}
		case errors.Is(err, domain.ErrValidation):
			data.Error = validationMessage(err)
		case errors.Is(err, domain.ErrCatalogUnavailable):
			data.Error = errorMessage("catalog_unavailable")
		default:
			a.logger.Error("userui: catalog search failed", "user_id", u.ID, "err", err)
			data.Error = errorMessage("catalog_unavailable")
		}
	}

	a.templates.renderLibrary(w, http.StatusOK, data)
}

func (a *app) searchCatalog(r *http.Request, query string) ([]domain.CatalogGame, error) {
	if a.catalogSvc == nil {
		return nil, domain.ErrCatalogUnavailable
	}
	return a.catalogSvc.Search(r.Context(), query, 0)
}

func (a *app) handleLibraryAdd(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	if err := r.ParseForm(); err != nil {
		redirectTo(w, r, "/app/library", "", "", "invalid_form")
		return
	}
	query := strings.TrimSpace(r.FormValue("q"))

	catalogID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("catalog_id")), 10, 64)
	if err != nil || catalogID <= 0 {
		redirectTo(w, r, "/app/library", query, "", "invalid_request")
		return
	}

	entry, err := a.librarySvc.ImportByCatalogID(r.Context(), u.ID, catalogID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			redirectTo(w, r, "/app/library", query, "", "game_not_found")
		case errors.Is(err, domain.ErrCatalogUnavailable):
			redirectTo(w, r, "/app/library", query, "", "catalog_unavailable")
		default:
			redirectTo(w, r, "/app/library", query, "", "save_failed")
		}
		return
	}

	notice := "game_already"
	if entry.Created {
		notice = "game_added"
	}
	redirectTo(w, r, "/app/library", query, notice, "")
}

func (a *app) handleLibraryRemove(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	if err := r.ParseForm(); err != nil {
		redirectTo(w, r, "/app/library", "", "", "invalid_form")
		return
	}

	gameID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("game_id")), 10, 64)
	if err != nil || gameID <= 0 {
		redirectTo(w, r, "/app/library", "", "", "invalid_request")
		return
	}

	if err := a.librarySvc.Remove(r.Context(), u.ID, gameID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			redirectTo(w, r, "/app/library", "", "", "game_not_found")
			return
		}
		a.logger.Error("userui: remove game failed", "user_id", u.ID, "game_id", gameID, "err", err)
		redirectTo(w, r, "/app/library", "", "", "save_failed")
		return
	}
	redirectTo(w, r, "/app/library", "", "game_removed", "")
}
