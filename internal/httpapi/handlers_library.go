package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"gamerlink/internal/catalog"
	"gamerlink/internal/domain"
)

func (a *api) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	games, err := a.catalogSvc.Search(r.Context(), q, size)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"results": games})
}

func (a *api) handleLibraryList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	entries, err := a.librarySvc.List(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"games": entries})
}

// handleLibraryImport accepts one catalog record in the catalog's own shape.
func (a *api) handleLibraryImport(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	raw, err := decodeRawJSON(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	in, err := catalog.Normalize(raw)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	entry, err := a.librarySvc.ImportGame(r.Context(), u.ID, in)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeLibraryEntry(w, entry)
}

func (a *api) handleLibraryImportCatalogID(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	entry, err := a.librarySvc.ImportByCatalogID(r.Context(), u.ID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeLibraryEntry(w, entry)
}

func (a *api) handleLibraryRemove(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}

	if err := a.librarySvc.Remove(r.Context(), u.ID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeLibraryEntry(w http.ResponseWriter, entry domain.LibraryEntry) {
	status := http.StatusOK
	if entry.Created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, entry)
}

func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue(name)), 10, 64)
	if err != nil || id <= 0 {
		WriteDomainError(w, domain.NewValidationError(map[string]string{name: "must be a positive integer"}))
		return 0, false
	}
	return id, true
}
