package httpapi

import (
	"context"
	"net/http"
	"strings"

	"gamerlink/internal/domain"
	"gamerlink/internal/validate"
)

func (a *api) handleFriendsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	out, err := a.friendsSvc.Overview(r.Context(), u.ID)
	if err != nil {
		a.logger.Error("list friends failed", "user_id", u.ID, "err", err)
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (a *api) handleFriendsIDs(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	ids, err := a.friendsSvc.ListFriendIDs(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

type createFriendRequestRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

func (a *api) handleFriendsCreateRequest(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createFriendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		WriteDomainError(w, err)
		return
	}

	fr, err := a.friendsSvc.CreateRequest(r.Context(), u.ID, req.Username)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, fr)
}

type requestTransition func(ctx context.Context, userID, requestID string) error

func (a *api) handleFriendsAccept(w http.ResponseWriter, r *http.Request) {
	a.transitionRequest(w, r, a.friendsSvc.Accept)
}

func (a *api) handleFriendsDecline(w http.ResponseWriter, r *http.Request) {
	a.transitionRequest(w, r, a.friendsSvc.Decline)
}

func (a *api) handleFriendsCancel(w http.ResponseWriter, r *http.Request) {
	a.transitionRequest(w, r, a.friendsSvc.Cancel)
}

func (a *api) transitionRequest(w http.ResponseWriter, r *http.Request, apply requestTransition) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	if err := apply(r.Context(), u.ID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFriendsDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.friendsSvc.DeleteFriend(r.Context(), u.ID, r.PathValue("id")); err != nil {
		a.logger.Info("delete friend failed", "user_id", u.ID, "err", err)
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
