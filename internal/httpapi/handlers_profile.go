package httpapi

import (
	"net/http"
	"strings"

	"gamerlink/internal/domain"
	"gamerlink/internal/service"
	"gamerlink/internal/validate"
)

func (a *api) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	p, err := a.profileSvc.Load(r.Context(), u.ID)
	if err != nil {
		a.logger.Error("load profile failed", "user_id", u.ID, "err", err)
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

type profileUpdateRequest struct {
	Gamertag *string `json:"gamertag" validate:"omitempty,gamertag"`
	Timezone *string `json:"timezone" validate:"omitempty,timezone"`
	Avatar   *string `json:"avatar" validate:"omitempty,avatar"`
}

func (a *api) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req profileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.Gamertag != nil {
		trimmed := strings.TrimSpace(*req.Gamertag)
		req.Gamertag = &trimmed
	}
	if err := validate.Struct(req); err != nil {
		WriteDomainError(w, err)
		return
	}
	if req.Gamertag == nil && req.Timezone == nil && req.Avatar == nil {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"body": "no fields to update"}))
		return
	}

	p, err := a.profileSvc.Update(r.Context(), u.ID, service.ProfileUpdate{
		Gamertag: req.Gamertag,
		Timezone: req.Timezone,
		Avatar:   req.Avatar,
	})
	if err != nil {
		a.logger.Error("update profile failed", "user_id", u.ID, "err", err)
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

type toggleResponse struct {
	Platform domain.Platform `json:"platform"`
	Owned    bool            `json:"owned"`
}

func (a *api) handleProfileTogglePlatform(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	key := strings.ToLower(strings.TrimSpace(r.PathValue("platform")))
	if err := validate.Var("platform", key, "required,platform"); err != nil {
		WriteDomainError(w, err)
		return
	}

	owned, err := a.profileSvc.TogglePlatform(r.Context(), u.ID, key)
	if err != nil {
		a.logger.Error("toggle platform failed", "user_id", u.ID, "platform", key, "err", err)
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toggleResponse{Platform: domain.Platform(key), Owned: owned})
}

func (a *api) handleProfileOptions(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"platforms": domain.AllPlatforms,
		"timezones": domain.Timezones,
		"avatars":   domain.Avatars,
	})
}
