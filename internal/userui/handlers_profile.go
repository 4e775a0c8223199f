package userui

import (
	"errors"
	"net/http"
	"strings"

	"gamerlink/internal/domain"
	"gamerlink/internal/service"
	"gamerlink/internal/validate"
)

type profileForm struct {
	Gamertag string `form:"gamertag" validate:"omitempty,gamertag"`
	Timezone string `form:"timezone" validate:"omitempty,timezone"`
	Avatar   string `form:"avatar" validate:"omitempty,avatar"`
}

func (a *app) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	q := r.URL.Query()
	a.renderProfilePage(w, r, u, http.StatusOK, noticeMessage(q.Get("notice")), errorMessage(q.Get("error")))
}

func (a *app) renderProfilePage(w http.ResponseWriter, r *http.Request, u domain.User, status int, notice, errMsg string) {
	p, err := a.profileSvc.Load(r.Context(), u.ID)
	if err != nil {
		a.logger.Error("userui: load profile failed", "user_id", u.ID, "err", err)
		a.templates.renderError(w, http.StatusInternalServerError, "Profile", errorMessage("load_failed"))
		return
	}

	switches := make([]platformSwitch, 0, len(domain.AllPlatforms))
	for _, pl := range domain.AllPlatforms {
		switches = append(switches, platformSwitch{Key: string(pl), Label: pl.Label(), On: p.Platforms.Owns(pl)})
	}
	avatars := make([]avatarChoice, 0, len(domain.Avatars))
	for _, av := range domain.Avatars {
		avatars = append(avatars, avatarChoice{Avatar: av, Selected: av.Key == p.Avatar})
	}

	a.templates.renderProfile(w, status, profileViewData{
		Title:     "Profile",
		Nav:       "profile",
		User:      u,
		Profile:   p,
		Platforms: switches,
		Timezones: domain.Timezones,
		Avatars:   avatars,
		AvatarURL: avatarURL(p.Avatar),
		Error:     errMsg,
		Notice:    notice,
	})
}

func (a *app) handleProfilePost(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	if err := r.ParseForm(); err != nil {
		redirectTo(w, r, "/app/profile", "", "", "invalid_form")
		return
	}

	form := profileForm{
		Gamertag: strings.TrimSpace(r.FormValue("gamertag")),
		Timezone: strings.TrimSpace(r.FormValue("timezone")),
		Avatar:   strings.TrimSpace(r.FormValue("avatar")),
	}
	if err := validate.Struct(form); err != nil {
		a.renderProfilePage(w, r, u, http.StatusBadRequest, "", validationMessage(err))
		return
	}

	// The gamertag field is always posted; timezone and avatar only count
	// once a choice has been made.
	upd := service.ProfileUpdate{Gamertag: &form.Gamertag}
	if form.Timezone != "" {
		upd.Timezone = &form.Timezone
	}
	if form.Avatar != "" {
		upd.Avatar = &form.Avatar
	}

	if _, err := a.profileSvc.Update(r.Context(), u.ID, upd); err != nil {
		a.logger.Error("userui: update profile failed", "user_id", u.ID, "err", err)
		redirectTo(w, r, "/app/profile", "", "", "save_failed")
		return
	}
	redirectTo(w, r, "/app/profile", "", "profile_saved", "")
}

func (a *app) handlePlatformToggle(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	key := strings.ToLower(strings.TrimSpace(r.PathValue("platform")))

	owned, err := a.profileSvc.TogglePlatform(r.Context(), u.ID, key)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			redirectTo(w, r, "/app/profile", "", "", "invalid_request")
			return
		}
		a.logger.Error("userui: toggle platform failed", "user_id", u.ID, "platform", key, "err", err)
		redirectTo(w, r, "/app/profile", "", "", "save_failed")
		return
	}

	notice := "platform_off"
	if owned {
		notice = "platform_on"
	}
	redirectTo(w, r, "/app/profile", "", notice, "")
}
