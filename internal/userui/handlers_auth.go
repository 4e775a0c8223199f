package userui

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"gamerlink/internal/auth"
	"gamerlink/internal/domain"
	"gamerlink/internal/validate"
)

const (
	loginUnavailableMsg    = "Login is unavailable. Set APP_DB_DSN and restart the server."
	registerUnavailableMsg = "Registration is unavailable. Set APP_DB_DSN and restart the server."
)

type loginForm struct {
	Login    string `form:"login" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type registerForm struct {
	Email    string `form:"email" validate:"omitempty,email,max=254"`
	Username string `form:"username" validate:"required,username"`
	Password string `form:"password" validate:"required,min=12,max=256"`
}

func (a *app) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	if a.authSvc == nil {
		a.templates.renderLogin(w, http.StatusServiceUnavailable, loginViewData{Title: "GamerLink", Error: loginUnavailableMsg})
		return
	}
	if _, _, ok := a.currentUser(r); ok {
		http.Redirect(w, r, "/app/profile", http.StatusFound)
		return
	}
	notice := noticeMessage(strings.TrimSpace(r.URL.Query().Get("notice")))
	a.templates.renderLogin(w, http.StatusOK, loginViewData{Title: "GamerLink", Notice: notice})
}

func (a *app) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if a.authSvc == nil {
		a.templates.renderLogin(w, http.StatusServiceUnavailable, loginViewData{Title: "GamerLink", Error: loginUnavailableMsg})
		return
	}
	if _, _, ok := a.currentUser(r); ok {
		http.Redirect(w, r, "/app/profile", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		a.templates.renderLogin(w, http.StatusBadRequest, loginViewData{Title: "GamerLink", Error: "Invalid form"})
		return
	}

	form := loginForm{
		Login:    strings.TrimSpace(r.FormValue("login")),
		Password: r.FormValue("password"),
	}
	if err := validate.Struct(form); err != nil {
		a.templates.renderLogin(w, http.StatusBadRequest, loginViewData{Title: "GamerLink", Login: form.Login, Error: "Username and password are required"})
		return
	}

	_, sessID, err := a.authSvc.Login(r.Context(), form.Login, form.Password, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			a.templates.renderLogin(w, http.StatusUnauthorized, loginViewData{Title: "GamerLink", Login: form.Login, Error: "Invalid username or password"})
		case errors.Is(err, domain.ErrUserDisabled):
			a.templates.renderLogin(w, http.StatusForbidden, loginViewData{Title: "GamerLink", Login: form.Login, Error: "Account disabled"})
		default:
			a.logger.Error("userui: login failed", "err", err)
			a.templates.renderLogin(w, http.StatusInternalServerError, loginViewData{Title: "GamerLink", Login: form.Login, Error: "Login failed"})
		}
		return
	}

	a.setSession(w, sessID)
	http.Redirect(w, r, "/app/profile", http.StatusFound)
}

func (a *app) handleRegisterGet(w http.ResponseWriter, r *http.Request) {
	if a.authSvc == nil {
		a.templates.renderRegister(w, http.StatusServiceUnavailable, registerViewData{Title: "Create Account", Error: registerUnavailableMsg})
		return
	}
	if _, _, ok := a.currentUser(r); ok {
		http.Redirect(w, r, "/app/profile", http.StatusFound)
		return
	}
	a.templates.renderRegister(w, http.StatusOK, registerViewData{Title: "Create Account"})
}

func (a *app) handleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if a.authSvc == nil {
		a.templates.renderRegister(w, http.StatusServiceUnavailable, registerViewData{Title: "Create Account", Error: registerUnavailableMsg})
		return
	}
	if _, _, ok := a.currentUser(r); ok {
		http.Redirect(w, r, "/app/profile", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		a.templates.renderRegister(w, http.StatusBadRequest, registerViewData{Title: "Create Account", Error: "Invalid form"})
		return
	}

	form := registerForm{
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	data := registerViewData{Title: "Create Account", Email: form.Email, Username: form.Username}
	if err := validate.Struct(form); err != nil {
		data.Error = validationMessage(err)
		a.templates.renderRegister(w, http.StatusBadRequest, data)
		return
	}

	_, sessID, err := a.authSvc.Register(r.Context(), form.Email, form.Username, form.Password, clientIP(r), r.UserAgent())
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			data.Error = "That email is already in use."
		case errors.Is(err, domain.ErrUsernameTaken):
			data.Error = "That username is taken."
		case errors.Is(err, domain.ErrValidation):
			data.Error = validationMessage(err)
		default:
			a.logger.Error("userui: register failed", "err", err)
			status = http.StatusInternalServerError
			data.Error = "Registration failed."
		}
		a.templates.renderRegister(w, status, data)
		return
	}

	a.setSession(w, sessID)
	redirectTo(w, r, "/app/profile", "", "registered", "")
}

func (a *app) handleLogoutPost(w http.ResponseWriter, r *http.Request) {
	if a.authSvc != nil {
		if _, sessID, ok := a.currentUser(r); ok && sessID != "" {
			if err := a.authSvc.Logout(r.Context(), sessID); err != nil {
				a.logger.Warn("userui: logout failed", "err", err)
			}
		}
	}
	auth.ClearSessionCookie(w, a.cookieSecure)
	redirectTo(w, r, "/app/login", "", "logged_out", "")
}

func (a *app) setSession(w http.ResponseWriter, sessID string) {
	auth.SetSessionCookie(w, a.cookieCodec.EncodeSessionID(sessID), a.sessionTTL, a.cookieSecure)
}

// validationMessage flattens validation fields into one line for a form.
func validationMessage(err error) string {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) == 0 {
		return "Please check the form and try again."
	}
	keys := make([]string, 0, len(verr.Fields))
	for k := range verr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fieldLabel(k)+" "+verr.Fields[k]+".")
	}
	return strings.Join(parts, " ")
}

func fieldLabel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
