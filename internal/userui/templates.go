package userui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"gamerlink/internal/domain"
)

//go:embed templates/*.html static
var assets embed.FS

type templates struct {
	login    *template.Template
	register *template.Template
	profile  *template.Template
	library  *template.Template
	friends  *template.Template
	errorT   *template.Template
}

type viewData struct {
	Title  string
	Error  string
	Notice string
}

type loginViewData struct {
	Title  string
	Login  string
	Error  string
	Notice string
}

type registerViewData struct {
	Title    string
	Email    string
	Username string
	Error    string
}

type profileViewData struct {
	Title     string
	Nav       string
	User      domain.User
	Profile   domain.Profile
	Platforms []platformSwitch
	Timezones []string
	Avatars   []avatarChoice
	AvatarURL string
	Error     string
	Notice    string
}

type platformSwitch struct {
	Key   string
	Label string
	On    bool
}

type avatarChoice struct {
	domain.Avatar
	Selected bool
}

type libraryViewData struct {
	Title   string
	Nav     string
	User    domain.User
	Query   string
	Results []catalogResult
	Games   []domain.LibraryEntry
	Error   string
	Notice  string
}

type catalogResult struct {
	domain.CatalogGame
	Owned bool
}

type friendsViewData struct {
	Title    string
	Nav      string
	User     domain.User
	Query    string
	Results  []searchResult
	Friends  []friendCard
	Incoming []domain.FriendRequest
	Outgoing []domain.FriendRequest
	Error    string
	Notice   string
}

type searchResult struct {
	ID          string
	Username    string
	DisplayName string
	IsFriend    bool
	IsOutgoing  bool
	IsIncoming  bool
}

type friendCard struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
}

func displayName(u domain.UserSummary) string {
	if u.Gamertag != "" {
		return u.Gamertag
	}
	return u.Username
}

func avatarURL(key string) string {
	if a, ok := domain.FindAvatar(key); ok {
		return a.Image
	}
	return ""
}

var funcs = template.FuncMap{
	"displayName": displayName,
	"avatarURL":   avatarURL,
	"join":        strings.Join,
}

func parseTemplates() (*templates, error) {
	parse := func(files ...string) (*template.Template, error) {
		t, err := template.New("base").Funcs(funcs).ParseFS(assets, files...)
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	login, err := parse("templates/login.html")
	if err != nil {
		return nil, fmt.Errorf("parse login: %w", err)
	}
	register, err := parse("templates/register.html")
	if err != nil {
		return nil, fmt.Errorf("parse register: %w", err)
	}
	profile, err := parse("templates/layout.html", "templates/profile.html")
	if err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	library, err := parse("templates/layout.html", "templates/library.html")
	if err != nil {
		return nil, fmt.Errorf("parse library: %w", err)
	}
	friends, err := parse("templates/layout.html", "templates/friends.html")
	if err != nil {
		return nil, fmt.Errorf("parse friends: %w", err)
	}
	errorT, err := parse("templates/error.html")
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &templates{
		login:    login,
		register: register,
		profile:  profile,
		library:  library,
		friends:  friends,
		errorT:   errorT,
	}, nil
}

func render(w http.ResponseWriter, t *template.Template, name string, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = t.ExecuteTemplate(w, name, data)
}

func (t *templates) renderLogin(w http.ResponseWriter, status int, data any) {
	render(w, t.login, "login.html", status, data)
}

func (t *templates) renderRegister(w http.ResponseWriter, status int, data any) {
	render(w, t.register, "register.html", status, data)
}

func (t *templates) renderProfile(w http.ResponseWriter, status int, data any) {
	render(w, t.profile, "profile.html", status, data)
}

func (t *templates) renderLibrary(w http.ResponseWriter, status int, data any) {
	render(w, t.library, "library.html", status, data)
}

func (t *templates) renderFriends(w http.ResponseWriter, status int, data any) {
	render(w, t.friends, "friends.html", status, data)
}

func (t *templates) renderError(w http.ResponseWriter, status int, title, msg string) {
	render(w, t.errorT, "error.html", status, viewData{Title: title, Error: msg})
}
