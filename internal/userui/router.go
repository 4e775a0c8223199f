package userui

import (
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"gamerlink/internal/auth"
	"gamerlink/internal/domain"
	"gamerlink/internal/metrics"
	"gamerlink/internal/service"
)

type Opts struct {
	Logger *slog.Logger

	Auth         *service.AuthService
	Profile      *service.ProfileService
	Library      *service.LibraryService
	Catalog      *service.CatalogService
	Friends      *service.FriendsService
	Users        *service.UsersService
	CookieCodec  auth.CookieCodec
	CookieSecure bool
	SessionTTL   time.Duration
}

func New(opts Opts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Auth == nil || opts.Profile == nil || opts.Library == nil || opts.Friends == nil {
		logger.Warn("userui: missing services",
			"auth", opts.Auth != nil, "profile", opts.Profile != nil,
			"library", opts.Library != nil, "friends", opts.Friends != nil)
	}

	a := &app{
		logger:       logger,
		authSvc:      opts.Auth,
		profileSvc:   opts.Profile,
		librarySvc:   opts.Library,
		catalogSvc:   opts.Catalog,
		friendsSvc:   opts.Friends,
		usersSvc:     opts.Users,
		cookieCodec:  opts.CookieCodec,
		cookieSecure: opts.CookieSecure,
		sessionTTL:   opts.SessionTTL,
	}

	t, err := parseTemplates()
	if err != nil {
		logger.Error("userui: parse templates failed", "err", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		})
	}
	a.templates = t

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.redirectApp)
	mux.HandleFunc("GET /app", a.redirectApp)
	mux.HandleFunc("GET /app/{$}", a.redirectApp)
	mux.HandleFunc("GET /app/login", a.handleLoginGet)
	mux.HandleFunc("POST /app/login", a.handleLoginPost)
	mux.HandleFunc("GET /app/register", a.handleRegisterGet)
	mux.HandleFunc("POST /app/register", a.handleRegisterPost)
	mux.HandleFunc("POST /app/logout", a.handleLogoutPost)

	mux.HandleFunc("GET /app/profile", a.requireAuth(a.handleProfileGet))
	mux.HandleFunc("POST /app/profile", a.requireAuth(a.handleProfilePost))
	mux.HandleFunc("POST /app/profile/platforms/{platform}", a.requireAuth(a.handlePlatformToggle))

	mux.HandleFunc("GET /app/library", a.requireAuth(a.handleLibraryGet))
	mux.HandleFunc("POST /app/library/add", a.requireAuth(a.handleLibraryAdd))
	mux.HandleFunc("POST /app/library/remove", a.requireAuth(a.handleLibraryRemove))

	mux.HandleFunc("GET /app/friends", a.requireAuth(a.handleFriendsGet))
	mux.HandleFunc("POST /app/friends/requests", a.requireAuth(a.handleFriendRequest))
	mux.HandleFunc("POST /app/friends/requests/accept", a.requireAuth(a.handleFriendAccept))
	mux.HandleFunc("POST /app/friends/requests/decline", a.requireAuth(a.handleFriendDecline))
	mux.HandleFunc("POST /app/friends/requests/cancel", a.requireAuth(a.handleFriendCancel))
	mux.HandleFunc("POST /app/friends/remove", a.requireAuth(a.handleFriendRemove))

	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		logger.Error("userui: static fs setup failed", "err", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		})
	}
	static := http.StripPrefix("/app/static/", http.FileServer(http.FS(staticFS)))
	mux.Handle("GET /app/static/", static)
	mux.Handle("HEAD /app/static/", static)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		metrics.TagRoute(r, pattern)
		mux.ServeHTTP(w, r)
	})
}

type app struct {
	logger *slog.Logger

	authSvc    *service.AuthService
	profileSvc *service.ProfileService
	librarySvc *service.LibraryService
	catalogSvc *service.CatalogService
	friendsSvc *service.FriendsService
	usersSvc   *service.UsersService

	cookieCodec  auth.CookieCodec
	cookieSecure bool
	sessionTTL   time.Duration

	templates *templates
}

func (a *app) redirectApp(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/app/profile", http.StatusFound)
}

type userCtxKey struct{}

// requireAuth resolves the session once and hands the user to next through
// the request context.
func (a *app) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _, ok := a.currentUser(r)
		if !ok {
			http.Redirect(w, r, "/app/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	}
}

func (a *app) currentUser(r *http.Request) (domain.User, string, bool) {
	if a.authSvc == nil {
		return domain.User{}, "", false
	}
	sessID, ok := a.cookieCodec.SessionIDFromRequest(r)
	if !ok {
		return domain.User{}, "", false
	}
	u, err := a.authSvc.GetUserForSession(r.Context(), sessID)
	if err != nil {
		return domain.User{}, "", false
	}
	return u, sessID, true
}
