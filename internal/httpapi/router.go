package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gamerlink/internal/auth"
	"gamerlink/internal/metrics"
	"gamerlink/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth         *service.AuthService
	Profile      *service.ProfileService
	Library      *service.LibraryService
	Catalog      *service.CatalogService
	Friends      *service.FriendsService
	Users        *service.UsersService
	CookieCodec  auth.CookieCodec
	CookieSecure bool
	SessionTTL   time.Duration

	// UI serves everything outside /v1/, /healthz and /metrics.
	UI http.Handler
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:       logger,
		isProd:       opts.IsProd,
		dbPing:       opts.DBPing,
		authSvc:      opts.Auth,
		profileSvc:   opts.Profile,
		librarySvc:   opts.Library,
		catalogSvc:   opts.Catalog,
		friendsSvc:   opts.Friends,
		usersSvc:     opts.Users,
		cookieCodec:  opts.CookieCodec,
		cookieSecure: opts.CookieSecure,
		sessionTTL:   opts.SessionTTL,
		loginLimiter: newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)
	publicMux.Handle("GET /metrics", metrics.Handler())
	if opts.UI != nil {
		publicMux.Handle("/", opts.UI)
	} else {
		publicMux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("gamerlink\n"))
		})
	}

	apiMux.HandleFunc("GET /v1/profile/options", api.handleProfileOptions)

	if api.authSvc == nil {
		apiMux.HandleFunc("POST /v1/auth/register", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/login", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/google", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/apple", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/logout", handleNotImplemented)
		apiMux.HandleFunc("GET /v1/users/me", handleNotImplemented)
	} else {
		apiMux.HandleFunc("POST /v1/auth/register", api.handleAuthRegister)
		apiMux.HandleFunc("POST /v1/auth/login", api.handleAuthLogin)
		apiMux.HandleFunc("POST /v1/auth/google", api.handleAuthLoginGoogle)
		apiMux.HandleFunc("POST /v1/auth/apple", api.handleAuthLoginApple)
		apiMux.HandleFunc("POST /v1/auth/logout", api.requireAuth(api.handleAuthLogout))
		apiMux.HandleFunc("GET /v1/users/me", api.requireAuth(api.handleUsersMe))

		if api.usersSvc != nil {
			apiMux.HandleFunc("GET /v1/users/search", api.requireAuth(api.handleUsersSearch))
		}

		if api.profileSvc != nil {
			apiMux.HandleFunc("GET /v1/profile", api.requireAuth(api.handleProfileGet))
			apiMux.HandleFunc("PATCH /v1/profile", api.requireAuth(api.handleProfileUpdate))
			apiMux.HandleFunc("POST /v1/profile/platforms/{platform}/toggle", api.requireAuth(api.handleProfileTogglePlatform))
		}

		if api.catalogSvc != nil {
			apiMux.HandleFunc("GET /v1/catalog/search", api.requireAuth(api.handleCatalogSearch))
		}

		if api.librarySvc != nil {
			apiMux.HandleFunc("GET /v1/library", api.requireAuth(api.handleLibraryList))
			apiMux.HandleFunc("POST /v1/library", api.requireAuth(api.handleLibraryImport))
			apiMux.HandleFunc("POST /v1/library/catalog/{id}", api.requireAuth(api.handleLibraryImportCatalogID))
			apiMux.HandleFunc("DELETE /v1/library/{id}", api.requireAuth(api.handleLibraryRemove))
		}

		if api.friendsSvc != nil {
			apiMux.HandleFunc("GET /v1/friends", api.requireAuth(api.handleFriendsList))
			apiMux.HandleFunc("GET /v1/friends/ids", api.requireAuth(api.handleFriendsIDs))
			apiMux.HandleFunc("DELETE /v1/friends/{id}", api.requireAuth(api.handleFriendsDelete))
			apiMux.HandleFunc("POST /v1/friends/requests", api.requireAuth(api.handleFriendsCreateRequest))
			apiMux.HandleFunc("POST /v1/friends/requests/{id}/accept", api.requireAuth(api.handleFriendsAccept))
			apiMux.HandleFunc("POST /v1/friends/requests/{id}/decline", api.requireAuth(api.handleFriendsDecline))
			apiMux.HandleFunc("POST /v1/friends/requests/{id}/cancel", api.requireAuth(api.handleFriendsCancel))
		}
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		metrics.TagRoute(r, pattern)
		// ServeHTTP, not the returned handler, so {id} path values get set.
		apiMux.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		// The UI catch-all tags its own routes.
		if _, pattern := publicMux.Handler(r); pattern != "/" {
			metrics.TagRoute(r, pattern)
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = metrics.InstrumentHandler(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	authSvc      *service.AuthService
	profileSvc   *service.ProfileService
	librarySvc   *service.LibraryService
	catalogSvc   *service.CatalogService
	friendsSvc   *service.FriendsService
	usersSvc     *service.UsersService
	cookieCodec  auth.CookieCodec
	cookieSecure bool
	sessionTTL   time.Duration

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
