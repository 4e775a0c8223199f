package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamerlink/internal/auth"
	"gamerlink/internal/catalog"
	"gamerlink/internal/config"
	"gamerlink/internal/httpapi"
	"gamerlink/internal/service"
	"gamerlink/internal/store/postgres"
	"gamerlink/internal/userui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	var (
		authSvc    *service.AuthService
		profileSvc *service.ProfileService
		librarySvc *service.LibraryService
		friendsSvc *service.FriendsService
		usersSvc   *service.UsersService
		dbPing     func(context.Context) error
	)

	catalogClient := catalog.NewClient(catalog.ClientOpts{
		BaseURL:    cfg.CatalogURL,
		APIKey:     cfg.CatalogAPIKey,
		RatePerSec: cfg.CatalogRatePerSec,
	})
	catalogSvc := &service.CatalogService{Client: catalogClient, Logger: logger}

	if cfg.RedisURL != "" {
		cache, err := catalog.NewRedisCache(cfg.RedisURL, cfg.CatalogCacheTTL)
		if err != nil {
			logger.Error("redis config invalid", "err", err)
			os.Exit(1)
		}
		defer cache.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cache.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, catalog cache disabled", "err", err)
		} else {
			catalogSvc.Cache = cache
			logger.Info("catalog cache enabled", "ttl", cfg.CatalogCacheTTL)
		}
		cancel()
	}

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		if cfg.Migrate {
			db := postgres.SQLDB(pgPool)
			err := postgres.Migrate(context.Background(), db)
			_ = db.Close()
			if err != nil {
				logger.Error("db migrate failed", "err", err)
				os.Exit(1)
			}
			logger.Info("db migrations applied")
		}

		users := postgres.NewUsersStore(pgPool)
		sessions := postgres.NewSessionsStore(pgPool)
		profiles := postgres.NewProfilesStore(pgPool)
		games := postgres.NewGamesStore(pgPool)
		friends := postgres.NewFriendsStore(pgPool)
		userSearch := postgres.NewUserSearchStore(pgPool)

		authSvc = &service.AuthService{
			Users:               users,
			Sessions:            sessions,
			SessionTTL:          cfg.SessionTTL,
			Logger:              logger,
			GoogleClientID:      cfg.GoogleClientID,
			AppleServiceID:      cfg.AppleServiceID,
			VerifyGoogleIDToken: auth.VerifyGoogleIDToken,
			VerifyAppleIDToken:  auth.VerifyAppleIDToken,
		}
		profileSvc = &service.ProfileService{Store: profiles}
		librarySvc = &service.LibraryService{
			Games:   games,
			Catalog: catalogClient,
			Logger:  logger,
		}
		friendsSvc = &service.FriendsService{
			Users: users,
			Store: friends,
		}
		usersSvc = &service.UsersService{Store: userSearch}
		dbPing = pgPool.Ping
	} else {
		logger.Warn("APP_DB_DSN not set; only /healthz and /metrics are served")
	}

	cookieCodec := auth.NewCookieCodec([]byte(cfg.CookieSecret))

	var ui http.Handler
	if authSvc != nil {
		ui = userui.New(userui.Opts{
			Logger:       logger,
			Auth:         authSvc,
			Profile:      profileSvc,
			Library:      librarySvc,
			Catalog:      catalogSvc,
			Friends:      friendsSvc,
			Users:        usersSvc,
			CookieCodec:  cookieCodec,
			CookieSecure: cfg.CookieSecure(),
			SessionTTL:   cfg.SessionTTL,
		})
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:       logger,
		IsProd:       cfg.IsProd(),
		DBPing:       dbPing,
		Auth:         authSvc,
		Profile:      profileSvc,
		Library:      librarySvc,
		Catalog:      catalogSvc,
		Friends:      friendsSvc,
		Users:        usersSvc,
		CookieCodec:  cookieCodec,
		CookieSecure: cfg.CookieSecure(),
		SessionTTL:   cfg.SessionTTL,
		UI:           ui,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
