package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gamerlink/internal/auth"
	"gamerlink/internal/domain"
)

type UsersStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error)
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error)
	SetLastLogin(ctx context.Context, userID string, when time.Time) error

	GetUserByExternalAccount(ctx context.Context, provider, providerID string) (domain.User, domain.ExternalAccount, error)
	CreateUserWithExternalAccount(ctx context.Context, provider, providerID, email, username, passwordHash string) (domain.User, domain.ExternalAccount, error)
	LinkExternalAccount(ctx context.Context, userID, provider, providerID, email string) (domain.ExternalAccount, error)
}

type SessionsStore interface {
	CreateSession(ctx context.Context, userID string, expiresAt time.Time, ip, userAgent string) (string, error)
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	RevokeSession(ctx context.Context, sessionID string, when time.Time) error
}

const maxUsernameAttempts = 5

type AuthService struct {
	Users      UsersStore
	Sessions   SessionsStore
	SessionTTL time.Duration
	Now        func() time.Time
	Logger     *slog.Logger

	GoogleClientID      string
	AppleServiceID      string
	VerifyGoogleIDToken auth.IDTokenVerifier
	VerifyAppleIDToken  auth.IDTokenVerifier
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *AuthService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Register creates the account (and its empty profile row) and opens a session.
func (s *AuthService) Register(ctx context.Context, email, username, password, ip, userAgent string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)

	if len(password) < auth.MinPasswordLength {
		return domain.User{}, "", domain.NewValidationError(map[string]string{"password": "too short"})
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}

	u, err := s.Users.CreateUser(ctx, email, username, passwordHash)
	if err != nil {
		return domain.User{}, "", err
	}

	sessID, err := s.openSession(ctx, u.ID, ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}
	return u, sessID, nil
}

func (s *AuthService) Login(ctx context.Context, login, password, ip, userAgent string) (domain.User, string, error) {
	login = strings.TrimSpace(login)

	u, err := s.Users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", domain.ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, "", domain.ErrUserDisabled
	}

	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return domain.User{}, "", err
	}
	if !ok {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	sessID, err := s.openSession(ctx, u.ID, ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}
	s.touchLastLogin(ctx, u.ID)

	return u.User, sessID, nil
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken, ip, userAgent string) (domain.User, string, error) {
	return s.loginExternal(ctx, auth.ProviderGoogle, s.VerifyGoogleIDToken, s.GoogleClientID, idToken, ip, userAgent)
}

func (s *AuthService) LoginWithApple(ctx context.Context, idToken, ip, userAgent string) (domain.User, string, error) {
	return s.loginExternal(ctx, auth.ProviderApple, s.VerifyAppleIDToken, s.AppleServiceID, idToken, ip, userAgent)
}

func (s *AuthService) loginExternal(ctx context.Context, provider string, verify auth.IDTokenVerifier, audience, idToken, ip, userAgent string) (domain.User, string, error) {
	if verify == nil || strings.TrimSpace(audience) == "" {
		return domain.User{}, "", domain.ErrForbidden
	}
	if strings.TrimSpace(idToken) == "" {
		return domain.User{}, "", domain.NewValidationError(map[string]string{"id_token": "required"})
	}

	claims, err := verify(ctx, idToken, audience)
	if err != nil || claims == nil || claims.Subject == "" {
		s.logger().Info("external id token rejected", "provider", provider, "err", err)
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	email := strings.TrimSpace(strings.ToLower(claims.Email))

	u, err := s.resolveExternalUser(ctx, provider, claims.Subject, email)
	if err != nil {
		return domain.User{}, "", err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, "", domain.ErrUserDisabled
	}

	sessID, err := s.openSession(ctx, u.ID, ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}
	s.touchLastLogin(ctx, u.ID)

	return u, sessID, nil
}

// resolveExternalUser finds the account linked to (provider, subject). An
// unlinked identity is attached to the account with the same email, or gets
// a fresh account with a generated username and an unusable password.
func (s *AuthService) resolveExternalUser(ctx context.Context, provider, subject, email string) (domain.User, error) {
	u, _, err := s.Users.GetUserByExternalAccount(ctx, provider, subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	if email != "" {
		existing, err := s.Users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if _, err := s.Users.LinkExternalAccount(ctx, existing.ID, provider, subject, email); err != nil {
				return domain.User{}, err
			}
			return existing.User, nil
		case !errors.Is(err, domain.ErrNotFound):
			return domain.User{}, err
		}
	}

	passwordHash, err := auth.RandomPasswordHash()
	if err != nil {
		return domain.User{}, err
	}

	base := usernameBase(email)
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		username := base
		if attempt > 0 {
			username = withSuffix(base)
		}
		u, _, err := s.Users.CreateUserWithExternalAccount(ctx, provider, subject, email, username, passwordHash)
		if errors.Is(err, domain.ErrUsernameTaken) {
			continue
		}
		return u, err
	}
	return domain.User{}, domain.ErrUsernameTaken
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.Sessions.RevokeSession(ctx, sessionID, s.now())
}

// GetUserForSession resolves the signed-in user. Missing, expired and revoked
// sessions all report ErrUnauthorized.
func (s *AuthService) GetUserForSession(ctx context.Context, sessionID string) (domain.User, error) {
	sess, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	if sess.RevokedAt != nil || !s.now().Before(sess.ExpiresAt) {
		return domain.User{}, domain.ErrUnauthorized
	}

	u, err := s.Users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, domain.ErrForbidden
	}

	return u, nil
}

func (s *AuthService) openSession(ctx context.Context, userID, ip, userAgent string) (string, error) {
	return s.Sessions.CreateSession(ctx, userID, s.now().Add(s.SessionTTL), ip, userAgent)
}

func (s *AuthService) touchLastLogin(ctx context.Context, userID string) {
	if err := s.Users.SetLastLogin(ctx, userID, s.now()); err != nil {
		s.logger().Warn("set last login failed", "user_id", userID, "err", err)
	}
}

func usernameBase(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '+':
			b.WriteByte('_')
		}
		if b.Len() >= 16 {
			break
		}
	}
	name := b.String()
	if len(name) < 3 {
		name = "player"
	}
	return name
}

func withSuffix(base string) string {
	var buf [3]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return base + "_" + strings.Repeat("0", 6)
	}
	return base + "_" + hex.EncodeToString(buf[:])
}
