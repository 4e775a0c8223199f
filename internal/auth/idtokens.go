package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendrickPhan/go-verify-apple-id-token/validator"
	"google.golang.org/api/idtoken"
)

const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

var ErrMissingIDToken = errors.New("missing id token")

// ExternalTokenClaims are the identity fields taken from a verified
// third-party id token.
type ExternalTokenClaims struct {
	Provider string
	Issuer   string
	Subject  string
	Email    string
}

// IDTokenVerifier checks a provider id token against the expected audience.
type IDTokenVerifier func(ctx context.Context, token, audience string) (*ExternalTokenClaims, error)

func VerifyGoogleIDToken(ctx context.Context, tokenString, expectedAud string) (*ExternalTokenClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingIDToken
	}
	if strings.TrimSpace(expectedAud) == "" {
		return nil, errors.New("google sign-in not configured")
	}

	payload, err := idtoken.Validate(ctx, tokenString, expectedAud)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}
	switch payload.Issuer {
	case "accounts.google.com", "https://accounts.google.com":
	default:
		return nil, fmt.Errorf("unexpected issuer: %s", payload.Issuer)
	}

	email, _ := payload.Claims["email"].(string)
	return &ExternalTokenClaims{
		Provider: ProviderGoogle,
		Issuer:   payload.Issuer,
		Subject:  payload.Subject,
		Email:    normalizeEmail(email),
	}, nil
}

func VerifyAppleIDToken(_ context.Context, tokenString, expectedAud string) (*ExternalTokenClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingIDToken
	}
	if strings.TrimSpace(expectedAud) == "" {
		return nil, errors.New("apple sign-in not configured")
	}

	tok, err := validator.NewClient().VerifyIdToken(expectedAud, tokenString)
	if err != nil {
		return nil, fmt.Errorf("validate apple id token: %w", err)
	}
	if tok.Iss != "https://appleid.apple.com" {
		return nil, fmt.Errorf("unexpected issuer: %s", tok.Iss)
	}

	return &ExternalTokenClaims{
		Provider: ProviderApple,
		Issuer:   tok.Iss,
		Subject:  tok.Sub,
		Email:    normalizeEmail(tok.Email),
	}, nil
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
