package service

import (
	"context"
	"errors"
	"strings"

	"gamerlink/internal/domain"
)

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	TogglePlatform(ctx context.Context, userID string, platform domain.Platform) (bool, error)
	SetGamertag(ctx context.Context, userID, gamertag string) error
	SetTimezone(ctx context.Context, userID, timezone string) error
	SetAvatar(ctx context.Context, userID, avatar string) error
}

// ProfileService reads and writes the caller's own profile row. Field
// validation happens at the request boundary.
type ProfileService struct {
	Store ProfileStore
}

// Load returns the caller's profile. A user without a row yet gets the unset
// default (all platforms off, empty strings, Exists false).
func (s *ProfileService) Load(ctx context.Context, userID string) (domain.Profile, error) {
	p, err := s.Store.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{ID: userID}, nil
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// TogglePlatform flips one platform flag and returns the new value.
func (s *ProfileService) TogglePlatform(ctx context.Context, userID, platformKey string) (bool, error) {
	p, ok := domain.ParsePlatform(strings.ToLower(strings.TrimSpace(platformKey)))
	if !ok {
		return false, domain.NewValidationError(map[string]string{"platform": "unknown platform"})
	}
	return s.Store.TogglePlatform(ctx, userID, p)
}

func (s *ProfileService) UpdateGamertag(ctx context.Context, userID, gamertag string) error {
	return s.Store.SetGamertag(ctx, userID, strings.TrimSpace(gamertag))
}

func (s *ProfileService) UpdateTimezone(ctx context.Context, userID, timezone string) error {
	return s.Store.SetTimezone(ctx, userID, timezone)
}

func (s *ProfileService) UpdateAvatar(ctx context.Context, userID, avatar string) error {
	return s.Store.SetAvatar(ctx, userID, avatar)
}

// ProfileUpdate carries the optional fields of a partial profile edit.
type ProfileUpdate struct {
	Gamertag *string
	Timezone *string
	Avatar   *string
}

// Update applies each present field in turn and returns the reloaded profile.
// Writes are independent; a failure leaves earlier fields written.
func (s *ProfileService) Update(ctx context.Context, userID string, upd ProfileUpdate) (domain.Profile, error) {
	if upd.Gamertag != nil {
		if err := s.UpdateGamertag(ctx, userID, *upd.Gamertag); err != nil {
			return domain.Profile{}, err
		}
	}
	if upd.Timezone != nil {
		if err := s.UpdateTimezone(ctx, userID, *upd.Timezone); err != nil {
			return domain.Profile{}, err
		}
	}
	if upd.Avatar != nil {
		if err := s.UpdateAvatar(ctx, userID, *upd.Avatar); err != nil {
			return domain.Profile{}, err
		}
	}
	return s.Load(ctx, userID)
}
