package postgres

import (
	"context"
	"errors"
	"fmt"

	"gamerlink/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfilesStore struct {
	pool *pgxpool.Pool
}

func NewProfilesStore(pool *pgxpool.Pool) *ProfilesStore {
	return &ProfilesStore{pool: pool}
}

// platformColumns whitelists the boolean columns that may be interpolated
// into toggle statements.
var platformColumns = map[domain.Platform]string{
	domain.PlatformPC:          "pc",
	domain.PlatformPlayStation: "playstation",
	domain.PlatformXbox:        "xbox",
	domain.PlatformSwitch:      "switch",
}

func (s *ProfilesStore) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	const q = `
		SELECT id, pc, playstation, xbox, switch, gamertag, timezone, avatar, updated_at
		FROM profiles
		WHERE id = $1
	`

	var (
		p         domain.Profile
		idUUID    pgtype.UUID
		updatedTS pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, uuidArg(userID)).Scan(
		&idUUID,
		&p.Platforms.PC,
		&p.Platforms.PlayStation,
		&p.Platforms.Xbox,
		&p.Platforms.Switch,
		&p.Gamertag,
		&p.Timezone,
		&p.Avatar,
		&updatedTS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	p.ID = uuidOrEmpty(idUUID)
	p.UpdatedAt = timestamptzPtr(updatedTS)
	p.Exists = true
	return p, nil
}

// TogglePlatform flips one ownership flag in a single statement and returns
// the stored value. A missing row is created with the flag set.
func (s *ProfilesStore) TogglePlatform(ctx context.Context, userID string, platform domain.Platform) (bool, error) {
	col, ok := platformColumns[platform]
	if !ok {
		return false, domain.NewValidationError(map[string]string{"platform": "unknown platform"})
	}

	q := fmt.Sprintf(`
		INSERT INTO profiles (id, %[1]s)
		VALUES ($1, true)
		ON CONFLICT (id) DO UPDATE
		SET %[1]s = NOT profiles.%[1]s, updated_at = now()
		RETURNING %[1]s
	`, col)

	var value bool
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&value); err != nil {
		return false, fmt.Errorf("toggle %s: %w", col, err)
	}
	return value, nil
}

func (s *ProfilesStore) SetGamertag(ctx context.Context, userID, gamertag string) error {
	return s.setText(ctx, "gamertag", userID, gamertag)
}

func (s *ProfilesStore) SetTimezone(ctx context.Context, userID, timezone string) error {
	return s.setText(ctx, "timezone", userID, timezone)
}

func (s *ProfilesStore) SetAvatar(ctx context.Context, userID, avatar string) error {
	return s.setText(ctx, "avatar", userID, avatar)
}

// setText overwrites one text column. col must be a constant column name.
func (s *ProfilesStore) setText(ctx context.Context, col, userID, value string) error {
	q := fmt.Sprintf(`
		INSERT INTO profiles (id, %[1]s)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET %[1]s = EXCLUDED.%[1]s, updated_at = now()
	`, col)

	if _, err := s.pool.Exec(ctx, q, userID, value); err != nil {
		return fmt.Errorf("set %s: %w", col, err)
	}
	return nil
}
