package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamerlink/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

const userColumns = `id, email, username, status, created_at, updated_at, last_login_at`

type userRow struct {
	id          pgtype.UUID
	email       pgtype.Text
	lastLoginTS pgtype.Timestamptz
}

func (r *userRow) dest(u *domain.User) []any {
	return []any{&r.id, &r.email, &u.Username, &u.Status, &u.CreatedAt, &u.UpdatedAt, &r.lastLoginTS}
}

func (r *userRow) fill(u *domain.User) {
	u.ID = uuidOrEmpty(r.id)
	u.Email = textOrEmpty(r.email)
	u.LastLoginAt = timestamptzPtr(r.lastLoginTS)
}

// CreateUser inserts the account and its empty profile row together so every
// user has exactly one profile from the start.
func (s *UsersStore) CreateUser(ctx context.Context, email, username, passwordHash string) (domain.User, error) {
	var u domain.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		u, err = createUserTx(ctx, tx, email, username, passwordHash)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func createUserTx(ctx context.Context, tx pgx.Tx, email, username, passwordHash string) (domain.User, error) {
	q := `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	var (
		u   domain.User
		row userRow
	)
	if err := tx.QueryRow(ctx, q, nullIfEmpty(email), username, passwordHash).Scan(row.dest(&u)...); err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	row.fill(&u)

	const profileQ = `INSERT INTO profiles (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`
	if _, err := tx.Exec(ctx, profileQ, u.ID); err != nil {
		return domain.User{}, fmt.Errorf("create profile: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var (
		u   domain.User
		row userRow
	)
	if err := s.pool.QueryRow(ctx, q, uuidArg(id)).Scan(row.dest(&u)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	row.fill(&u)
	return u, nil
}

func (s *UsersStore) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	q := `
		SELECT ` + userColumns + `, password_hash
		FROM users
		WHERE username = $1 OR (email IS NOT NULL AND email = lower($1))
		ORDER BY (username = $1) DESC
		LIMIT 1
	`
	return s.getUserWithPassword(ctx, "get user by login", q, login)
}

func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	q := `SELECT ` + userColumns + `, password_hash FROM users WHERE email = $1 LIMIT 1`
	return s.getUserWithPassword(ctx, "get user by email", q, email)
}

func (s *UsersStore) getUserWithPassword(ctx context.Context, op, q string, arg any) (domain.UserWithPassword, error) {
	var (
		u   domain.UserWithPassword
		row userRow
	)
	dest := append(row.dest(&u.User), &u.PasswordHash)
	if err := s.pool.QueryRow(ctx, q, arg).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("%s: %w", op, err)
	}
	row.fill(&u.User)
	return u, nil
}

func (s *UsersStore) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	const q = `
		UPDATE users
		SET last_login_at = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, q, userID, when); err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return nil
}

func (s *UsersStore) GetUserByExternalAccount(ctx context.Context, provider, providerID string) (domain.User, domain.ExternalAccount, error) {
	const q = `
		SELECT u.id, u.email, u.username, u.status, u.created_at, u.updated_at, u.last_login_at,
		       e.id, e.email, e.created_at
		FROM external_accounts e
		JOIN users u ON u.id = e.user_id
		WHERE e.provider = $1 AND e.provider_id = $2
	`

	var (
		u        domain.User
		row      userRow
		ext      domain.ExternalAccount
		extID    pgtype.UUID
		extEmail pgtype.Text
	)
	dest := append(row.dest(&u), &extID, &extEmail, &ext.CreatedAt)
	if err := s.pool.QueryRow(ctx, q, provider, providerID).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ExternalAccount{}, domain.ErrNotFound
		}
		return domain.User{}, domain.ExternalAccount{}, fmt.Errorf("get user by external account: %w", err)
	}
	row.fill(&u)
	ext.ID = uuidOrEmpty(extID)
	ext.UserID = u.ID
	ext.Provider = provider
	ext.ProviderID = providerID
	ext.Email = textOrEmpty(extEmail)
	return u, ext, nil
}

func (s *UsersStore) CreateUserWithExternalAccount(ctx context.Context, provider, providerID, email, username, passwordHash string) (domain.User, domain.ExternalAccount, error) {
	var (
		u   domain.User
		ext domain.ExternalAccount
	)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		u, err = createUserTx(ctx, tx, email, username, passwordHash)
		if err != nil {
			return err
		}
		ext, err = linkExternalTx(ctx, tx, u.ID, provider, providerID, email)
		return err
	})
	if err != nil {
		return domain.User{}, domain.ExternalAccount{}, err
	}
	return u, ext, nil
}

func (s *UsersStore) LinkExternalAccount(ctx context.Context, userID, provider, providerID, email string) (domain.ExternalAccount, error) {
	var ext domain.ExternalAccount
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		ext, err = linkExternalTx(ctx, tx, userID, provider, providerID, email)
		return err
	})
	return ext, err
}

func linkExternalTx(ctx context.Context, tx pgx.Tx, userID, provider, providerID, email string) (domain.ExternalAccount, error) {
	const q = `
		INSERT INTO external_accounts (user_id, provider, provider_id, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	ext := domain.ExternalAccount{UserID: userID, Provider: provider, ProviderID: providerID, Email: email}
	var idUUID pgtype.UUID
	if err := tx.QueryRow(ctx, q, userID, provider, providerID, nullIfEmpty(email)).Scan(&idUUID, &ext.CreatedAt); err != nil {
		if c, ok := uniqueViolation(err); ok && c == "external_accounts_provider_uq" {
			return domain.ExternalAccount{}, domain.ErrExternalAccountExists
		}
		return domain.ExternalAccount{}, fmt.Errorf("link external account: %w", err)
	}
	ext.ID = uuidOrEmpty(idUUID)
	return ext, nil
}

func mapUserWriteError(err error) error {
	if c, ok := uniqueViolation(err); ok {
		switch c {
		case "users_username_uq":
			return domain.ErrUsernameTaken
		case "users_email_uq":
			return domain.ErrEmailTaken
		default:
			return fmt.Errorf("unique violation (%s): %w", c, err)
		}
	}
	return fmt.Errorf("create user: %w", err)
}
