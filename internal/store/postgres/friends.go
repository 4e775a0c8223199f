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

type FriendsStore struct {
	pool *pgxpool.Pool
}

func NewFriendsStore(pool *pgxpool.Pool) *FriendsStore {
	return &FriendsStore{pool: pool}
}

// CreateRequest stores a pending (requester, recipient) edge. An edge in
// either direction already existing is reported as ErrFriendshipExists.
func (s *FriendsStore) CreateRequest(ctx context.Context, requesterID, recipientID string) (domain.FriendEdge, error) {
	const q = `
		INSERT INTO friends (user_id, friend_id, status)
		SELECT $1::uuid, $2::uuid, 'pending'
		WHERE NOT EXISTS (
			SELECT 1 FROM friends WHERE user_id = $2 AND friend_id = $1
		)
		RETURNING id, created_at
	`

	edge := domain.FriendEdge{UserID: requesterID, FriendID: recipientID, Status: domain.FriendStatusPending}
	var idUUID pgtype.UUID
	err := s.pool.QueryRow(ctx, q, requesterID, recipientID).Scan(&idUUID, &edge.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FriendEdge{}, domain.ErrFriendshipExists
		}
		if c, ok := uniqueViolation(err); ok && c == "friends_pair_uq" {
			return domain.FriendEdge{}, domain.ErrFriendshipExists
		}
		return domain.FriendEdge{}, fmt.Errorf("create friend request: %w", err)
	}
	edge.ID = uuidOrEmpty(idUUID)
	return edge, nil
}

func (s *FriendsStore) Accept(ctx context.Context, requestID, recipientID string, when time.Time) error {
	const q = `
		UPDATE friends
		SET status = 'accepted', updated_at = $3
		WHERE id = $1 AND friend_id = $2 AND status = 'pending'
	`
	return s.execOne(ctx, "accept friend request", q, uuidArg(requestID), recipientID, when)
}

func (s *FriendsStore) Decline(ctx context.Context, requestID, recipientID string) error {
	const q = `DELETE FROM friends WHERE id = $1 AND friend_id = $2 AND status = 'pending'`
	return s.execOne(ctx, "decline friend request", q, uuidArg(requestID), recipientID)
}

func (s *FriendsStore) Cancel(ctx context.Context, requestID, requesterID string) error {
	const q = `DELETE FROM friends WHERE id = $1 AND user_id = $2 AND status = 'pending'`
	return s.execOne(ctx, "cancel friend request", q, uuidArg(requestID), requesterID)
}

// DeleteFriend removes an accepted friendship whichever side requested it.
func (s *FriendsStore) DeleteFriend(ctx context.Context, userID, friendID string) error {
	const q = `
		DELETE FROM friends
		WHERE status = 'accepted'
		  AND ((user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1))
	`
	return s.execOne(ctx, "delete friend", q, userID, uuidArg(friendID))
}

func (s *FriendsStore) execOne(ctx context.Context, op, q string, args ...any) error {
	ct, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListFriendIDs unions accepted edges in both directions.
func (s *FriendsStore) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	const q = `
		SELECT friend_id FROM friends WHERE user_id = $1 AND status = 'accepted'
		UNION
		SELECT user_id FROM friends WHERE friend_id = $1 AND status = 'accepted'
	`

	rows, err := s.pool.Query(ctx, q, uuidArg(userID))
	if err != nil {
		return nil, fmt.Errorf("list friend ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var idUUID pgtype.UUID
		if err := rows.Scan(&idUUID); err != nil {
			return nil, fmt.Errorf("scan friend id: %w", err)
		}
		out = append(out, uuidOrEmpty(idUUID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friend ids: %w", err)
	}
	return out, nil
}

func (s *FriendsStore) ListProfiles(ctx context.Context, ids []string) ([]domain.UserSummary, error) {
	if len(ids) == 0 {
		return []domain.UserSummary{}, nil
	}

	const q = `
		SELECT u.id, u.username, coalesce(p.gamertag, ''), coalesce(p.avatar, '')
		FROM users u
		LEFT JOIN profiles p ON p.id = u.id
		WHERE u.id = ANY($1::uuid[])
		ORDER BY lower(coalesce(nullif(p.gamertag, ''), u.username)) ASC
	`

	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("list friend profiles: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows, "list friend profiles")
}

func (s *FriendsStore) ListIncoming(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	const q = `
		SELECT f.id, f.created_at, u.id, u.username, coalesce(p.gamertag, ''), coalesce(p.avatar, '')
		FROM friends f
		JOIN users u ON u.id = f.user_id
		LEFT JOIN profiles p ON p.id = u.id
		WHERE f.status = 'pending' AND f.friend_id = $1
		ORDER BY f.created_at DESC
	`
	return s.listRequests(ctx, "list incoming requests", q, userID)
}

func (s *FriendsStore) ListOutgoing(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	const q = `
		SELECT f.id, f.created_at, u.id, u.username, coalesce(p.gamertag, ''), coalesce(p.avatar, '')
		FROM friends f
		JOIN users u ON u.id = f.friend_id
		LEFT JOIN profiles p ON p.id = u.id
		WHERE f.status = 'pending' AND f.user_id = $1
		ORDER BY f.created_at DESC
	`
	return s.listRequests(ctx, "list outgoing requests", q, userID)
}

func (s *FriendsStore) listRequests(ctx context.Context, op, q, userID string) ([]domain.FriendRequest, error) {
	rows, err := s.pool.Query(ctx, q, uuidArg(userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []domain.FriendRequest{}
	for rows.Next() {
		var (
			fr        domain.FriendRequest
			reqIDUUID pgtype.UUID
			userUUID  pgtype.UUID
		)
		if err := rows.Scan(&reqIDUUID, &fr.CreatedAt, &userUUID, &fr.User.Username, &fr.User.Gamertag, &fr.User.Avatar); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		fr.ID = uuidOrEmpty(reqIDUUID)
		fr.User.ID = uuidOrEmpty(userUUID)
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func scanSummaries(rows pgx.Rows, op string) ([]domain.UserSummary, error) {
	out := []domain.UserSummary{}
	for rows.Next() {
		var (
			u      domain.UserSummary
			idUUID pgtype.UUID
		)
		if err := rows.Scan(&idUUID, &u.Username, &u.Gamertag, &u.Avatar); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		u.ID = uuidOrEmpty(idUUID)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
