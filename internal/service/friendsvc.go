package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gamerlink/internal/domain"
)

type FriendsStore interface {
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
	ListProfiles(ctx context.Context, ids []string) ([]domain.UserSummary, error)
	ListIncoming(ctx context.Context, userID string) ([]domain.FriendRequest, error)
	ListOutgoing(ctx context.Context, userID string) ([]domain.FriendRequest, error)
	DeleteFriend(ctx context.Context, userID, friendID string) error

	CreateRequest(ctx context.Context, requesterID, recipientID string) (domain.FriendEdge, error)
	Accept(ctx context.Context, requestID, recipientID string, when time.Time) error
	Decline(ctx context.Context, requestID, recipientID string) error
	Cancel(ctx context.Context, requestID, requesterID string) error
}

type FriendsService struct {
	Users UsersStore
	Store FriendsStore
	Now   func() time.Time
}

// ListFriendIDs returns the ids on the other end of every accepted edge
// touching userID, whichever side sent the request.
func (s *FriendsService) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.Store.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ListFriendProfiles fetches display rows for ids. No lookup is issued for an
// empty set.
func (s *FriendsService) ListFriendProfiles(ctx context.Context, ids []string) ([]domain.UserSummary, error) {
	if len(ids) == 0 {
		return []domain.UserSummary{}, nil
	}
	return s.Store.ListProfiles(ctx, ids)
}

func (s *FriendsService) Friends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	ids, err := s.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ListFriendProfiles(ctx, ids)
}

// DeleteFriend removes the friendship between the two users in both directions.
func (s *FriendsService) DeleteFriend(ctx context.Context, userID, friendID string) error {
	friendID = strings.TrimSpace(friendID)
	if friendID == "" {
		return domain.NewValidationError(map[string]string{"id": "required"})
	}
	if friendID == userID {
		return domain.ErrNotFound
	}
	return s.Store.DeleteFriend(ctx, userID, friendID)
}

func (s *FriendsService) Overview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	friends, err := s.Friends(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	incoming, err := s.Store.ListIncoming(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	outgoing, err := s.Store.ListOutgoing(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	return domain.FriendsOverview{Friends: friends, Incoming: incoming, Outgoing: outgoing}, nil
}

func (s *FriendsService) CreateRequest(ctx context.Context, requesterID, recipientUsername string) (domain.FriendRequest, error) {
	recipientUsername = strings.TrimSpace(recipientUsername)
	if recipientUsername == "" {
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"username": "required"})
	}

	target, err := s.Users.GetUserByLogin(ctx, recipientUsername)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.FriendRequest{}, domain.ErrNotFound
		}
		return domain.FriendRequest{}, err
	}
	if target.ID == requesterID {
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"username": "cannot friend yourself"})
	}
	if target.Status == domain.UserStatusDisabled {
		return domain.FriendRequest{}, domain.ErrForbidden
	}

	edge, err := s.Store.CreateRequest(ctx, requesterID, target.ID)
	if err != nil {
		return domain.FriendRequest{}, err
	}

	return domain.FriendRequest{
		ID:        edge.ID,
		User:      domain.UserSummary{ID: target.ID, Username: target.Username},
		CreatedAt: edge.CreatedAt,
	}, nil
}

func (s *FriendsService) Accept(ctx context.Context, recipientID, requestID string) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return s.Store.Accept(ctx, requestID, recipientID, now())
}

func (s *FriendsService) Decline(ctx context.Context, recipientID, requestID string) error {
	return s.Store.Decline(ctx, requestID, recipientID)
}

func (s *FriendsService) Cancel(ctx context.Context, requesterID, requestID string) error {
	return s.Store.Cancel(ctx, requestID, requesterID)
}
