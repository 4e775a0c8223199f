package domain

import "time"

type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

// FriendEdge is a directed (requester, recipient) row in the friends table.
type FriendEdge struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	FriendID  string       `json:"friend_id"`
	Status    FriendStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

type FriendRequest struct {
	ID        string      `json:"id"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

type FriendsOverview struct {
	Friends  []UserSummary   `json:"friends"`
	Incoming []FriendRequest `json:"incoming_requests"`
	Outgoing []FriendRequest `json:"outgoing_requests"`
}
