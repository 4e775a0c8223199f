package userui

import (
	"errors"
	"net/http"
	"strings"

	"gamerlink/internal/domain"
)

func (a *app) handleFriendsGet(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))

	ov, err := a.friendsSvc.Overview(r.Context(), u.ID)
	if err != nil {
		a.logger.Error("userui: friends overview failed", "user_id", u.ID, "err", err)
		a.templates.renderError(w, http.StatusInternalServerError, "Friends", errorMessage("load_failed"))
		return
	}

	data := friendsViewData{
		Title:    "Friends",
		Nav:      "friends",
		User:     u,
		Query:    query,
		Incoming: ov.Incoming,
		Outgoing: ov.Outgoing,
		Notice:   noticeMessage(q.Get("notice")),
		Error:    errorMessage(q.Get("error")),
	}
	for _, f := range ov.Friends {
		data.Friends = append(data.Friends, friendCard{
			ID:          f.ID,
			Username:    f.Username,
			DisplayName: displayName(f),
			AvatarURL:   avatarURL(f.Avatar),
		})
	}

	if query != "" && a.usersSvc != nil {
		found, err := a.usersSvc.Search(r.Context(), query, 20, u.ID)
		switch {
		case err == nil:
			data.Results = annotateResults(found, ov)
		case errors.Is(err, domain.ErrValidation):
			data.Error = validationMessage(err)
		default:
			a.logger.Error("userui: user search failed", "user_id", u.ID, "err", err)
			data.Error = errorMessage("load_failed")
		}
	}

	a.templates.renderFriends(w, http.StatusOK, data)
}

func annotateResults(found []domain.UserSummary, ov domain.FriendsOverview) []searchResult {
	friends := make(map[string]bool, len(ov.Friends))
	for _, f := range ov.Friends {
		friends[f.ID] = true
	}
	outgoing := make(map[string]bool, len(ov.Outgoing))
	for _, fr := range ov.Outgoing {
		outgoing[fr.User.ID] = true
	}
	incoming := make(map[string]bool, len(ov.Incoming))
	for _, fr := range ov.Incoming {
		incoming[fr.User.ID] = true
	}

	out := make([]searchResult, 0, len(found))
	for _, s := range found {
		out = append(out, searchResult{
			ID:          s.ID,
			Username:    s.Username,
			DisplayName: displayName(s),
			IsFriend:    friends[s.ID],
			IsOutgoing:  outgoing[s.ID],
			IsIncoming:  incoming[s.ID],
		})
	}
	return out
}

func (a *app) handleFriendRequest(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	if err := r.ParseForm(); err != nil {
		redirectTo(w, r, "/app/friends", "", "", "invalid_form")
		return
	}
	query := strings.TrimSpace(r.FormValue("q"))
	username := strings.TrimSpace(r.FormValue("username"))
	if username == "" {
		redirectTo(w, r, "/app/friends", query, "", "username_required")
		return
	}

	if _, err := a.friendsSvc.CreateRequest(r.Context(), u.ID, username); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			redirectTo(w, r, "/app/friends", query, "", "user_not_found")
		case errors.Is(err, domain.ErrFriendshipExists):
			redirectTo(w, r, "/app/friends", query, "", "already_requested")
		case errors.Is(err, domain.ErrForbidden):
			redirectTo(w, r, "/app/friends", query, "", "user_unavailable")
		case errors.Is(err, domain.ErrValidation):
			redirectTo(w, r, "/app/friends", query, "", "invalid_request")
		default:
			a.logger.Error("userui: friend request failed", "user_id", u.ID, "err", err)
			redirectTo(w, r, "/app/friends", query, "", "save_failed")
		}
		return
	}
	redirectTo(w, r, "/app/friends", query, "request_sent", "")
}

type requestAction func(r *http.Request, userID, requestID string) error

func (a *app) handleFriendAccept(w http.ResponseWriter, r *http.Request) {
	a.transitionRequest(w, r, "request_accepted", func(r *http.Request, userID, requestID string) error {
		return a.friendsSvc.Accept(r.Context(), userID, requestID)
	})
}

func (a *app) handleFriendDecline(w http.ResponseWriter, r *http.Request) {
	a.transitionRequest(w, r, "request_declined", func(r *http.Request, userID, requestID string) error {
		return a.friendsSvc.Decline(r.Context(), userID, requestID)
	})
}

func (a *app) handleFriendCancel(w http.ResponseWriter, r *http.Request) {
	a.transitionRequest(w, r, "request_cancelled", func(r *http.Request, userID, requestID string) error {
		return a.friendsSvc.Cancel(r.Context(), userID, requestID)
	})
}

func (a *app) transitionRequest(w http.ResponseWriter, r *http.Request, notice string, act requestAction) {
	u := userFrom(r)
	if err := r.ParseForm(); err != nil {
		redirectTo(w, r, "/app/friends", "", "", "invalid_form")
		return
	}
	requestID := strings.TrimSpace(r.FormValue("request_id"))
	if requestID == "" {
		redirectTo(w, r, "/app/friends", "", "", "invalid_request")
		return
	}

	if err := act(r, u.ID, requestID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			redirectTo(w, r, "/app/friends", "", "", "request_not_found")
			return
		}
		a.logger.Error("userui: friend request update failed", "user_id", u.ID, "request_id", requestID, "err", err)
		redirectTo(w, r, "/app/friends", "", "", "save_failed")
		return
	}
	redirectTo(w, r, "/app/friends", "", notice, "")
}

func (a *app) handleFriendRemove(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	if err := r.ParseForm(); err != nil {
		redirectTo(w, r, "/app/friends", "", "", "invalid_form")
		return
	}
	friendID := strings.TrimSpace(r.FormValue("friend_id"))

	if err := a.friendsSvc.DeleteFriend(r.Context(), u.ID, friendID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			redirectTo(w, r, "/app/friends", "", "", "friend_not_found")
		case errors.Is(err, domain.ErrValidation):
			redirectTo(w, r, "/app/friends", "", "", "invalid_request")
		default:
			a.logger.Error("userui: delete friend failed", "user_id", u.ID, "friend_id", friendID, "err", err)
			redirectTo(w, r, "/app/friends", "", "", "save_failed")
		}
		return
	}
	redirectTo(w, r, "/app/friends", "", "friend_removed", "")
}
