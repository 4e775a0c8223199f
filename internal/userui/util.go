package userui

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"gamerlink/internal/domain"
)

func withUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

func userFrom(r *http.Request) domain.User {
	u, _ := r.Context().Value(userCtxKey{}).(domain.User)
	return u
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// redirectTo sends the browser back to page with an optional query, notice
// code and error code.
func redirectTo(w http.ResponseWriter, r *http.Request, page, q, notice, errCode string) {
	values := url.Values{}
	if q != "" {
		values.Set("q", q)
	}
	if notice != "" {
		values.Set("notice", notice)
	}
	if errCode != "" {
		values.Set("error", errCode)
	}

	target := page
	if len(values) > 0 {
		target = target + "?" + values.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

var noticeMessages = map[string]string{
	"registered":        "Welcome! Set up your gamer profile.",
	"logged_out":        "You have been logged out.",
	"profile_saved":     "Profile saved.",
	"platform_on":       "Platform added.",
	"platform_off":      "Platform removed.",
	"game_added":        "Game added to your library.",
	"game_already":      "That game is already in your library.",
	"game_removed":      "Game removed.",
	"request_sent":      "Friend request sent.",
	"request_accepted":  "Friend request accepted.",
	"request_declined":  "Friend request declined.",
	"request_cancelled": "Friend request cancelled.",
	"friend_removed":    "Friend removed.",
}

var errorMessages = map[string]string{
	"invalid_form":        "Invalid form submission.",
	"invalid_request":     "Invalid request.",
	"username_required":   "Enter a username.",
	"user_not_found":      "No player with that username.",
	"already_requested":   "You are already friends or a request is pending.",
	"user_unavailable":    "That player is unavailable.",
	"request_not_found":   "That request no longer exists.",
	"friend_not_found":    "That player is not in your friends list.",
	"game_not_found":      "That game was not found.",
	"catalog_unavailable": "The game catalog is unavailable. Try again later.",
	"save_failed":         "Could not save your changes. Try again.",
	"load_failed":         "Could not load this page. Try again.",
}

func noticeMessage(code string) string { return noticeMessages[code] }

func errorMessage(code string) string {
	if code == "" {
		return ""
	}
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Something went wrong."
}
