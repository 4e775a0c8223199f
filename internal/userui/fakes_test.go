package userui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"gamerlink/internal/auth"
	"gamerlink/internal/domain"
	"gamerlink/internal/service"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeUsers struct {
	byID   map[string]domain.User
	hashes map[string]string
}

func (f *fakeUsers) CreateUser(_ context.Context, email, username, hash string) (domain.User, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.Username, username) {
			return domain.User{}, domain.ErrUsernameTaken
		}
	}
	u := domain.User{ID: "user-" + username, Email: email, Username: username, Status: domain.UserStatusActive}
	f.byID[u.ID] = u
	f.hashes[u.ID] = hash
	return u, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByLogin(_ context.Context, login string) (domain.UserWithPassword, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.Username, login) {
			return domain.UserWithPassword{User: u, PasswordHash: f.hashes[u.ID]}, nil
		}
	}
	return domain.UserWithPassword{}, domain.ErrNotFound
}

func (f *fakeUsers) GetUserByEmail(context.Context, string) (domain.UserWithPassword, error) {
	return domain.UserWithPassword{}, domain.ErrNotFound
}

func (f *fakeUsers) SetLastLogin(context.Context, string, time.Time) error { return nil }

func (f *fakeUsers) GetUserByExternalAccount(context.Context, string, string) (domain.User, domain.ExternalAccount, error) {
	return domain.User{}, domain.ExternalAccount{}, domain.ErrNotFound
}

func (f *fakeUsers) CreateUserWithExternalAccount(context.Context, string, string, string, string, string) (domain.User, domain.ExternalAccount, error) {
	return domain.User{}, domain.ExternalAccount{}, domain.ErrForbidden
}

func (f *fakeUsers) LinkExternalAccount(context.Context, string, string, string, string) (domain.ExternalAccount, error) {
	return domain.ExternalAccount{}, domain.ErrForbidden
}

type fakeSessions struct {
	byID map[string]string
}

func (f *fakeSessions) CreateSession(_ context.Context, userID string, _ time.Time, _, _ string) (string, error) {
	id := "sess-" + userID
	f.byID[id] = userID
	return id, nil
}

func (f *fakeSessions) GetSession(_ context.Context, sessionID string) (domain.Session, error) {
	userID, ok := f.byID[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return domain.Session{ID: sessionID, UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeSessions) RevokeSession(_ context.Context, sessionID string, _ time.Time) error {
	delete(f.byID, sessionID)
	return nil
}

type fakeProfiles struct {
	rows map[string]domain.Profile
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID string) (domain.Profile, error) {
	p, ok := f.rows[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) upsert(userID string, apply func(*domain.Profile)) {
	p, ok := f.rows[userID]
	if !ok {
		p = domain.Profile{ID: userID, Exists: true}
	}
	apply(&p)
	f.rows[userID] = p
}

func (f *fakeProfiles) TogglePlatform(_ context.Context, userID string, platform domain.Platform) (bool, error) {
	var out bool
	f.upsert(userID, func(p *domain.Profile) {
		switch platform {
		case domain.PlatformPC:
			p.Platforms.PC = !p.Platforms.PC
		case domain.PlatformPlayStation:
			p.Platforms.PlayStation = !p.Platforms.PlayStation
		case domain.PlatformXbox:
			p.Platforms.Xbox = !p.Platforms.Xbox
		case domain.PlatformSwitch:
			p.Platforms.Switch = !p.Platforms.Switch
		}
		out = p.Platforms.Owns(platform)
	})
	return out, nil
}

func (f *fakeProfiles) SetGamertag(_ context.Context, userID, v string) error {
	f.upsert(userID, func(p *domain.Profile) { p.Gamertag = v })
	return nil
}

func (f *fakeProfiles) SetTimezone(_ context.Context, userID, v string) error {
	f.upsert(userID, func(p *domain.Profile) { p.Timezone = v })
	return nil
}

func (f *fakeProfiles) SetAvatar(_ context.Context, userID, v string) error {
	f.upsert(userID, func(p *domain.Profile) { p.Avatar = v })
	return nil
}

type fakeGames struct {
	games  []domain.Game
	links  map[string][]int64
	nextID int64
}

func (f *fakeGames) ImportGame(_ context.Context, userID string, in domain.GameInput) (domain.LibraryEntry, error) {
	idx := -1
	for i, g := range f.games {
		if g.Name == in.Name {
			idx = i
		}
	}
	if idx < 0 {
		f.nextID++
		f.games = append(f.games, domain.Game{ID: f.nextID})
		idx = len(f.games) - 1
	}
	g := &f.games[idx]
	g.Name, g.Genres, g.Art, g.Platforms = in.Name, in.Genres, in.Art, in.Platforms

	for _, id := range f.links[userID] {
		if id == g.ID {
			return domain.LibraryEntry{UserID: userID, Game: *g}, nil
		}
	}
	f.links[userID] = append(f.links[userID], g.ID)
	return domain.LibraryEntry{UserID: userID, Game: *g, Created: true}, nil
}

func (f *fakeGames) ListLibrary(_ context.Context, userID string) ([]domain.LibraryEntry, error) {
	out := []domain.LibraryEntry{}
	for _, id := range f.links[userID] {
		for _, g := range f.games {
			if g.ID == id {
				out = append(out, domain.LibraryEntry{UserID: userID, Game: g})
			}
		}
	}
	return out, nil
}

func (f *fakeGames) UnlinkGame(_ context.Context, userID string, gameID int64) error {
	ids := f.links[userID]
	for i, id := range ids {
		if id == gameID {
			f.links[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type edge struct {
	id       string
	from, to string
	accepted bool
}

// fakeFriends keeps directed edges, pending or accepted.
type fakeFriends struct {
	edges []edge
	seq   int
}

func (f *fakeFriends) ListFriendIDs(_ context.Context, userID string) ([]string, error) {
	var out []string
	for _, e := range f.edges {
		if !e.accepted {
			continue
		}
		if e.from == userID {
			out = append(out, e.to)
		} else if e.to == userID {
			out = append(out, e.from)
		}
	}
	return out, nil
}

func summary(id string) domain.UserSummary {
	return domain.UserSummary{ID: id, Username: strings.TrimPrefix(id, "user-")}
}

func (f *fakeFriends) ListProfiles(_ context.Context, ids []string) ([]domain.UserSummary, error) {
	out := make([]domain.UserSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, summary(id))
	}
	return out, nil
}

func (f *fakeFriends) ListIncoming(_ context.Context, userID string) ([]domain.FriendRequest, error) {
	out := []domain.FriendRequest{}
	for _, e := range f.edges {
		if !e.accepted && e.to == userID {
			out = append(out, domain.FriendRequest{ID: e.id, User: summary(e.from)})
		}
	}
	return out, nil
}

func (f *fakeFriends) ListOutgoing(_ context.Context, userID string) ([]domain.FriendRequest, error) {
	out := []domain.FriendRequest{}
	for _, e := range f.edges {
		if !e.accepted && e.from == userID {
			out = append(out, domain.FriendRequest{ID: e.id, User: summary(e.to)})
		}
	}
	return out, nil
}

func (f *fakeFriends) DeleteFriend(_ context.Context, a, b string) error {
	return f.remove(func(e edge) bool {
		return e.accepted && ((e.from == a && e.to == b) || (e.from == b && e.to == a))
	})
}

func (f *fakeFriends) CreateRequest(_ context.Context, requesterID, recipientID string) (domain.FriendEdge, error) {
	for _, e := range f.edges {
		if (e.from == requesterID && e.to == recipientID) || (e.from == recipientID && e.to == requesterID) {
			return domain.FriendEdge{}, domain.ErrFriendshipExists
		}
	}
	f.seq++
	e := edge{id: "req-" + strconv.Itoa(f.seq), from: requesterID, to: recipientID}
	f.edges = append(f.edges, e)
	return domain.FriendEdge{ID: e.id, UserID: requesterID, FriendID: recipientID, Status: domain.FriendStatusPending}, nil
}

func (f *fakeFriends) Accept(_ context.Context, requestID, recipientID string, _ time.Time) error {
	for i, e := range f.edges {
		if e.id == requestID && e.to == recipientID && !e.accepted {
			f.edges[i].accepted = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeFriends) Decline(_ context.Context, requestID, recipientID string) error {
	return f.remove(func(e edge) bool { return e.id == requestID && e.to == recipientID && !e.accepted })
}

func (f *fakeFriends) Cancel(_ context.Context, requestID, requesterID string) error {
	return f.remove(func(e edge) bool { return e.id == requestID && e.from == requesterID && !e.accepted })
}

func (f *fakeFriends) remove(match func(edge) bool) error {
	kept := f.edges[:0]
	removed := false
	for _, e := range f.edges {
		if match(e) {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	f.edges = kept
	if !removed {
		return domain.ErrNotFound
	}
	return nil
}

type fakeCatalog struct {
	games []domain.CatalogGame
	err   error
}

func (f *fakeCatalog) Search(context.Context, string, int) ([]domain.CatalogGame, error) {
	return f.games, f.err
}

func (f *fakeCatalog) Get(_ context.Context, id int64) (domain.CatalogGame, error) {
	if f.err != nil {
		return domain.CatalogGame{}, f.err
	}
	for _, g := range f.games {
		if g.CatalogID == id {
			return g, nil
		}
	}
	return domain.CatalogGame{}, domain.ErrNotFound
}

type stubSearch struct {
	results []domain.UserSummary
}

func (s stubSearch) SearchUsers(context.Context, string, int, string) ([]domain.UserSummary, error) {
	return s.results, nil
}

type testEnv struct {
	handler  http.Handler
	codec    auth.CookieCodec
	users    *fakeUsers
	sessions *fakeSessions
	profiles *fakeProfiles
	games    *fakeGames
	friends  *fakeFriends
	catalog  *fakeCatalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		codec:    auth.NewCookieCodec(testSecret),
		users:    &fakeUsers{byID: map[string]domain.User{}, hashes: map[string]string{}},
		sessions: &fakeSessions{byID: map[string]string{}},
		profiles: &fakeProfiles{rows: map[string]domain.Profile{}},
		games:    &fakeGames{links: map[string][]int64{}},
		friends:  &fakeFriends{},
		catalog:  &fakeCatalog{},
	}
	for _, name := range []string{"alice", "bob", "carol"} {
		id := "user-" + name
		env.users.byID[id] = domain.User{ID: id, Username: name, Status: domain.UserStatusActive}
	}

	search := stubSearch{results: []domain.UserSummary{summary("user-bob"), summary("user-carol")}}
	env.handler = New(Opts{
		Auth:        &service.AuthService{Users: env.users, Sessions: env.sessions, SessionTTL: time.Hour},
		Profile:     &service.ProfileService{Store: env.profiles},
		Library:     &service.LibraryService{Games: env.games, Catalog: env.catalog},
		Catalog:     &service.CatalogService{Client: env.catalog},
		Friends:     &service.FriendsService{Users: env.users, Store: env.friends},
		Users:       &service.UsersService{Store: search},
		CookieCodec: env.codec,
		SessionTTL:  time.Hour,
	})
	return env
}

func (e *testEnv) get(t *testing.T, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	return e.send(t, httptest.NewRequest(http.MethodGet, path, nil), userID)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.send(t, req, userID)
}

// send issues req as userID ("" for anonymous).
func (e *testEnv) send(t *testing.T, req *http.Request, userID string) *httptest.ResponseRecorder {
	t.Helper()
	if userID != "" {
		sessID := "sess-" + userID
		e.sessions.byID[sessID] = userID
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: e.codec.EncodeSessionID(sessID)})
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
