package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gamerlink/internal/auth"
	"gamerlink/internal/domain"
	"gamerlink/internal/service"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeUsers struct {
	byID map[string]domain.User
}

func (f *fakeUsers) CreateUser(_ context.Context, email, username, _ string) (domain.User, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.Username, username) {
			return domain.User{}, domain.ErrUsernameTaken
		}
	}
	u := domain.User{ID: "user-" + username, Email: email, Username: username, Status: domain.UserStatusActive}
	f.byID[u.ID] = u
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
			return domain.UserWithPassword{User: u}, nil
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

// fakeFriends stores accepted edges only; request calls record their args.
type fakeFriends struct {
	edges        [][2]string
	profileCalls int
	lastRequest  [2]string
}

func (f *fakeFriends) ListFriendIDs(_ context.Context, userID string) ([]string, error) {
	var out []string
	for _, e := range f.edges {
		if e[0] == userID {
			out = append(out, e[1])
		} else if e[1] == userID {
			out = append(out, e[0])
		}
	}
	return out, nil
}

func (f *fakeFriends) ListProfiles(_ context.Context, ids []string) ([]domain.UserSummary, error) {
	f.profileCalls++
	out := make([]domain.UserSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.UserSummary{ID: id, Username: strings.TrimPrefix(id, "user-")})
	}
	return out, nil
}

func (f *fakeFriends) ListIncoming(context.Context, string) ([]domain.FriendRequest, error) {
	return []domain.FriendRequest{}, nil
}

func (f *fakeFriends) ListOutgoing(context.Context, string) ([]domain.FriendRequest, error) {
	return []domain.FriendRequest{}, nil
}

func (f *fakeFriends) DeleteFriend(_ context.Context, a, b string) error {
	kept := f.edges[:0]
	removed := false
	for _, e := range f.edges {
		if (e[0] == a && e[1] == b) || (e[0] == b && e[1] == a) {
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

func (f *fakeFriends) CreateRequest(_ context.Context, requesterID, recipientID string) (domain.FriendEdge, error) {
	f.lastRequest = [2]string{requesterID, recipientID}
	return domain.FriendEdge{ID: "req-1", UserID: requesterID, FriendID: recipientID, Status: domain.FriendStatusPending}, nil
}

func (f *fakeFriends) Accept(_ context.Context, requestID, recipientID string, _ time.Time) error {
	f.lastRequest = [2]string{requestID, recipientID}
	return nil
}

func (f *fakeFriends) Decline(context.Context, string, string) error { return domain.ErrNotFound }

func (f *fakeFriends) Cancel(context.Context, string, string) error { return nil }

type fakeCatalog struct {
	games []domain.CatalogGame
}

func (f *fakeCatalog) Search(context.Context, string, int) ([]domain.CatalogGame, error) {
	return f.games, nil
}

func (f *fakeCatalog) Get(_ context.Context, id int64) (domain.CatalogGame, error) {
	for _, g := range f.games {
		if g.CatalogID == id {
			return g, nil
		}
	}
	return domain.CatalogGame{}, domain.ErrNotFound
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
		users:    &fakeUsers{byID: map[string]domain.User{}},
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

	env.handler = NewRouter(RouterOpts{
		Auth:        &service.AuthService{Users: env.users, Sessions: env.sessions, SessionTTL: time.Hour},
		Profile:     &service.ProfileService{Store: env.profiles},
		Library:     &service.LibraryService{Games: env.games, Catalog: env.catalog},
		Catalog:     &service.CatalogService{Client: env.catalog},
		Friends:     &service.FriendsService{Users: env.users, Store: env.friends},
		Users:       &service.UsersService{Store: stubSearch{}},
		CookieCodec: env.codec,
		SessionTTL:  time.Hour,
	})
	return env
}

type stubSearch struct{}

func (stubSearch) SearchUsers(_ context.Context, q string, _ int, _ string) ([]domain.UserSummary, error) {
	return []domain.UserSummary{{ID: "user-" + q, Username: q}}, nil
}

// do sends a request as userID ("" for anonymous).
func (e *testEnv) do(t *testing.T, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		sessID := "sess-" + userID
		e.sessions.byID[sessID] = userID
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: e.codec.EncodeSessionID(sessID)})
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}
