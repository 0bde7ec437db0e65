package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/dashlink/internal/cli/navigation"
	"github.com/yndnr/dashlink/internal/core/domain"
	"github.com/yndnr/dashlink/internal/core/eventbus"
	"github.com/yndnr/dashlink/internal/storage"
	"github.com/yndnr/dashlink/internal/storage/memory"
)

type countingResetter struct {
	n       atomic.Int32
	onReset func()
}

func (r *countingResetter) Reset() {
	r.n.Add(1)
	if r.onReset != nil {
		r.onReset()
	}
}

type harness struct {
	svc     *Service
	durable storage.KV
	session storage.KV
	browser *navigation.Browser
	bus     *eventbus.Bus
	resets  *countingResetter
}

func newHarness(t *testing.T, handler http.HandlerFunc) *harness {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	h := &harness{
		durable: memory.New(),
		session: memory.New(),
		browser: navigation.New("/nofx/login"),
		bus:     eventbus.New(),
		resets:  &countingResetter{},
	}
	h.svc = NewService(Config{
		TokenKey:  "auth_token",
		UserKey:   "auth_user",
		ReturnKey: "returnUrl",
		Paths:     domain.NewPaths("/nofx/"),
	}, Deps{
		Server:  srv.URL + "/api",
		Durable: h.durable,
		Session: h.session,
		Expiry:  h.resets,
		Browser: h.browser,
		Events:  h.bus,
	})
	t.Cleanup(h.svc.Close)
	return h
}

func loginHandler(token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"` + token + `","user":{"id":"u1","email":"alice@example.com","plan":"pro"}}`))
	}
}

func TestLogin_NavigatesToReturnPath(t *testing.T) {
	h := newHarness(t, loginHandler("tok-1"))
	ctx := context.Background()
	require.NoError(t, h.session.Set(ctx, "returnUrl", "/nofx/traders?id=7"))

	dest, err := h.svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "/nofx/traders?id=7", dest)
	assert.Equal(t, "/nofx/traders?id=7", h.browser.Current().String())
	assert.Equal(t, int32(1), h.resets.n.Load())

	token, err := h.durable.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	rawUser, err := h.durable.Get(ctx, "auth_user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","email":"alice@example.com","plan":"pro"}`, rawUser)

	_, err = h.session.Get(ctx, "returnUrl")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound, "return path should be consumed")
}

func TestLogin_NavigatesToRootWithoutReturnPath(t *testing.T) {
	h := newHarness(t, loginHandler("tok-1"))

	dest, err := h.svc.Login(context.Background(), "alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "/nofx/", dest)
	assert.Equal(t, "/nofx/", h.browser.Current().Path)
}

func TestLogin_Rejected(t *testing.T) {
	h := newHarness(t, loginHandler("tok-1"))
	ctx := context.Background()
	require.NoError(t, h.session.Set(ctx, "returnUrl", "/nofx/traders"))

	_, err := h.svc.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, domain.ErrLoginRejected)

	assert.Equal(t, int32(0), h.resets.n.Load())
	assert.Equal(t, "/nofx/login", h.browser.Current().Path)

	v, err := h.session.Get(ctx, "returnUrl")
	require.NoError(t, err)
	assert.Equal(t, "/nofx/traders", v, "failed login must keep the return path")
}

func TestLogin_ServerError(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database down", http.StatusInternalServerError)
	})

	_, err := h.svc.Login(context.Background(), "alice", "hunter2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.NotErrorIs(t, err, domain.ErrLoginRejected)
}

func TestLogin_MissingToken(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":"u1"}}`))
	})

	_, err := h.svc.Login(context.Background(), "alice", "hunter2")
	assert.ErrorIs(t, err, domain.ErrLoginRejected)
}

func TestLogout(t *testing.T) {
	h := newHarness(t, loginHandler("tok-1"))
	ctx := context.Background()
	_, err := h.svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	require.NoError(t, h.svc.Logout(ctx))

	_, err = h.durable.Get(ctx, "auth_token")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	_, err = h.durable.Get(ctx, "auth_user")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	assert.Equal(t, "/nofx/login", h.browser.Current().Path)

	_, err = h.svc.User(ctx)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestAuthorize(t *testing.T) {
	h := newHarness(t, loginHandler("tok-1"))
	ctx := context.Background()

	hdr := http.Header{}
	h.svc.Authorize(hdr)
	assert.Empty(t, hdr.Get("Authorization"))

	require.NoError(t, h.durable.Set(ctx, "auth_token", "abc"))
	h.svc.Authorize(hdr)
	assert.Equal(t, "Bearer abc", hdr.Get("Authorization"))
}

func TestUnauthorizedEventClearsCachedUser(t *testing.T) {
	h := newHarness(t, loginHandler("tok-1"))
	ctx := context.Background()
	_, err := h.svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	// Expiry removes the durable keys before publishing.
	require.NoError(t, h.durable.Delete(ctx, "auth_user"))
	u, err := h.svc.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID, "user is served from cache until the event")

	h.bus.Publish(eventbus.TopicUnauthorized)

	_, err = h.svc.User(ctx)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestWhoami(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	h := newHarness(t, loginHandler(signed))
	ctx := context.Background()

	_, err = h.svc.Whoami(ctx)
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)

	_, err = h.svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	id, err := h.svc.Whoami(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.User.ID)
	assert.Equal(t, "alice@example.com", id.User.Email)
	assert.Equal(t, "u1", id.Subject)
	assert.True(t, exp.Equal(id.ExpiresAt))
	assert.False(t, id.Expired)
}

func TestWhoami_OpaqueToken(t *testing.T) {
	h := newHarness(t, loginHandler("not-a-jwt"))
	ctx := context.Background()
	_, err := h.svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)

	id, err := h.svc.Whoami(ctx)
	require.NoError(t, err)
	assert.Empty(t, id.Subject)
	assert.True(t, id.ExpiresAt.IsZero())
}

func TestLogin_ResetsBeforeStoringKeys(t *testing.T) {
	h := newHarness(t, loginHandler("tok-1"))
	ctx := context.Background()

	var tokenAtReset error
	h.resets.onReset = func() {
		_, tokenAtReset = h.durable.Get(ctx, "auth_token")
	}

	_, err := h.svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.ErrorIs(t, tokenAtReset, storage.ErrKeyNotFound, "token must be written after Reset")

	token, err := h.durable.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}
