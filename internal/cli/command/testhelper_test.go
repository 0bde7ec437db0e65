package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/dashlink/internal/cli/config"
)

// mockServer routes by path prefix, longest registered prefix first.
type mockServer struct {
	*httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []*http.Request
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Clone(context.Background()))
		var best string
		for pattern := range m.handlers {
			if strings.HasPrefix(r.URL.Path, pattern) && len(pattern) > len(best) {
				best = pattern
			}
		}
		handler := m.handlers[best]
		m.mu.Unlock()

		if handler == nil {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = handler
}

func (m *mockServer) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func unauthorized(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
}

// syncBuffer is a bytes.Buffer safe for the timer goroutines that write
// toasts and logs.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	rt     *Runtime
	server *mockServer
	clock  *clockwork.FakeClock
	out    *syncBuffer
	errOut *syncBuffer
}

func testConfig(server string) *config.CLIConfig {
	cfg := config.Default()
	cfg.Server = server
	cfg.BasePath = "/nofx/"
	cfg.Location = "/nofx/"
	cfg.Output = "json"
	cfg.Storage.Durable.Backend = config.BackendMemory
	cfg.Log.Level = "error"
	return cfg
}

func newTestEnv(t *testing.T, mutate ...func(*config.CLIConfig)) *testEnv {
	t.Helper()

	env := &testEnv{
		server: newMockServer(t),
		clock:  clockwork.NewFakeClock(),
		out:    &syncBuffer{},
		errOut: &syncBuffer{},
	}
	cfg := testConfig(env.server.URL)
	for _, fn := range mutate {
		fn(cfg)
	}

	rt, err := NewRuntime(context.Background(), cfg, RuntimeOptions{
		In:    strings.NewReader(""),
		Out:   env.out,
		Err:   env.errOut,
		Clock: env.clock,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	env.rt = rt
	return env
}

// run executes one shell line against the shared runtime.
func (e *testEnv) run(args ...string) error {
	return ShellApp(e.rt).RunContext(context.Background(), append([]string{"dashlink"}, args...))
}

// fireRedirect advances past the redirect delay and waits for it to run.
func (e *testEnv) fireRedirect(t *testing.T) {
	t.Helper()
	e.clock.Advance(e.rt.Config.Expiry.RedirectDelay)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.rt.Expiry.Wait(ctx))
}

func (e *testEnv) login(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, e.rt.Durable.Set(context.Background(), e.rt.Config.Storage.TokenKey, token))
	require.NoError(t, e.rt.Durable.Set(context.Background(), e.rt.Config.Storage.UserKey, `{"id":"u1"}`))
}

// testContext stands in for t.Context (Go 1.24+): a context canceled when
// the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
