package connection

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/dashlink/internal/core/domain"
	"github.com/yndnr/dashlink/internal/core/eventbus"
	"github.com/yndnr/dashlink/internal/core/expiry"
	"github.com/yndnr/dashlink/internal/storage/memory"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		status      int
		body        string
		wantErr     error
		wantDetails string
		wantExpiry  int32
	}{
		{401, `{"error":"token expired"}`, domain.ErrSessionExpired, "token expired", 1},
		{403, `{"message":"admin only"}`, domain.ErrForbidden, "admin only", 0},
		{404, "no such trader\nmore", domain.ErrNotFound, "no such trader", 0},
		{500, "<html>boom</html>", domain.ErrServerError, "", 0},
		{502, "", domain.ErrServerError, "", 0},
		{599, `{}`, domain.ErrServerError, "", 0},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			expirer := &countingExpirer{}
			body := &trackingBody{Reader: strings.NewReader(tt.body)}
			resp := &http.Response{StatusCode: tt.status, Body: body}

			got, err := NewClassifier(expirer).Classify(context.Background(), resp)

			assert.Nil(t, got)
			require.ErrorIs(t, err, tt.wantErr)
			var de *domain.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.status, de.Status)
			assert.Equal(t, tt.wantDetails, de.Details)
			assert.Equal(t, tt.wantErr.(*domain.DomainError).Message, de.Message, "fixed user-facing message")
			assert.True(t, body.closed, "body must be closed on failure")
			assert.Equal(t, tt.wantExpiry, expirer.calls.Load())
		})
	}
}

func TestClassifier_PassThrough(t *testing.T) {
	for _, status := range []int{200, 201, 204, 301, 304, 400, 409, 418, 429, 499} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			expirer := &countingExpirer{}
			body := &trackingBody{Reader: strings.NewReader("payload")}
			resp := &http.Response{StatusCode: status, Body: body}

			got, err := NewClassifier(expirer).Classify(context.Background(), resp)

			require.NoError(t, err)
			assert.Same(t, resp, got)
			assert.False(t, body.closed, "pass-through body stays open for the caller")
			assert.Zero(t, expirer.calls.Load())
		})
	}
}

func TestClassifier_NilExpirer(t *testing.T) {
	resp := &http.Response{StatusCode: 401, Body: io.NopCloser(strings.NewReader(""))}
	_, err := NewClassifier(nil).Classify(context.Background(), resp)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestReadDetail_Bounded(t *testing.T) {
	long := strings.Repeat("x", 10000)
	got := readDetail(strings.NewReader(long))
	assert.LessOrEqual(t, len(got), 203)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestReadDetail_TruncatesOnRuneBoundary(t *testing.T) {
	// Byte 200 falls inside a two-byte rune.
	long := "a" + strings.Repeat("é", 300)
	got := readDetail(strings.NewReader(long))

	assert.True(t, utf8.ValidString(got), "detail %q is not valid UTF-8", got)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "a"+strings.Repeat("é", 99)+"...", got)
}

type recordingToaster struct {
	count atomic.Int32
}

func (r *recordingToaster) Warning(string, time.Duration) { r.count.Add(1) }

type staticNavigator struct{}

func (staticNavigator) Current() domain.Location { return domain.ParseLocation("/dashboard") }
func (staticNavigator) Navigate(string)          {}

type countingDurable struct {
	*memory.Store
	deletes atomic.Int32
}

func (c *countingDurable) Delete(ctx context.Context, key string) error {
	c.deletes.Add(1)
	return c.Store.Delete(ctx, key)
}

func TestHTTPClient_ConcurrentUnauthorizedSingleEpisode(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	durable := &countingDurable{Store: memory.New()}
	ctx := context.Background()
	require.NoError(t, durable.Set(ctx, "auth_token", "t"))
	require.NoError(t, durable.Set(ctx, "auth_user", "u"))

	bus := eventbus.New()
	var published atomic.Int32
	bus.Subscribe(eventbus.TopicUnauthorized, func(eventbus.Topic) { published.Add(1) })
	toaster := &recordingToaster{}

	coord := expiry.New(expiry.DefaultConfig(), expiry.Deps{
		Durable:   durable,
		Session:   memory.New(),
		Events:    bus,
		Toaster:   toaster,
		Navigator: staticNavigator{},
	}, expiry.WithClock(clockwork.NewFakeClock()))

	client := NewHTTPClient(server.URL, NewClassifier(coord))

	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Get(ctx, "/api/positions", nil)
		}(i)
	}
	close(release)
	wg.Wait()

	for i, err := range errs {
		assert.ErrorIs(t, err, domain.ErrSessionExpired, "request %d", i)
	}
	assert.Equal(t, int32(2), durable.deletes.Load(), "token and user deleted exactly once")
	assert.Equal(t, int32(1), published.Load())
	assert.Equal(t, int32(1), toaster.count.Load())
	assert.Equal(t, uint64(1), coord.Episode())

	_, err := durable.Get(ctx, "auth_token")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}
