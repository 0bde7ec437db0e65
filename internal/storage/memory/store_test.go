package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/dashlink/internal/core/domain"
)

func TestStore_SetGetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "returnUrl", "/dashboard?x=1"))
	v, err := s.Get(ctx, "returnUrl")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard?x=1", v)

	require.NoError(t, s.Delete(ctx, "returnUrl"))
	_, err = s.Get(ctx, "returnUrl")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	assert.NoError(t, s.Delete(ctx, "returnUrl"), "deleting twice is fine")
}

func TestStore_TTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(WithTTL(time.Minute), WithClock(clock))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v"))
	clock.Advance(59 * time.Second)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Sweep())
}

func TestStore_SetRestartsTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(WithTTL(time.Minute), WithClock(clock))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v1"))
	clock.Advance(50 * time.Second)
	require.NoError(t, s.Set(ctx, "k", "v2"))
	clock.Advance(50 * time.Second)

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestStore_NoTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(WithClock(clock))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v"))
	clock.Advance(24 * time.Hour)
	_, err := s.Get(ctx, "k")
	assert.NoError(t, err)
}

func TestStore_Close(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrStorageClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), domain.ErrStorageClosed)
	assert.ErrorIs(t, s.Delete(ctx, "k"), domain.ErrStorageClosed)
}

func TestStore_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			for j := 0; j < 50; j++ {
				_ = s.Set(ctx, key, "v")
				_, _ = s.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())
}
