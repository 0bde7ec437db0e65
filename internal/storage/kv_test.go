package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTake(t *testing.T) {
	s := openTestBadger(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "returnUrl", "/traders?id=3"))

	v, ok, err := Take(ctx, s, "returnUrl")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/traders?id=3", v)

	v, ok, err = Take(ctx, s, "returnUrl")
	require.NoError(t, err)
	assert.False(t, ok, "second take finds nothing")
	assert.Empty(t, v)
}

func TestLookup(t *testing.T) {
	s := openTestBadger(t)
	ctx := context.Background()

	_, ok, err := Lookup(ctx, s, "auth_user")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "auth_user", "{}"))
	v, ok, err := Lookup(ctx, s, "auth_user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "{}", v)
}
