package navigation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/dashlink/internal/core/domain"
)

func TestBrowser_Navigate(t *testing.T) {
	b := New("/dashboard")
	assert.Equal(t, "/dashboard", b.Current().String())

	var seen []string
	b.OnNavigate(func(from, to domain.Location) {
		seen = append(seen, from.String()+" -> "+to.String())
	})

	b.Navigate("/traders?id=3")
	assert.Equal(t, domain.Location{Path: "/traders", RawQuery: "id=3"}, b.Current())
	assert.Equal(t, []string{"/dashboard -> /traders?id=3"}, seen)
	assert.Equal(t, []domain.Location{{Path: "/dashboard"}}, b.History())
}

func TestBrowser_EmptyStart(t *testing.T) {
	assert.Equal(t, "/", New("").Current().String())
}

func TestBrowser_Back(t *testing.T) {
	b := New("/")
	assert.False(t, b.Back())

	b.Navigate("/a")
	b.Navigate("/b")
	require.True(t, b.Back())
	assert.Equal(t, "/a", b.Current().String())
	require.True(t, b.Back())
	assert.Equal(t, "/", b.Current().String())
	assert.False(t, b.Back())
}

func TestBrowser_ListenerMayReadLocation(t *testing.T) {
	b := New("/")
	var got domain.Location
	b.OnNavigate(func(_, _ domain.Location) {
		got = b.Current()
	})

	b.Navigate("/login")
	assert.Equal(t, "/login", got.Path)
}

func TestBrowser_Concurrent(t *testing.T) {
	b := New("/")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Navigate("/x")
		}()
		go func() {
			defer wg.Done()
			_ = b.Current()
		}()
	}
	wg.Wait()
	assert.Len(t, b.History(), 10)
}
