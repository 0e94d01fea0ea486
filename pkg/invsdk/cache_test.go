package invsdk

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueryCache(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newQueryCache(time.Minute)
	c.now = func() time.Time { return now }

	loads := 0
	load := func() ([]int, error) {
		loads++
		return []int{1, 2}, nil
	}

	got, err := cachedList(c, cacheItems, load)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got)

	// Mutating the returned slice must not leak into the cache.
	got[0] = 99
	got, err = cachedList(c, cacheItems, load)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got)
	require.Equal(t, 1, loads)

	now = now.Add(2 * time.Minute)
	_, err = cachedList(c, cacheItems, load)
	require.NoError(t, err)
	require.Equal(t, 2, loads)

	c.invalidate(cacheItems)
	_, err = cachedList(c, cacheItems, load)
	require.NoError(t, err)
	require.Equal(t, 3, loads)
	require.Equal(t, 1, c.invalidationCount(cacheItems))

	_, err = cachedList(c, cacheUsers, func() ([]int, error) { return nil, errors.New("boom") })
	require.Error(t, err)
	_, ok := c.get(cacheUsers)
	require.False(t, ok, "errors are not cached")
}

func TestQueryCacheDropsLoadsThatRacedInvalidation(t *testing.T) {
	t.Parallel()

	for name, mutate := range map[string]func(*queryCache){
		"invalidate": func(c *queryCache) { c.invalidate(cacheItems) },
		"reset":      func(c *queryCache) { c.reset() },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := newQueryCache(time.Minute)
			got, err := cachedList(c, cacheItems, func() ([]int, error) {
				mutate(c)
				return []int{1}, nil
			})
			require.NoError(t, err)
			require.Equal(t, []int{1}, got, "the caller still gets what it loaded")

			_, ok := c.get(cacheItems)
			require.False(t, ok)
		})
	}
}

func TestQueryCacheDisabled(t *testing.T) {
	t.Parallel()

	c := newQueryCache(0)
	loads := 0
	for range 3 {
		_, err := cachedList(c, cacheItems, func() ([]int, error) {
			loads++
			return []int{1}, nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 3, loads)
}

func TestMemoryTokenStore(t *testing.T) {
	t.Parallel()

	s := NewMemoryTokenStore()
	s.Set(TokenAccess, "a")
	s.Set(TokenAccess, "")
	s.Set(TokenRefresh, "")
	require.Equal(t, "a", s.Get(TokenAccess))
	require.Empty(t, s.Get(TokenRefresh))

	s.Clear()
	require.Empty(t, s.Get(TokenAccess))
}
