package sqlite

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()

	s, err := NewStore(path, slogx.Discard())
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, filepath.Join(t.TempDir(), "tokens.db"))

	require.Empty(t, s.Get(invsdk.TokenAccess))

	s.Set(invsdk.TokenAccess, "a1")
	s.Set(invsdk.TokenRefresh, "r1")
	s.Set(invsdk.TokenAccess, "a2")
	require.Equal(t, "a2", s.Get(invsdk.TokenAccess))
	require.Equal(t, "r1", s.Get(invsdk.TokenRefresh))

	_, ok := s.UpdatedAt(invsdk.TokenAccess)
	require.True(t, ok)

	s.Set(invsdk.TokenAccess, "")
	require.Equal(t, "a2", s.Get(invsdk.TokenAccess), "empty writes are ignored")

	s.Clear()
	require.Empty(t, s.Get(invsdk.TokenAccess))
	require.Empty(t, s.Get(invsdk.TokenRefresh))
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "tokens.db")

	first, err := NewStore(path, slogx.Discard())
	require.NoError(t, err)
	require.NoError(t, first.ApplyMigrations())
	first.Set(invsdk.TokenRefresh, "r1")
	require.NoError(t, first.Close())

	second := newTestStore(t, path)
	require.Equal(t, "r1", second.Get(invsdk.TokenRefresh))
}

func TestStoreConcurrentWrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, filepath.Join(t.TempDir(), "tokens.db"))

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set(invsdk.TokenAccess, "a")
			if i%2 == 0 {
				s.Get(invsdk.TokenAccess)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, "a", s.Get(invsdk.TokenAccess))
}

func TestStoreClosedReadsAbsent(t *testing.T) {
	t.Parallel()

	s, err := NewStore(filepath.Join(t.TempDir(), "tokens.db"), slogx.Discard())
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	s.Set(invsdk.TokenAccess, "a")
	require.NoError(t, s.Close())

	require.Empty(t, s.Get(invsdk.TokenAccess))
	s.Set(invsdk.TokenAccess, "b")
	s.Clear()
}
