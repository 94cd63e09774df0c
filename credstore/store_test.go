package credstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/hotel-session/credstore"
	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*credstore.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return credstore.NewRedis(rdb, "hotelsession", "front-desk"), mr
}

// Every backend must satisfy the same contract.
func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) credstore.Store{
		"memory": func(t *testing.T) credstore.Store {
			return credstore.NewMemory()
		},
		"file": func(t *testing.T) credstore.Store {
			return credstore.NewFile(filepath.Join(t.TempDir(), "profile", "credentials.json"))
		},
		"redis": func(t *testing.T) credstore.Store {
			s, _ := newRedisStore(t)
			return s
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("empty load", func(t *testing.T) {
				access, refresh, err := newStore(t).Load(ctx)
				require.NoError(t, err)
				require.Empty(t, access)
				require.Empty(t, refresh)
			})

			t.Run("save then load", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Save(ctx, "a1", "r1"))
				require.NoError(t, s.Save(ctx, "a2", "r2"))

				access, refresh, err := s.Load(ctx)
				require.NoError(t, err)
				require.Equal(t, "a2", access)
				require.Equal(t, "r2", refresh)
			})

			t.Run("clear is idempotent", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Save(ctx, "a1", "r1"))
				require.NoError(t, s.Clear(ctx))
				require.NoError(t, s.Clear(ctx))

				access, refresh, err := s.Load(ctx)
				require.NoError(t, err)
				require.Empty(t, access)
				require.Empty(t, refresh)
			})
		})
	}
}

func TestFile(t *testing.T) {
	ctx := context.Background()

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		require.NoError(t, credstore.NewFile(path).Save(ctx, "a1", "r1"))

		access, refresh, err := credstore.NewFile(path).Load(ctx)
		require.NoError(t, err)
		require.Equal(t, "a1", access)
		require.Equal(t, "r1", refresh)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("corrupt document surfaces as undecodable access", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o600))

		access, refresh, err := credstore.NewFile(path).Load(ctx)
		require.NoError(t, err)
		require.Equal(t, "{{{", access)
		require.Empty(t, refresh)
	})

	t.Run("unreadable path is storage unavailable", func(t *testing.T) {
		dir := t.TempDir()
		// A directory where the file should be cannot be read as a file.
		path := filepath.Join(dir, "credentials.json")
		require.NoError(t, os.Mkdir(path, 0o700))

		_, _, err := credstore.NewFile(path).Load(ctx)
		require.ErrorIs(t, err, autherrors.ErrStorageUnavailable)
	})

	t.Run("watch reports external writes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		f := credstore.NewFile(path)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changed := make(chan struct{}, 16)
		done := make(chan error, 1)
		go func() {
			done <- f.Watch(ctx, func() { changed <- struct{}{} })
		}()

		// The watcher registers asynchronously; keep writing until it notices.
		other := credstore.NewFile(path)
		require.Eventually(t, func() bool {
			_ = other.Save(context.Background(), "a1", "r1")
			select {
			case <-changed:
				return true
			default:
				return false
			}
		}, 5*time.Second, 50*time.Millisecond)

		cancel()
		require.NoError(t, <-done)
	})
}

func TestRedis(t *testing.T) {
	ctx := context.Background()

	t.Run("single hash per profile", func(t *testing.T) {
		s, mr := newRedisStore(t)
		require.NoError(t, s.Save(ctx, "a1", "r1"))

		require.Equal(t, "hotelsession:front-desk", s.Key())
		require.Equal(t, "a1", mr.HGet(s.Key(), credstore.AccessTokenKey))
		require.Equal(t, "r1", mr.HGet(s.Key(), credstore.RefreshTokenKey))
	})

	t.Run("server down is storage unavailable", func(t *testing.T) {
		s, mr := newRedisStore(t)
		mr.Close()

		_, _, err := s.Load(ctx)
		require.ErrorIs(t, err, autherrors.ErrStorageUnavailable)
	})
}
