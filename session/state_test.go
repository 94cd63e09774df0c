package session_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/hotel-session/credential"
	"github.com/jrsteele09/hotel-session/credential/credentialtest"
	"github.com/jrsteele09/hotel-session/credstore"
	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
	"github.com/jrsteele09/hotel-session/session"
	"github.com/stretchr/testify/require"
)

// failingStore wraps a Store and fails Save while failSave is set.
type failingStore struct {
	credstore.Store
	failSave bool
	loadErr  error
}

func (f *failingStore) Save(ctx context.Context, access, refresh string) error {
	if f.failSave {
		return autherrors.ErrStorageUnavailable
	}
	return f.Store.Save(ctx, access, refresh)
}

func (f *failingStore) Load(ctx context.Context) (string, string, error) {
	if f.loadErr != nil {
		return "", "", f.loadErr
	}
	return f.Store.Load(ctx)
}

func newState(t *testing.T, store credstore.Store) *session.State {
	t.Helper()
	return session.New(context.Background(), store, credential.NewDecoder())
}

func TestNew_Rehydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store is logged out", func(t *testing.T) {
		_, ok := newState(t, credstore.NewMemory()).Current()
		require.False(t, ok)
	})

	t.Run("valid pair restores session", func(t *testing.T) {
		store := credstore.NewMemory()
		access, refresh := credentialtest.Pair(t, "guest-1", 1000, 5000)
		require.NoError(t, store.Save(ctx, access, refresh))

		sess, ok := newState(t, store).Current()
		require.True(t, ok)
		require.Equal(t, "guest-1", sess.Subject())
		require.Equal(t, "GUEST", sess.Role())
		require.Equal(t, access, sess.Access.Raw)
		require.Equal(t, refresh, sess.Refresh.Raw)
	})

	t.Run("corrupted access self-heals", func(t *testing.T) {
		store := credstore.NewMemory()
		_, refresh := credentialtest.Pair(t, "guest-1", 1000, 5000)
		require.NoError(t, store.Save(ctx, "%%%corrupted%%%", refresh))

		_, ok := newState(t, store).Current()
		require.False(t, ok)

		access, refresh, err := store.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, access)
		require.Empty(t, refresh)
	})

	t.Run("half a pair self-heals", func(t *testing.T) {
		store := credstore.NewMemory()
		access, _ := credentialtest.Pair(t, "guest-1", 1000, 5000)
		require.NoError(t, store.Save(ctx, access, ""))

		_, ok := newState(t, store).Current()
		require.False(t, ok)

		access, _, err := store.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, access)
	})

	t.Run("mismatched subjects self-heal", func(t *testing.T) {
		store := credstore.NewMemory()
		access, _ := credentialtest.Pair(t, "guest-1", 1000, 5000)
		_, refresh := credentialtest.Pair(t, "guest-2", 1000, 5000)
		require.NoError(t, store.Save(ctx, access, refresh))

		_, ok := newState(t, store).Current()
		require.False(t, ok)
	})

	t.Run("unavailable store is logged out", func(t *testing.T) {
		store := &failingStore{Store: credstore.NewMemory(), loadErr: autherrors.ErrStorageUnavailable}
		_, ok := newState(t, store).Current()
		require.False(t, ok)
	})
}

func TestState_SetAndClear(t *testing.T) {
	ctx := context.Background()

	t.Run("set round-trips through the store", func(t *testing.T) {
		store := credstore.NewMemory()
		state := newState(t, store)
		access, refresh := credentialtest.Pair(t, "guest-1", 1000, 5000)

		require.NoError(t, state.Set(ctx, access, refresh))

		storedAccess, storedRefresh, err := store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, access, storedAccess)
		require.Equal(t, refresh, storedRefresh)

		state.Clear(ctx)
		storedAccess, storedRefresh, err = store.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, storedAccess)
		require.Empty(t, storedRefresh)

		_, ok := state.Current()
		require.False(t, ok)
	})

	t.Run("malformed pair leaves state unchanged", func(t *testing.T) {
		state := newState(t, credstore.NewMemory())
		access, refresh := credentialtest.Pair(t, "guest-1", 1000, 5000)
		require.NoError(t, state.Set(ctx, access, refresh))

		err := state.Set(ctx, "garbage", refresh)
		require.ErrorIs(t, err, autherrors.ErrMalformedCredential)

		sess, ok := state.Current()
		require.True(t, ok)
		require.Equal(t, access, sess.Access.Raw)
	})

	t.Run("subject mismatch rejected", func(t *testing.T) {
		state := newState(t, credstore.NewMemory())
		access, _ := credentialtest.Pair(t, "guest-1", 1000, 5000)
		_, refresh := credentialtest.Pair(t, "guest-2", 1000, 5000)

		err := state.Set(ctx, access, refresh)
		require.ErrorIs(t, err, autherrors.ErrSubjectMismatch)

		_, ok := state.Current()
		require.False(t, ok)
	})

	t.Run("save failure leaves state unchanged", func(t *testing.T) {
		store := &failingStore{Store: credstore.NewMemory(), failSave: true}
		state := newState(t, store)
		access, refresh := credentialtest.Pair(t, "guest-1", 1000, 5000)

		err := state.Set(ctx, access, refresh)
		require.ErrorIs(t, err, autherrors.ErrStorageUnavailable)

		_, ok := state.Current()
		require.False(t, ok)
	})
}

func TestState_ConditionalMutations(t *testing.T) {
	ctx := context.Background()
	state := newState(t, credstore.NewMemory())

	access, refresh := credentialtest.Pair(t, "guest-1", 1000, 5000)
	require.NoError(t, state.Set(ctx, access, refresh))
	first, _ := state.Current()

	// A logout/login cycle replaces the session.
	state.Clear(ctx)
	otherAccess, otherRefresh := credentialtest.Pair(t, "guest-2", 1000, 5000)
	require.NoError(t, state.Set(ctx, otherAccess, otherRefresh))

	t.Run("stale SetIf is discarded", func(t *testing.T) {
		_, applied, err := state.SetIf(ctx, first.Key(), credentialtest.Access(t, "guest-1", 2000), refresh)
		require.NoError(t, err)
		require.False(t, applied)

		sess, _ := state.Current()
		require.Equal(t, "guest-2", sess.Subject())
	})

	t.Run("stale ClearIf is discarded", func(t *testing.T) {
		require.False(t, state.ClearIf(ctx, first.Key()))
		_, ok := state.Current()
		require.True(t, ok)
	})

	t.Run("matching SetIf applies", func(t *testing.T) {
		cur, _ := state.Current()
		newAccess := credentialtest.Access(t, "guest-2", 2000)

		installed, applied, err := state.SetIf(ctx, cur.Key(), newAccess, otherRefresh)
		require.NoError(t, err)
		require.True(t, applied)
		require.Equal(t, newAccess, installed.Access.Raw)

		sess, _ := state.Current()
		require.Equal(t, newAccess, sess.Access.Raw)
		require.Equal(t, cur.Key(), sess.Key())
	})

	t.Run("matching ClearIf applies", func(t *testing.T) {
		cur, _ := state.Current()
		require.True(t, state.ClearIf(ctx, cur.Key()))
		_, ok := state.Current()
		require.False(t, ok)
	})
}

func TestState_Subscribe(t *testing.T) {
	ctx := context.Background()
	state := newState(t, credstore.NewMemory())

	type event struct {
		subject string
		ok      bool
	}
	var events []event
	cancel := state.Subscribe(func(s session.Session, ok bool) {
		events = append(events, event{subject: s.Subject(), ok: ok})
	})

	access, refresh := credentialtest.Pair(t, "guest-1", 1000, 5000)
	require.NoError(t, state.Set(ctx, access, refresh))
	state.Clear(ctx)
	state.Clear(ctx) // already absent, no event
	require.Error(t, state.Set(ctx, "garbage", refresh))

	cancel()
	require.NoError(t, state.Set(ctx, access, refresh))

	require.Equal(t, []event{
		{subject: "guest-1", ok: true},
		{subject: "", ok: false},
	}, events)
}

func TestState_Reload(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemory()
	state := newState(t, store)

	notified := 0
	state.Subscribe(func(session.Session, bool) { notified++ })

	t.Run("picks up external login", func(t *testing.T) {
		access, refresh := credentialtest.Pair(t, "guest-1", 1000, 5000)
		require.NoError(t, store.Save(ctx, access, refresh))

		state.Reload(ctx)
		sess, ok := state.Current()
		require.True(t, ok)
		require.Equal(t, "guest-1", sess.Subject())
		require.Equal(t, 1, notified)
	})

	t.Run("unchanged store is quiet", func(t *testing.T) {
		state.Reload(ctx)
		require.Equal(t, 1, notified)
	})

	t.Run("picks up external logout", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		state.Reload(ctx)
		_, ok := state.Current()
		require.False(t, ok)
		require.Equal(t, 2, notified)
	})
}

func TestSession_Key(t *testing.T) {
	access, refresh := credentialtest.Pair(t, "guest-1", 1000, 5000)
	d := credential.NewDecoder()

	a, err := d.Decode(access)
	require.NoError(t, err)
	r, err := d.Decode(refresh)
	require.NoError(t, err)

	s := session.Session{Access: a, Refresh: r}
	rotated := s
	rotated.Refresh.Raw = "rotated"

	require.NotEqual(t, s.Key(), rotated.Key())
}
