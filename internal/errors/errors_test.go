package errors_test

import (
	"errors"
	"testing"

	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, autherrors.Wrapf(nil, "context %d", 1))
	})

	t.Run("keeps chain", func(t *testing.T) {
		cause := errors.New("boom")
		err := autherrors.Wrapf(autherrors.Wrapf(cause, "inner"), "outer %s", "call")
		require.EqualError(t, err, "outer call: inner: boom")
		require.True(t, autherrors.Is(err, cause))
	})

	t.Run("sentinel survives wrapping", func(t *testing.T) {
		err := autherrors.Wrapf(autherrors.ErrRefreshFailed, "exchange")
		require.True(t, autherrors.Is(err, autherrors.ErrRefreshFailed))
		require.False(t, autherrors.Is(err, autherrors.ErrRefreshExpired))
	})
}
