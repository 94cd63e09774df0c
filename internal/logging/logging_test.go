package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/hotel-session/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json outside DEV", func(t *testing.T) {
		var buf bytes.Buffer
		log := logging.NewWithWriter(&buf, "PROD", "info")
		log.Info().Str("subject", "guest-1").Msg("session restored")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "session restored", line["message"])
		require.Equal(t, "guest-1", line["subject"])
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		log := logging.NewWithWriter(&buf, "PROD", "warn")
		log.Info().Msg("dropped")
		require.Zero(t, buf.Len())
	})

	t.Run("bad level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := logging.NewWithWriter(&buf, "PROD", "loud")
		log.Debug().Msg("dropped")
		log.Info().Msg("kept")
		require.Contains(t, buf.String(), "kept")
		require.NotContains(t, buf.String(), "dropped")
	})

	t.Run("console in DEV", func(t *testing.T) {
		var buf bytes.Buffer
		log := logging.NewWithWriter(&buf, "DEV", "info")
		log.Info().Msg("hello")
		require.Contains(t, buf.String(), "hello")
		require.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
	})
}
