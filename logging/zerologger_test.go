package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestGetZeroLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := GetZeroLogger("engine", &buf, false)
	l.Info().Uint32(SessionKey, 7).Msg("started")
	require.Contains(t, buf.String(), `"logger":"engine"`)
	require.Contains(t, buf.String(), `"session":7`)
}

func TestSetLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)
	require.NoError(t, SetLevel("warn"))
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	require.Error(t, SetLevel("loud"))
}
