package logging_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bnema/shadowtab/internal/logging"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.TraceLevel, logging.ParseLevel("trace"))
	require.Equal(t, zerolog.DebugLevel, logging.ParseLevel("debug"))
	require.Equal(t, zerolog.WarnLevel, logging.ParseLevel("warn"))
	require.Equal(t, zerolog.ErrorLevel, logging.ParseLevel("error"))
	require.Equal(t, zerolog.InfoLevel, logging.ParseLevel(""))
	require.Equal(t, zerolog.InfoLevel, logging.ParseLevel("nonsense"))
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("SHADOWTAB_LOG_LEVEL", "debug")
	t.Setenv("SHADOWTAB_LOG_FORMAT", "json")

	log := logging.NewFromEnv()
	require.Equal(t, zerolog.DebugLevel, log.GetLevel())
	log.Warn().Msg("usable without a second assignment")
}

func TestNewDefaultsToInfo(t *testing.T) {
	log := logging.New(logging.DefaultConfig())
	require.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
