package lib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroConsoleAndFileLog(t *testing.T) {
	previous := log.Logger
	defer func() { log.Logger = previous }()

	filename := filepath.Join(t.TempDir(), "proxytag.log")
	require.NoError(t, ZeroConsoleAndFileLog(filename, false))

	log.Info().Str("scope", "global").Msg("registered")

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"scope":"global"`)
	assert.Contains(t, string(content), `"message":"registered"`)
}

func TestZeroConsoleAndFileLogBadPath(t *testing.T) {
	previous := log.Logger
	defer func() { log.Logger = previous }()

	err := ZeroConsoleAndFileLog(filepath.Join(t.TempDir(), "missing", "x.log"), true)
	assert.Error(t, err)
}

func TestSetLogLevel(t *testing.T) {
	previous := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(previous)

	SetLogLevel(true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	SetLogLevel(false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
