package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("bogus"))
}

func TestInitializeWritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "server.log")

	log, err := Initialize("info", file)
	require.NoError(t, err)
	require.Same(t, Log, log)

	log.Info("hello", WithUserID("u1"), WithContentID("c1"))
	_ = Close() // stdout sync fails on pipes

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"user_id":"u1"`)
	assert.Contains(t, string(data), `"content_id":"c1"`)
}
