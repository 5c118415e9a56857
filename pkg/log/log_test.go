package log

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"inkdesk/internal/config"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	require.NoError(t, Init(config.LogConfig{Level: "debug", Format: "json", OutputPath: filepath.Join(t.TempDir(), "logs")}))
	require.NoError(t, Init(config.LogConfig{Format: "console"}))
	assert.Error(t, Init(config.LogConfig{Level: "loud"}))
}

func TestStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	Error("write failed", errors.New("disk full"))
	Infow("request", "path", "/api/health")
	Debugf("n=%d", 3)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "disk full", entries[0].ContextMap()["error"])
	assert.Equal(t, "/api/health", entries[1].ContextMap()["path"])
	assert.Equal(t, "n=3", entries[2].Message)
}
