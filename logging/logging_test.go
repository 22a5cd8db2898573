package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/AlhasanIQ/oriki/config"
)

func TestNewWritesToConfiguredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "oriki.log")
	cfg := config.Default()
	cfg.Log.Path = path

	logger, err := New(cfg, false, false)
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Path = filepath.Join(t.TempDir(), "oriki.log")

	logger, err := New(cfg, true, false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "loud"
	cfg.Log.Path = filepath.Join(t.TempDir(), "oriki.log")

	_, err := New(cfg, false, false)
	assert.Error(t, err)
}
