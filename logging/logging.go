package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AlhasanIQ/oriki/config"
)

// New builds the process logger. Output always goes to the configured log
// file so the terminal stays free for the quiz; toStderr mirrors it for
// non-interactive commands.
func New(cfg config.Config, verbose bool, toStderr bool) (*zap.Logger, error) {
	config.ApplyDefaults(&cfg)

	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log.level %q: %w", cfg.Log.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	path, err := config.EffectiveLogPath(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	if toStderr {
		zc.OutputPaths = append(zc.OutputPaths, "stderr")
		zc.ErrorOutputPaths = append(zc.ErrorOutputPaths, "stderr")
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("oriki"), nil
}
