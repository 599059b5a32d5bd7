package observability

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/support-console/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.json")

	logger, err := NewLogger(config.LoggerConfig{Level: "DEBUG", Output: out})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "nonsense", Encoding: "console", Output: out})
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
