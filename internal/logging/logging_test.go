package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("rejects unknown level", func(t *testing.T) {
		logger, err := New("chatty", "")
		assert.Error(t, err)
		assert.Nil(t, logger)
	})

	t.Run("builds console logger", func(t *testing.T) {
		logger, err := New("debug", "")
		require.NoError(t, err)
		require.NotNil(t, logger)
		logger.Debug("console only")
	})

	t.Run("writes to log file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ecw.log")

		logger, err := New("info", path)
		require.NoError(t, err)

		logger.Info("hello from test")
		_ = logger.Sync() // stderr sync can fail on pipes; the file core still flushes

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "hello from test")
	})

	t.Run("level gates file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ecw.log")

		logger, err := New("warn", path)
		require.NoError(t, err)

		logger.Info("below threshold")
		logger.Warn("at threshold")
		_ = logger.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "below threshold")
		assert.Contains(t, string(data), "at threshold")
	})
}
