package logger

import (
	"os"
	"path/filepath"
	"testing"

	"trading-dashboard-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.log")
	InitLogger(models.LogConfig{Level: "debug", Output: "file", File: path, MaxSize: 1})

	L().Debug("status fetched")
	S().Infow("command finished", "command", "start")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "status fetched")
	assert.Contains(t, string(data), "command finished")
}

func TestInitLoggerBadLevelDefaultsToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.log")
	InitLogger(models.LogConfig{Level: "loud", Output: "file", File: path})

	L().Debug("hidden")
	L().Info("shown")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}
