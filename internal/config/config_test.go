package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.BaseURL)
	assert.Equal(t, 3000, cfg.StatusIntervalMs)
	assert.Equal(t, 5000, cfg.ChartIntervalMs)
	assert.Equal(t, 60000, cfg.ScreenerIntervalMs)
	assert.Equal(t, 50, cfg.TradeDisplayLimit)
	assert.Equal(t, "1m", cfg.DefaultTimeframe)
	assert.True(t, cfg.Terminal)
	assert.Empty(t, cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogConfig.Level)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"base_url": "http://bot:9000",
		"chart_interval_ms": 2000,
		"default_timeframe": "15m",
		"log": {"level": "debug", "output": "console"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://bot:9000", cfg.BaseURL)
	assert.Equal(t, 2000, cfg.ChartIntervalMs)
	assert.Equal(t, 3000, cfg.StatusIntervalMs, "unset field keeps default")
	assert.Equal(t, "15m", cfg.DefaultTimeframe)
	assert.Equal(t, "debug", cfg.LogConfig.Level)
	assert.Equal(t, "console", cfg.LogConfig.Output)
	assert.Equal(t, 10, cfg.LogConfig.MaxSize)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"base_url": "http://bot:9000"}`)
	t.Setenv("DASHBOARD_BASE_URL", "http://env:7000")
	t.Setenv("DASHBOARD_LOG_LEVEL", "warn")
	t.Setenv("DASHBOARD_TERMINAL", "false")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env:7000", cfg.BaseURL)
	assert.Equal(t, "warn", cfg.LogConfig.Level)
	assert.False(t, cfg.Terminal)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad timeframe":     `{"default_timeframe": "1h"}`,
		"zero interval":     `{"status_interval_ms": 0}`,
		"negative timeout":  `{"http_timeout_sec": -1}`,
		"malformed json":    `{"base_url": `,
		"empty trade limit": `{"trade_display_limit": 0}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
