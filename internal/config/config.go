package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"trading-dashboard-go/internal/models"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀, e.g. DASHBOARD_BASE_URL, DASHBOARD_LOG_LEVEL
const EnvPrefix = "DASHBOARD"

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:8000")
	v.SetDefault("http_timeout_sec", 10)
	v.SetDefault("status_interval_ms", 3000)
	v.SetDefault("chart_interval_ms", 5000)
	v.SetDefault("screener_interval_ms", 60000)
	v.SetDefault("trade_display_limit", 50)
	v.SetDefault("default_timeframe", string(models.Timeframe1m))
	v.SetDefault("db_path", "./dashboard_db")
	v.SetDefault("listen_addr", "")
	v.SetDefault("terminal", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "file")
	v.SetDefault("log.file", "logs/dashboard.log")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", false)
}

// LoadConfig 从指定路径加载JSON配置文件, 缺失的字段使用默认值, 环境变量优先于文件。
// 文件不存在时只使用默认值和环境变量。
func LoadConfig(path string) (*models.Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	config := &models.Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate 检查配置的取值范围
func Validate(c *models.Config) error {
	if c.BaseURL == "" {
		return errors.New("base_url must not be empty")
	}
	if c.HTTPTimeoutSec <= 0 {
		return fmt.Errorf("http_timeout_sec must be positive, got %d", c.HTTPTimeoutSec)
	}
	for name, ms := range map[string]int{
		"status_interval_ms":   c.StatusIntervalMs,
		"chart_interval_ms":    c.ChartIntervalMs,
		"screener_interval_ms": c.ScreenerIntervalMs,
	} {
		if ms <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, ms)
		}
	}
	if c.TradeDisplayLimit <= 0 {
		return fmt.Errorf("trade_display_limit must be positive, got %d", c.TradeDisplayLimit)
	}
	if _, err := models.ParseTimeframe(c.DefaultTimeframe); err != nil {
		return fmt.Errorf("default_timeframe: %w", err)
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	return nil
}
