package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DROPPLAN_HTTP_PORT.
const EnvPrefix = "DROPPLAN"

// Config captures the settings of the dropplan server.
type Config struct {
	HTTPPort        int
	SQLitePath      string
	SessionTTL      time.Duration
	LogLevel        slog.Level
	MetricsEnabled  bool
	DefaultCapacity decimal.Decimal
}

const (
	keyHTTPPort        = "http_port"
	keySQLitePath      = "sqlite_path"
	keySessionTTL      = "session_ttl"
	keyLogLevel        = "log_level"
	keyMetricsEnabled  = "metrics_enabled"
	keyDefaultCapacity = "default_capacity"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyHTTPPort, 8080)
	v.SetDefault(keySQLitePath, "dropplan.db")
	v.SetDefault(keySessionTTL, "24h")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyMetricsEnabled, true)
	v.SetDefault(keyDefaultCapacity, "8")
}

// Load reads defaults, then the optional YAML file at path, then DROPPLAN_*
// environment variables. Every invalid value is reported in one error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var (
		cfg     Config
		invalid []string
	)
	reject := func(key string) {
		invalid = append(invalid, EnvPrefix+"_"+strings.ToUpper(key))
	}

	if port := v.GetInt(keyHTTPPort); port <= 0 || port > 65535 || !isInteger(v.GetString(keyHTTPPort)) {
		reject(keyHTTPPort)
	} else {
		cfg.HTTPPort = port
	}

	if sqlitePath := strings.TrimSpace(v.GetString(keySQLitePath)); sqlitePath == "" {
		reject(keySQLitePath)
	} else {
		cfg.SQLitePath = sqlitePath
	}

	if ttl, err := time.ParseDuration(strings.TrimSpace(v.GetString(keySessionTTL))); err != nil || ttl <= 0 {
		reject(keySessionTTL)
	} else {
		cfg.SessionTTL = ttl
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v.GetString(keyLogLevel)))); err != nil {
		reject(keyLogLevel)
	}

	switch strings.ToLower(strings.TrimSpace(v.GetString(keyMetricsEnabled))) {
	case "true", "1", "yes":
		cfg.MetricsEnabled = true
	case "false", "0", "no":
		cfg.MetricsEnabled = false
	default:
		reject(keyMetricsEnabled)
	}

	capacity, err := decimal.NewFromString(strings.TrimSpace(v.GetString(keyDefaultCapacity)))
	if err != nil || !capacity.IsPositive() || capacity.GreaterThan(decimal.NewFromInt(24)) {
		reject(keyDefaultCapacity)
	} else {
		cfg.DefaultCapacity = capacity
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func isInteger(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for i, r := range value {
		if r == '+' && i == 0 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
