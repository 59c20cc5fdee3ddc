package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "FFB"

type APIConfig struct {
	Addr        string `mapstructure:"addr"`
	DatabaseURL string `mapstructure:"database_url"`
	Seed        int64  `mapstructure:"seed"`
	LogLevel    string `mapstructure:"log_level"`
	FeedBuffer  int    `mapstructure:"feed_buffer"`
}

type CLIConfig struct {
	APIBaseURL  string `mapstructure:"api_base_url"`
	DatabaseURL string `mapstructure:"database_url"`
	Seed        int64  `mapstructure:"seed"`
	LogLevel    string `mapstructure:"log_level"`
}

// LoadAPI reads the gateway config from an optional YAML file and FFB_*
// environment variables. PORT, when set, wins over addr.
func LoadAPI(path string) (APIConfig, error) {
	v, err := newViper(path)
	if err != nil {
		return APIConfig{}, err
	}
	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal api config: %w", err)
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Addr = port
	}
	if cfg.Addr != "" && !strings.Contains(cfg.Addr, ":") {
		cfg.Addr = ":" + cfg.Addr
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	return cfg, cfg.Validate()
}

func LoadCLI(path string) (CLIConfig, error) {
	v, err := newViper(path)
	if err != nil {
		return CLIConfig{}, err
	}
	var cfg CLIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal cli config: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	return cfg, cfg.Validate()
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("seed", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("feed_buffer", 16)
	v.SetDefault("api_base_url", "http://localhost:8080")
}

func (c APIConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.FeedBuffer < 1 {
		return fmt.Errorf("feed_buffer must be at least 1")
	}
	if c.Seed < 0 {
		return fmt.Errorf("seed must be >= 0")
	}
	return validateLevel(c.LogLevel)
}

func (c CLIConfig) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api_base_url must be an http(s) url")
	}
	if c.Seed < 0 {
		return fmt.Errorf("seed must be >= 0")
	}
	return validateLevel(c.LogLevel)
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func validateLevel(level string) error {
	if _, ok := levels[strings.ToLower(level)]; !ok {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	return nil
}

// Level maps a validated log_level onto slog, defaulting to info.
func Level(level string) slog.Level {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l
	}
	return slog.LevelInfo
}
