package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName names the config directory and env prefix
const AppName = "lazyca"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	UI        UIConfig        `mapstructure:"ui"`
	Filters   FiltersConfig   `mapstructure:"filters"`
	Downloads DownloadsConfig `mapstructure:"downloads"`
	History   HistoryConfig   `mapstructure:"history"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	Curl               bool          `mapstructure:"curl"`
}

type AuthConfig struct {
	// Mode is one of none, bearer or password
	Mode string `mapstructure:"mode"`
	User string `mapstructure:"user"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
	PageSize     int    `mapstructure:"page_size"`
	Language     string `mapstructure:"language"`
}

type FiltersConfig struct {
	PersistInterval      time.Duration `mapstructure:"persist_interval"`
	URLRecomputeInterval time.Duration `mapstructure:"url_recompute_interval"`
	PresetsFile          string        `mapstructure:"presets_file"`
}

type DownloadsConfig struct {
	Dir     string `mapstructure:"dir"`
	PBEAlgo string `mapstructure:"pbe_algo"`
	KeyEx   bool   `mapstructure:"key_ex"`
	Alias   string `mapstructure:"alias"`
}

type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

var defaults = map[string]any{
	"server.base_url":                "http://localhost:8080",
	"server.insecure_skip_verify":    false,
	"server.request_timeout":         time.Duration(0),
	"server.curl":                    false,
	"auth.mode":                      "bearer",
	"auth.user":                      "",
	"ui.theme":                       "default",
	"ui.mouse_enabled":               true,
	"ui.page_size":                   20,
	"ui.language":                    "en",
	"filters.persist_interval":       3 * time.Second,
	"filters.url_recompute_interval": time.Second,
	"filters.presets_file":           "",
	"downloads.dir":                  "",
	"downloads.pbe_algo":             "",
	"downloads.key_ex":               false,
	"downloads.alias":                "alias",
	"history.enabled":                true,
	"history.path":                   "",
	"history.max_entries":            1000,
	"log.level":                      "info",
	"log.format":                     "console",
	"log.file":                       "",
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
		},
		Auth: AuthConfig{
			Mode: "bearer",
		},
		UI: UIConfig{
			Theme:        "default",
			MouseEnabled: true,
			PageSize:     20,
			Language:     "en",
		},
		Filters: FiltersConfig{
			PersistInterval:      3 * time.Second,
			URLRecomputeInterval: time.Second,
		},
		Downloads: DownloadsConfig{
			Alias: "alias",
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from config.yaml in the user config directory,
// the current directory or ./config. A missing file is not an error.
// LAZYCA_SERVER_BASE_URL style environment variables override file values.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from an explicit file, or searches the
// default locations when file is empty
func LoadFrom(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.resolvePaths()

	return &cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case "none", "bearer", "password":
	default:
		return fmt.Errorf("invalid auth.mode %q: expected none, bearer or password", c.Auth.Mode)
	}
	if c.Auth.Mode == "password" && c.Auth.User == "" {
		return fmt.Errorf("auth.user is required for password authentication")
	}
	if c.UI.PageSize < 0 {
		return fmt.Errorf("ui.page_size must not be negative")
	}
	if c.Filters.PersistInterval <= 0 || c.Filters.URLRecomputeInterval <= 0 {
		return fmt.Errorf("filter intervals must be positive")
	}
	return nil
}

// resolvePaths fills file locations left empty with paths in the config dir
func (c *Config) resolvePaths() {
	configDir, err := GetConfigPath()
	if err != nil {
		configDir = "."
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(configDir, "history.db")
	}
	if c.Filters.PresetsFile == "" {
		c.Filters.PresetsFile = filepath.Join(configDir, "presets.yaml")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(configDir, AppName+".log")
	}
	if c.Downloads.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Downloads.Dir = filepath.Join(home, "Downloads")
		} else {
			c.Downloads.Dir = "."
		}
	}
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
