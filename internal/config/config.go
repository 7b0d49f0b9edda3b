// Package config loads the lobby's single YAML config file via viper,
// validates it with go-playground/validator, and decodes it with
// mapstructure — the layered precedence and decode-hook approach the
// teacher pack's storage-server sibling uses for its own config.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the lobby's single configuration document (spec.md §6 CLI).
type Config struct {
	Ports            []int    `mapstructure:"ports" validate:"required,min=1,dive,min=1,max=65535" yaml:"ports"`
	Domain           string   `mapstructure:"domain" yaml:"domain"`
	Debug            bool     `mapstructure:"debug" yaml:"debug"`
	Maintenance      bool     `mapstructure:"maintenance" yaml:"maintenance"`
	Supporter        bool     `mapstructure:"supporter" yaml:"supporter"`
	MenuIcon         string   `mapstructure:"menu_icon" yaml:"menu_icon"`
	AutojoinChannels []string `mapstructure:"autojoin_channels" yaml:"autojoin_channels"`
	MinVersion       int      `mapstructure:"min_version" yaml:"min_version"`
	MaxVersion       int      `mapstructure:"max_version" yaml:"max_version"`
	Announce         string   `mapstructure:"announce" yaml:"announce"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Workers WorkersConfig `mapstructure:"workers" yaml:"workers"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

type CacheConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

type WorkersConfig struct {
	PoolSize         int           `mapstructure:"pool_size" validate:"required,min=1" yaml:"pool_size"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	LoginTimeout     time.Duration `mapstructure:"login_timeout" yaml:"login_timeout"`
	PingInterval     time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	StaleAfter       time.Duration `mapstructure:"stale_after" yaml:"stale_after"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Ports:            []int{13381},
		Domain:           "localhost",
		MenuIcon:         "",
		AutojoinChannels: []string{"#osu", "#announce"},
		MinVersion:       323,
		MaxVersion:       20130815,
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Cache: CacheConfig{Dir: ""},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9100,
		},
		Workers: WorkersConfig{
			PoolSize:         32,
			HandshakeTimeout: 20 * time.Second,
			LoginTimeout:     15 * time.Second,
			PingInterval:     5 * time.Second,
			StaleAfter:       60 * time.Second,
		},
	}
}

// Load reads configPath (viper, YAML) layered over Default(), decodes with
// mapstructure's duration-aware hook, and validates the result. An empty or
// missing configPath yields Default() unchanged.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("LOBBY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %q: %w", configPath, err)
	}
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// Validate runs struct-tag validation via go-playground/validator.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// Save writes cfg back to path as YAML. The hot-reload watcher only reads
// the file and does not call Save.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
