package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/aretw0/vellum/pkg/adapters/fs"
)

// EnvPrefix is the prefix of every environment variable read by LoadConfig,
// e.g. VELLUM_ROOT or VELLUM_ID_POOL_MIN.
const EnvPrefix = "VELLUM"

// Config is the file and environment representation of store options.
type Config struct {
	Root          string `mapstructure:"root"`
	AutoInit      bool   `mapstructure:"auto_init"`
	IDPoolMin     int    `mapstructure:"id_pool_min"`
	IDPoolMax     int    `mapstructure:"id_pool_max"`
	IDLength      int    `mapstructure:"id_length"`
	IdleDocuments int    `mapstructure:"idle_documents"`
	ExclusiveLock bool   `mapstructure:"exclusive_lock"`
	VerifyWorkers int    `mapstructure:"verify_workers"`
	LogLevel      string `mapstructure:"log_level"`
}

// LoadConfig reads an optional config file (YAML, JSON or TOML, chosen by
// extension) and VELLUM_* environment variables. Environment wins over the
// file; both win over defaults. An empty file name skips the file.
func LoadConfig(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("root", "")
	v.SetDefault("auto_init", false)
	v.SetDefault("id_pool_min", fs.DefaultIDPoolMin)
	v.SetDefault("id_pool_max", fs.DefaultIDPoolMax)
	v.SetDefault("id_length", fs.DefaultIDLength)
	v.SetDefault("idle_documents", fs.DefaultIdleDocuments)
	v.SetDefault("exclusive_lock", true)
	v.SetDefault("verify_workers", fs.DefaultVerifyWorkers)
	v.SetDefault("log_level", "info")

	// Defaults make every key known, so AutomaticEnv also feeds Unmarshal.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.Join(fmt.Errorf("invalid log_level %q", c.LogLevel), err)
	}
	return level, nil
}

// Options converts the configuration into functional options. The logger is
// left to the caller.
func (c *Config) Options() []Option {
	return []Option{
		WithAutoInit(c.AutoInit),
		WithIDPool(c.IDPoolMin, c.IDPoolMax),
		WithIDLength(c.IDLength),
		WithIdleDocuments(c.IdleDocuments),
		WithExclusiveLock(c.ExclusiveLock),
		WithVerifyWorkers(c.VerifyWorkers),
	}
}
