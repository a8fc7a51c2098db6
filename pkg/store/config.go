package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"tableflip.dev/apphub/pkg/timeutil"
)

const (
	// BackendDiskv stores one file per key.
	BackendDiskv = "diskv"
	// BackendSQLite stores all keys in one sqlite database.
	BackendSQLite = "sqlite"
)

// Config is the resolved runtime configuration.
type Config struct {
	Path    string
	Backend string

	IconTTL       time.Duration
	IconBatchSize int
	IconYield     time.Duration

	AccentTTL   time.Duration
	AccentColor string

	RecentLimit int
	LogLevel    string

	ApplicationDirs []string
}

// BasePath returns the storage location with "~" expanded.
func (c *Config) BasePath() string {
	if expanded, err := homedir.Expand(c.Path); err == nil {
		return expanded
	}
	return c.Path
}

// LoadConfig reads .apphub.yaml from $APPHUB_CONFIG_PATH, ~/.config/apphub
// or the working directory. Every key can be overridden through APPHUB_*
// environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("path", "~/.apphub")
	v.SetDefault("backend", BackendDiskv)
	v.SetDefault("icons.ttl", "never")
	v.SetDefault("icons.batch_size", 4)
	v.SetDefault("icons.yield", "16ms")
	v.SetDefault("accent.ttl", "1h")
	v.SetDefault("accent.color", "")
	v.SetDefault("recent.limit", 20)
	v.SetDefault("log.level", "warn")
	v.SetDefault("applications.dirs", []string{})

	v.SetConfigName(".apphub") // .yaml is implicit
	v.SetEnvPrefix("APPHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("APPHUB_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "apphub"))
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.WithField("file", v.ConfigFileUsed()).Debug("store: loaded config")
	}

	return decodeConfig(v)
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Path:            v.GetString("path"),
		Backend:         strings.ToLower(v.GetString("backend")),
		IconBatchSize:   v.GetInt("icons.batch_size"),
		AccentColor:     v.GetString("accent.color"),
		RecentLimit:     v.GetInt("recent.limit"),
		LogLevel:        v.GetString("log.level"),
		ApplicationDirs: v.GetStringSlice("applications.dirs"),
	}
	var err error
	if cfg.IconTTL, err = timeutil.ParseTTL(v.GetString("icons.ttl")); err != nil {
		return nil, fmt.Errorf("icons.ttl: %w", err)
	}
	if cfg.AccentTTL, err = timeutil.ParseTTL(v.GetString("accent.ttl")); err != nil {
		return nil, fmt.Errorf("accent.ttl: %w", err)
	}
	if cfg.IconYield, err = time.ParseDuration(v.GetString("icons.yield")); err != nil {
		return nil, fmt.Errorf("icons.yield: %w", err)
	}
	switch cfg.Backend {
	case BackendDiskv, BackendSQLite:
	default:
		return nil, fmt.Errorf("backend: unknown storage backend %q", cfg.Backend)
	}
	if cfg.IconBatchSize <= 0 {
		cfg.IconBatchSize = 4
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 20
	}
	return cfg, nil
}

// Open creates the medium selected by cfg.
func Open(cfg *Config) (Medium, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	base := cfg.BasePath()
	switch cfg.Backend {
	case BackendSQLite:
		return OpenSQLite(filepath.Join(base, "apphub.db"))
	default:
		return OpenDiskv(base)
	}
}
