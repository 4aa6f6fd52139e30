package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const envPrefix = "FOXDRIVER_"

// Driver settings. An empty DownloadDir is resolved by the firefox package.
type Driver struct {
	Path        string `env:"PATH,default=/usr/local/bin/geckodriver"`
	DownloadDir string `env:"DOWNLOAD_DIR"`
	Headless    bool   `env:"HEADLESS,default=false"`
	Verbose     bool   `env:"VERBOSE,default=false"`
}

type Install struct {
	CacheDir string        `env:"CACHE_DIR"`
	Version  string        `env:"VERSION,default=latest"`
	APIURL   string        `env:"API_URL,default=https://api.github.com"`
	Timeout  time.Duration `env:"TIMEOUT,default=30s"`
}

type Log struct {
	Format string `env:"FORMAT,default=console"`
	Level  string `env:"LEVEL,default=info"`
}

type Config struct {
	Driver  *Driver  `env:",prefix=DRIVER_"`
	Install *Install `env:",prefix=INSTALL_"`
	Log     *Log     `env:",prefix=LOG_"`
}

// Load reads FOXDRIVER_* variables from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l. An empty install cache dir is
// replaced with the user cache directory.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, envconfig.PrefixLookuper(envPrefix, l)); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.Install.CacheDir == "" {
		dir, err := DefaultCacheDir()
		if err != nil {
			return nil, err
		}
		cfg.Install.CacheDir = dir
	}

	return &cfg, nil
}

func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(dir, "foxdriver"), nil
}
