// Package config loads teagrid settings from a .teagrid config file,
// TEAGRID_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved configuration.
type Config struct {
	Vault       string
	Data        string
	Grid        string
	Locale      string
	Style       string
	SwapSpacing float64
	Log         Log
}

// Log configures the rotating log file.
type Log struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Keys, also used as flag names where a flag exists.
const (
	KeyVault       = "vault"
	KeyData        = "data"
	KeyGrid        = "grid"
	KeyLocale      = "locale"
	KeyStyle       = "style"
	KeySwapSpacing = "swap_spacing"
)

// Load reads configuration into a fresh viper instance. Flags that were set
// on the command line take precedence over the file and the environment.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyVault, "~/notes")
	v.SetDefault(KeyData, "~/.teagrid")
	v.SetDefault(KeyGrid, "grid-layout")
	v.SetDefault(KeyLocale, "")
	v.SetDefault(KeyStyle, "dark")
	v.SetDefault(KeySwapSpacing, 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)

	v.SetConfigName(".teagrid") // .yaml is implicit
	v.SetEnvPrefix("TEAGRID")
	v.AutomaticEnv()

	if override := os.Getenv("TEAGRID_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for _, key := range []string{KeyVault, KeyData, KeyGrid, KeyLocale} {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("could not bind flag %s: %w", key, err)
				}
			}
		}
	}

	cfg := &Config{
		Grid:        v.GetString(KeyGrid),
		Locale:      v.GetString(KeyLocale),
		Style:       v.GetString(KeyStyle),
		SwapSpacing: v.GetFloat64(KeySwapSpacing),
		Log: Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
	}

	var err error
	if cfg.Vault, err = expand(v.GetString(KeyVault)); err != nil {
		return nil, err
	}
	if cfg.Data, err = expand(v.GetString(KeyData)); err != nil {
		return nil, err
	}
	logFile := v.GetString("log.file")
	if logFile == "" {
		logFile = filepath.Join(cfg.Data, "teagrid.log")
	}
	if cfg.Log.File, err = expand(logFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func expand(p string) (string, error) {
	out, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("could not expand path %q: %w", p, err)
	}
	return out, nil
}
