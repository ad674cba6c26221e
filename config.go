package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"lndpd/modules"
	"lndpd/pndp"
)

const envPrefix = "LNDPD"

type Config struct {
	Interface          string        `mapstructure:"interface"`
	BroadcastInterface string        `mapstructure:"broadcast_interface"`
	CaptureFile        string        `mapstructure:"capture_file"`
	Prefixes           []string      `mapstructure:"prefix"`
	Backend            string        `mapstructure:"backend"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	Promiscuous        bool          `mapstructure:"promiscuous"`
	IgnoreOutgoing     bool          `mapstructure:"ignore_outgoing"`
	QueueSize          int           `mapstructure:"queue_size"`
	Log                LogConfig     `mapstructure:"log"`

	prefixSet pndp.PrefixSet
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interface", "")
	v.SetDefault("broadcast_interface", "")
	v.SetDefault("capture_file", "")
	v.SetDefault("prefix", []string{})
	v.SetDefault("backend", "netlink")
	v.SetDefault("read_timeout", time.Second)
	v.SetDefault("promiscuous", true)
	v.SetDefault("ignore_outgoing", false)
	v.SetDefault("queue_size", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
}

// loadConfig merges defaults, the optional config file at path and LNDPD_* environment variables
// into v, which may already carry bound command line flags. Flags win over everything else.
// overrides replaces built-in defaults for a single command.
func loadConfig(v *viper.Viper, path string, overrides map[string]any) (*Config, error) {
	setDefaults(v)
	for key, value := range overrides {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &pndp.ConfigError{Field: "config file", Value: path, Err: err}
		}
	}

	// e.g. key "log.level" → env "LNDPD_LOG_LEVEL"
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values that do not need the host's interfaces and parses the prefixes.
// A capture file stands in for the capture interface.
func (c *Config) Validate() error {
	if c.Interface == "" && c.CaptureFile == "" {
		return &pndp.ConfigError{Field: "interface", Err: errors.New("capture interface is required")}
	}
	if c.BroadcastInterface == "" {
		return &pndp.ConfigError{Field: "broadcast_interface", Err: errors.New("broadcast interface is required")}
	}
	set, err := pndp.ParsePrefixes(c.Prefixes)
	if err != nil {
		return err
	}
	c.prefixSet = set

	if _, ok := modules.Lookup(c.Backend); !ok {
		return &pndp.ConfigError{Field: "backend", Value: c.Backend, Err: fmt.Errorf("unknown backend, available: %v", modules.Names())}
	}
	if c.ReadTimeout <= 0 {
		return &pndp.ConfigError{Field: "read_timeout", Value: c.ReadTimeout.String(), Err: errors.New("must be positive")}
	}
	if c.QueueSize < 0 {
		return &pndp.ConfigError{Field: "queue_size", Value: fmt.Sprint(c.QueueSize), Err: errors.New("must not be negative")}
	}
	return validateLogConfig(c.Log)
}

func (c *Config) PrefixSet() pndp.PrefixSet { return c.prefixSet }

func (c *Config) captureOptions() pndp.CaptureOptions {
	return pndp.CaptureOptions{
		ReadTimeout:    c.ReadTimeout,
		Promiscuous:    c.Promiscuous,
		IgnoreOutgoing: c.IgnoreOutgoing,
		IPv6Only:       true,
	}
}
