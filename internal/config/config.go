package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Statistics defaults, overridden per variable by catalogs and per run by flags.
	LowSD             float64 `mapstructure:"low_sd" yaml:"low_sd"`
	HighSD            float64 `mapstructure:"high_sd" yaml:"high_sd"`
	DiscardMultiplier float64 `mapstructure:"discard_multiplier" yaml:"discard_multiplier"`
	StatCorrection    bool    `mapstructure:"stat_correction" yaml:"stat_correction"`
	UseWeight         bool    `mapstructure:"use_weight" yaml:"use_weight"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	CatalogsDir  string `mapstructure:"catalogs_dir" yaml:"catalogs_dir"`
}

// Dir returns ~/.vma.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".vma"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.vma/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("VMA")
	v.AutomaticEnv()

	v.SetDefault("low_sd", 1.0)
	v.SetDefault("high_sd", 1.0)
	v.SetDefault("discard_multiplier", 3.0)
	v.SetDefault("stat_correction", true)
	v.SetDefault("use_weight", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("output_format", "text")
	v.SetDefault("catalogs_dir", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.CatalogsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.CatalogsDir = filepath.Join(dir, "catalogs")
	}
	return &c, nil
}
