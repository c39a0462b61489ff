package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/mirror/errors"
)

// Load reads the configuration for a solution rooted at solutionDir.
// explicitPath, when set, must exist and replaces the lookup of FileName.
func Load(solutionDir, explicitPath string) (*Config, error) {
	v := newViper()

	source := explicitPath
	if source == "" {
		candidate := filepath.Join(solutionDir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			source = candidate
		}
	}
	if source != "" {
		v.SetConfigFile(source)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", source)
		}
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	cfg.SourcePath = source
	return cfg, nil
}

// LoadWithViper unmarshals and validates configuration from a prepared Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "invalid configuration"),
			"check "+FileName+" and MIRROR_* environment variables")
	}
	return &cfg, nil
}

// Default returns the configuration built from defaults and the environment only
func Default() (*Config, error) {
	return LoadWithViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("MIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}
