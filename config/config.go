// Package config loads mirror's tool configuration with Viper.
//
// Settings come from defaults, an optional mirror.config.toml next to the
// solution descriptor (or the file given with --config) and MIRROR_* environment
// variables, in increasing precedence.
package config

import (
	"path/filepath"
)

// FileName is the configuration file looked up next to the solution descriptor
const FileName = "mirror.config.toml"

// Config is the tool configuration
type Config struct {
	Store     StoreConfig     `mapstructure:"store" toml:"store" yaml:"store" json:"store"`
	Generator GeneratorConfig `mapstructure:"generator" toml:"generator" yaml:"generator" json:"generator"`
	Log       LogConfig       `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
	Watch     WatchConfig     `mapstructure:"watch" toml:"watch" yaml:"watch" json:"watch"`

	// SourcePath is the configuration file that was read, empty when none was found
	SourcePath string `mapstructure:"-" toml:"-" yaml:"-" json:"-"`
}

// StoreConfig configures the persisted metadata store
type StoreConfig struct {
	// Path of the SQLite file; relative paths are resolved against the solution root
	Path string `mapstructure:"path" toml:"path" yaml:"path" json:"path"`
}

// GeneratorConfig configures emitted artifacts
type GeneratorConfig struct {
	// SolutionDir is the directory, relative to the solution root, receiving the solution aggregates
	SolutionDir string `mapstructure:"solution_dir" toml:"solution_dir" yaml:"solution_dir" json:"solution_dir"`
	// SolutionPackage is the package name of the solution aggregates
	SolutionPackage string `mapstructure:"solution_package" toml:"solution_package" yaml:"solution_package" json:"solution_package"`
	// RuntimeImport is the import path of the reflection runtime the generated code targets
	RuntimeImport string `mapstructure:"runtime_import" toml:"runtime_import" yaml:"runtime_import" json:"runtime_import"`
}

// LogConfig configures logging
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity" yaml:"verbosity" json:"verbosity"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// DebounceMS is how long watch mode waits for file events to settle before rebuilding
	DebounceMS int `mapstructure:"debounce_ms" toml:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
}

// StorePath returns the store file for a solution rooted at root
func (c *Config) StorePath(root string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(root, filepath.FromSlash(c.Store.Path))
}

// SolutionDir returns the directory receiving the solution aggregates
func (c *Config) SolutionDir(root string) string {
	return filepath.Join(root, filepath.FromSlash(c.Generator.SolutionDir))
}
