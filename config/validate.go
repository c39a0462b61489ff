package config

import (
	"go/token"
	"path/filepath"

	"github.com/teranos/mirror/errors"
)

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return errors.New("store.path cannot be empty")
	}

	if c.Generator.SolutionDir == "" || filepath.IsAbs(c.Generator.SolutionDir) {
		return errors.Newf("generator.solution_dir must be a relative directory, got %q", c.Generator.SolutionDir)
	}
	if !token.IsIdentifier(c.Generator.SolutionPackage) {
		return errors.Newf("generator.solution_package must be a Go identifier, got %q", c.Generator.SolutionPackage)
	}
	if c.Generator.RuntimeImport == "" {
		return errors.New("generator.runtime_import cannot be empty")
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	// 0 rebuilds on every event
	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	return nil
}
