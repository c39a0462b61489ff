package config

import "github.com/spf13/viper"

// Defaults
const (
	DefaultStorePath       = ".mirror/store.db"
	DefaultSolutionDir     = "mirrorgen"
	DefaultSolutionPackage = "mirrorgen"
	DefaultRuntimeImport   = "github.com/teranos/mirror/reflection"
	DefaultDebounceMS      = 200
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.path", DefaultStorePath)

	v.SetDefault("generator.solution_dir", DefaultSolutionDir)
	v.SetDefault("generator.solution_package", DefaultSolutionPackage)
	v.SetDefault("generator.runtime_import", DefaultRuntimeImport)

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)

	v.SetDefault("watch.debounce_ms", DefaultDebounceMS)
}
