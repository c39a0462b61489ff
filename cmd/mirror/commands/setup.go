package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/mirror/config"
	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/logger"
)

// descriptorNames are looked up, in order, when the solution argument is a directory
var descriptorNames = []string{"mirror.toml", "mirror.yaml", "mirror.yml"}

// resolveDescriptor turns the solution argument into a descriptor file path
func resolveDescriptor(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", arg)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", errors.Wrap(errors.WrapIO(err, abs), "read solution descriptor")
	}
	if !st.IsDir() {
		return abs, nil
	}
	for _, name := range descriptorNames {
		candidate := filepath.Join(abs, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.WithHint(
		errors.Structuralf("no solution descriptor in %s", abs),
		"create mirror.toml or pass the descriptor file explicitly")
}

// setup loads the configuration for the solution at descriptor and initializes
// logging from the persistent flags, falling back to the configured values
func setup(cmd *cobra.Command, descriptor string) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	verbosity, _ := cmd.Flags().GetCount("verbose")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")

	cfg, err := config.Load(filepath.Dir(descriptor), configFile)
	if err != nil {
		return nil, err
	}
	if verbosity == 0 {
		verbosity = cfg.Log.Verbosity
	}
	if err := logger.Initialize(jsonLogs || cfg.Log.JSON, verbosity); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	return cfg, nil
}

// PrintError reports a failed command on stderr together with its hints
func PrintError(err error) {
	pterm.Error.WithWriter(os.Stderr).Println(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		pterm.Fprintln(os.Stderr, pterm.Gray("  hint: ")+hint)
	}
	if logger.Logger.Desugar().Core().Enabled(zapcore.DebugLevel) {
		pterm.Fprintln(os.Stderr, pterm.Gray(fmt.Sprintf("%+v", err)))
	}
}
