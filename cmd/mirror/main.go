package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/mirror/cmd/mirror/commands"
	"github.com/teranos/mirror/logger"
)

var rootCmd = &cobra.Command{
	Use:   "mirror <solution>",
	Short: "mirror - reflection descriptor generator",
	Long: `mirror - reflection descriptor generator for Go solutions.

mirror reads a solution descriptor listing the projects (Go packages) of a
module, parses the declarations marked with //mirror:type, //mirror:component,
//mirror:enum and //mirror:resource, and emits the descriptor, registration and
resource lifecycle code the reflection runtime needs. Only headers that changed
since the last run are parsed again.

Available commands:
  check   - Report stale headers without writing anything
  watch   - Rebuild whenever a header or the descriptor changes
  config  - Show the effective configuration
  version - Show version information

Examples:
  mirror mirror.toml             # Regenerate what changed
  mirror mirror.toml --rebuild   # Parse every header again
  mirror mirror.toml --clean     # Remove all artifacts, then build
  mirror check mirror.toml       # Exit 1 when artifacts are stale`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          commands.RunBuild,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default: mirror.config.toml next to the descriptor)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")

	commands.AddBuildFlags(rootCmd)

	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		commands.PrintError(err)
		os.Exit(1)
	}
}
