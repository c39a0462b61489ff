package commands

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/mirror/config"
	"github.com/teranos/mirror/errors"
)

// ConfigCmd groups the configuration commands
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect mirror configuration",
	Long: `Inspect the configuration mirror resolves from defaults, mirror.config.toml
and MIRROR_* environment variables.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show [solution]",
	Short: "Print the effective configuration",
	Long: `Print the configuration a build of the given solution would use.

Examples:
  mirror config show                   # defaults and environment only
  mirror config show mirror.toml       # include mirror.config.toml next to it
  mirror config show . --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigShow,
}

func init() {
	configShowCmd.Flags().StringP("format", "f", "toml", "Output format: toml, yaml or json")
	ConfigCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	explicit, _ := cmd.Flags().GetString("config")

	dir := ""
	if len(args) == 1 {
		descriptor, err := resolveDescriptor(args[0])
		if err != nil {
			return err
		}
		dir = filepath.Dir(descriptor)
	}
	cfg, err := config.Load(dir, explicit)
	if err != nil {
		return err
	}

	if cfg.SourcePath != "" {
		pterm.Fprintln(cmd.ErrOrStderr(), pterm.Gray("# from "+cfg.SourcePath))
	}
	return writeConfig(cmd.OutOrStdout(), cfg, format)
}

// writeConfig encodes cfg to w in the requested format
func writeConfig(w io.Writer, cfg *config.Config, format string) error {
	var (
		out []byte
		err error
	)
	switch format {
	case "toml":
		out, err = toml.Marshal(cfg)
	case "yaml", "yml":
		out, err = yaml.Marshal(cfg)
	case "json":
		out, err = json.MarshalIndent(cfg, "", "  ")
		out = append(out, '\n')
	default:
		return errors.WithHint(errors.Newf("unknown format %q", format), "use toml, yaml or json")
	}
	if err != nil {
		return errors.Wrapf(err, "encode configuration as %s", format)
	}
	_, err = w.Write(out)
	return err
}
