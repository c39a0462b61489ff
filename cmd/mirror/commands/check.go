package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/mirror/build"
	"github.com/teranos/mirror/errors"
)

// CheckCmd reports stale headers without writing anything
var CheckCmd = &cobra.Command{
	Use:   "check <solution>",
	Short: "Report headers whose artifacts are stale",
	Long: `Run the up-to-date check only and list the headers that would be parsed
again and the ones whose artifacts would be removed. Nothing is written, not
even the store. Exits with status 1 when anything is stale.

Examples:
  mirror check mirror.toml
  mirror check . --rebuild   # list every header`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	CheckCmd.Flags().Bool("rebuild", false, "Treat every header as dirty")
}

func runCheck(cmd *cobra.Command, args []string) error {
	descriptor, err := resolveDescriptor(args[0])
	if err != nil {
		return err
	}
	cfg, err := setup(cmd, descriptor)
	if err != nil {
		return err
	}
	rebuild, _ := cmd.Flags().GetBool("rebuild")

	res, err := build.New(cfg, nil).Run(cmd.Context(), build.Options{
		DescriptorPath: descriptor,
		Rebuild:        rebuild,
		Check:          true,
	})
	printWarnings(res)
	if err != nil {
		return err
	}

	if res.IsUpToDate() {
		pterm.Success.Printf("All %d headers are up to date\n", res.UpToDate)
		return nil
	}
	for _, d := range res.Dirty {
		pterm.Printf("  %s %s %s\n", pterm.Yellow("dirty"), d.Header.Path, pterm.Gray("("+string(d.Reason)+")"))
	}
	for _, h := range res.Obsolete {
		pterm.Printf("  %s %s\n", pterm.Red("obsolete"), h.Path)
	}
	return errors.WithHint(
		errors.Newf("%d dirty and %d obsolete headers", len(res.Dirty), len(res.Obsolete)),
		"run mirror "+args[0]+" to regenerate")
}
