package commands

import (
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/mirror/build"
)

// WatchCmd rebuilds whenever the solution changes
var WatchCmd = &cobra.Command{
	Use:   "watch <solution>",
	Short: "Rebuild whenever a header or the descriptor changes",
	Long: `Build once, then watch the project directories and rebuild after every
change to a header candidate, the solution descriptor or the configuration
file. Changes are debounced (watch.debounce_ms) and builds never overlap.
A failed build is reported and watching continues. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	AddBuildFlags(WatchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	descriptor, err := resolveDescriptor(args[0])
	if err != nil {
		return err
	}
	cfg, err := setup(cmd, descriptor)
	if err != nil {
		return err
	}

	clean, _ := cmd.Flags().GetBool("clean")
	rebuild, _ := cmd.Flags().GetBool("rebuild")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pterm.Info.Printf("Watching %s (Ctrl+C to stop)\n", descriptor)
	return build.New(cfg, nil).Watch(ctx, build.Options{
		DescriptorPath: descriptor,
		Clean:          clean,
		Rebuild:        rebuild,
	}, func(res *build.Result, err error) {
		printWarnings(res)
		if err != nil {
			PrintError(err)
			return
		}
		printSummary(res)
	})
}
