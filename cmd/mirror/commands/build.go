package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/mirror/build"
)

// AddBuildFlags registers the flags of the build action on cmd
func AddBuildFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("clean", false, "Remove every generated artifact and reset the store before building")
	cmd.Flags().Bool("rebuild", false, "Parse every header again")
}

// RunBuild regenerates the artifacts of the solution given as the only argument
func RunBuild(cmd *cobra.Command, args []string) error {
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

	res, err := build.New(cfg, nil).Run(cmd.Context(), build.Options{
		DescriptorPath: descriptor,
		Clean:          clean,
		Rebuild:        rebuild,
	})
	printWarnings(res)
	if err != nil {
		return err
	}
	printSummary(res)
	return nil
}
