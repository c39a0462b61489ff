package commands

import (
	"path/filepath"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/mirror/build"
)

func printWarnings(res *build.Result) {
	if res == nil {
		return
	}
	for _, w := range res.Warnings {
		pterm.Warning.Println(w)
	}
}

// printSummary reports a successful run
func printSummary(res *build.Result) {
	name := "solution"
	if res.Solution != nil {
		name = filepath.Base(res.Solution.Root)
	}

	if res.IsUpToDate() && len(res.Artifacts.Written) == 0 {
		pterm.Success.Printf("%s is up to date (%d headers, %s)\n", name, res.UpToDate, round(res.Duration))
		return
	}

	pterm.Success.Printf("Generated %s in %s\n", name, round(res.Duration))
	pterm.Printf("  %s %d dirty, %d obsolete, %d up to date\n",
		pterm.Gray("headers:"), len(res.Dirty), len(res.Obsolete), res.UpToDate)
	if len(res.Dependents) > 0 {
		pterm.Printf("  %s %d regenerated for changed types they use\n", pterm.Gray("users:  "), len(res.Dependents))
	}
	if res.Parse.Files > 0 {
		pterm.Printf("  %s %d files, %d types in %s\n",
			pterm.Gray("parsed: "), res.Parse.Files, res.Parse.Types, round(res.Parse.Duration))
	}
	pterm.Printf("  %s %d written, %d unchanged, %d removed\n",
		pterm.Gray("files:  "), len(res.Artifacts.Written), res.Artifacts.Unchanged, len(res.Artifacts.Removed))
	for _, f := range res.Artifacts.Written {
		pterm.Printf("    %s %s\n", pterm.LightGreen("✓"), f)
	}
	for _, f := range res.Artifacts.Removed {
		pterm.Printf("    %s %s\n", pterm.Red("✗"), f)
	}
	if res.DiscardedStore != "" {
		pterm.Printf("  %s store from generator %s was discarded\n", pterm.Yellow("note:"), res.DiscardedStore)
	}
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
