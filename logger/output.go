package logger

// OutputCategory defines a category of CLI output that can be enabled/disabled.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputSummary  OutputCategory = iota // Final build summary
	OutputWarnings                       // Non-fatal build warnings

	// Level 1 (-v)
	OutputStages // Stage start/finish
	OutputDirty  // Headers queued for parsing

	// Level 2 (-vv)
	OutputTiming    // Per-stage timing table
	OutputFileWrite // Every file written or left unchanged

	// Level 3 (-vvv)
	OutputSQL // Store persistence statements
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputSummary:   VerbosityUser,
	OutputWarnings:  VerbosityUser,
	OutputStages:    VerbosityInfo,
	OutputDirty:     VerbosityInfo,
	OutputTiming:    VerbosityDebug,
	OutputFileWrite: VerbosityDebug,
	OutputSQL:       VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}
