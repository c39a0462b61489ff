package parser

import (
	"fmt"
	"strings"
)

// tagOptions are the options of a `mirror:"..."` struct tag
type tagOptions struct {
	dev       bool
	readonly  bool
	visualize bool
	desc      string
}

// parseTagOptions parses "dev,readonly,visualize,desc=Free text".
// desc= takes the rest of the tag, commas included, so it must come last.
// Unknown options and an empty description are reported as warnings.
func parseTagOptions(value string) (tagOptions, []string) {
	var opts tagOptions
	var warnings []string

	rest := value
	for rest != "" {
		var opt string
		if strings.HasPrefix(strings.TrimSpace(rest), "desc=") {
			opt, rest = strings.TrimSpace(rest), ""
		} else {
			opt, rest, _ = strings.Cut(rest, ",")
			opt = strings.TrimSpace(opt)
		}

		switch {
		case opt == "":
		case opt == "dev":
			opts.dev = true
		case opt == "readonly":
			opts.readonly = true
		case opt == "visualize":
			opts.visualize = true
		case strings.HasPrefix(opt, "desc="):
			opts.desc = strings.TrimSpace(strings.TrimPrefix(opt, "desc="))
			if opts.desc == "" {
				warnings = append(warnings, "empty desc= option ignored")
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown tag option %q", opt))
		}
	}
	return opts, warnings
}
