package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// GeneratorVersion identifies the layout of generated artifacts and of the persisted store.
// Bumping major or minor invalidates every store written by an older generator.
const GeneratorVersion = "1.2.0"

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	Generator  string `json:"generator"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		Generator:  GeneratorVersion,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("mirror %s (generator %s, commit %s, built %s)", i.Version, i.Generator, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("mirror dev (generator %s, commit %s, built %s)", i.Generator, i.CommitHash, i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// CompatibleGenerator reports whether artifacts recorded by generator version recorded
// can be reused by this binary. Major and minor must match; patch releases are compatible.
func CompatibleGenerator(recorded string) bool {
	if recorded == "" {
		return false
	}
	current, err := semver.NewVersion(GeneratorVersion)
	if err != nil {
		return false
	}
	constraint, err := semver.NewConstraint(fmt.Sprintf("~%d.%d.0", current.Major(), current.Minor()))
	if err != nil {
		return false
	}
	v, err := semver.NewVersion(recorded)
	if err != nil {
		return false
	}
	return constraint.Check(v)
}
