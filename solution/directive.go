package solution

import (
	"strings"
)

// DirectivePrefix starts every mirror directive comment
const DirectivePrefix = "//mirror:"

// Directive names
const (
	DirectiveModule    = "module"
	DirectiveType      = "type"
	DirectiveComponent = "component"
	DirectiveEnum      = "enum"
	DirectiveResource  = "resource"
)

// Directive is one parsed //mirror:name arg... comment line
type Directive struct {
	Name string
	Args []string
	Line int
}

// HasArg reports whether the directive carries arg
func (d Directive) HasArg(arg string) bool {
	for _, a := range d.Args {
		if a == arg {
			return true
		}
	}
	return false
}

// IsTypeMarker reports whether the directive marks a reflected declaration
func (d Directive) IsTypeMarker() bool {
	switch d.Name {
	case DirectiveType, DirectiveComponent, DirectiveEnum, DirectiveResource:
		return true
	}
	return false
}

// IsKnown reports whether the directive name is one mirror understands
func (d Directive) IsKnown() bool {
	return d.Name == DirectiveModule || d.IsTypeMarker()
}

// ParseDirective parses a comment line such as "//mirror:type abstract".
// Like //go: directives there is no space after the slashes.
func ParseDirective(line string) (Directive, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, DirectivePrefix) {
		return Directive{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(line, DirectivePrefix))
	if len(fields) == 0 {
		return Directive{}, false
	}
	return Directive{Name: fields[0], Args: fields[1:]}, true
}
