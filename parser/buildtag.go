package parser

import (
	"go/ast"
	"go/build/constraint"
)

// requiresDevTools reports whether the file's //go:build line only holds when
// the devtools tag is set. Other tags are assumed satisfied.
func requiresDevTools(f *ast.File) bool {
	for _, cg := range f.Comments {
		if cg.Pos() >= f.Package {
			break
		}
		for _, c := range cg.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				return false
			}
			with := expr.Eval(func(string) bool { return true })
			without := expr.Eval(func(tag string) bool { return tag != DevToolsTag })
			return with && !without
		}
	}
	return false
}
