package parser

import (
	"go/importer"
	"go/token"
	"go/types"
	"path"
	"strings"
)

// lenientImporter loads standard library packages from source and stands in an
// empty, complete package for anything else. Type errors caused by the stand-ins
// are ignored by the checker.
type lenientImporter struct {
	std   types.Importer
	fakes map[string]*types.Package
}

func newLenientImporter(fset *token.FileSet) *lenientImporter {
	return &lenientImporter{
		std:   importer.ForCompiler(fset, "source", nil),
		fakes: make(map[string]*types.Package),
	}
}

func (l *lenientImporter) Import(importPath string) (*types.Package, error) {
	if isStdlib(importPath) {
		if pkg, err := l.std.Import(importPath); err == nil {
			return pkg, nil
		}
	}
	if pkg, ok := l.fakes[importPath]; ok {
		return pkg, nil
	}
	pkg := types.NewPackage(importPath, guessPackageName(importPath))
	pkg.MarkComplete()
	l.fakes[importPath] = pkg
	return pkg, nil
}

// isStdlib reports whether the first path element lacks a dot, as standard library paths do
func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

// guessPackageName derives the conventional package name of an import path:
// the last element without a major version suffix, "go-" prefix or ".vN" suffix.
func guessPackageName(importPath string) string {
	name := path.Base(importPath)
	if isMajorVersion(name) {
		name = path.Base(path.Dir(importPath))
	}
	name = strings.TrimPrefix(name, "go-")
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name
}

func isMajorVersion(elem string) bool {
	if len(elem) < 2 || elem[0] != 'v' {
		return false
	}
	for _, r := range elem[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
