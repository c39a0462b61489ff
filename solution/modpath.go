package solution

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/teranos/mirror/errors"
)

// FindModule walks up from dir to the nearest go.mod and returns its directory
// and module path.
func FindModule(dir string) (root, modulePath string, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", "", errors.Wrapf(err, "resolve %s", dir)
	}
	for d := abs; ; {
		gomod := filepath.Join(d, "go.mod")
		data, err := os.ReadFile(gomod)
		if err == nil {
			mp := modfile.ModulePath(data)
			if mp == "" {
				return "", "", errors.Structuralf("%s has no module directive", gomod)
			}
			return d, mp, nil
		}
		if !os.IsNotExist(err) {
			return "", "", errors.WrapIO(err, gomod)
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return "", "", errors.WithHint(
		errors.Structuralf("no go.mod found at or above %s", abs),
		"projects must live inside a Go module so their import paths can be derived")
}

// ImportPath returns the import path of dir inside the module rooted at moduleRoot
func ImportPath(moduleRoot, modulePath, dir string) (string, error) {
	rel, err := filepath.Rel(moduleRoot, dir)
	if err != nil {
		return "", errors.Wrapf(err, "relate %s to module root %s", dir, moduleRoot)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", errors.Structuralf("%s is outside module %s", dir, modulePath)
	}
	if rel == "." {
		return modulePath, nil
	}
	return path.Join(modulePath, rel), nil
}
