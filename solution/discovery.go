package solution

import (
	"bufio"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
)

// Classification is the discovery verdict for one source file
type Classification int

const (
	// ClassIgnore marks files without type markers and module files
	ClassIgnore Classification = iota
	// ClassParse marks files holding at least one type marker
	ClassParse
)

func (c Classification) String() string {
	if c == ClassParse {
		return "parse"
	}
	return "ignore"
}

// ScannedFile is the directive scan of one source file
type ScannedFile struct {
	Path        string // slash path relative to the solution root
	PackageName string
	Directives  []Directive
}

// HasModule reports whether the file declares the project module
func (f *ScannedFile) HasModule() bool {
	for _, d := range f.Directives {
		if d.Name == DirectiveModule {
			return true
		}
	}
	return false
}

// HasTypeMarkers reports whether the file marks any reflected declaration
func (f *ScannedFile) HasTypeMarkers() bool {
	for _, d := range f.Directives {
		if d.IsTypeMarker() {
			return true
		}
	}
	return false
}

// Discovery is the header set of a solution
type Discovery struct {
	// Headers are the files to keep in the store, sorted by path
	Headers []metadata.CurrentHeader
	// Ignored lists files without type markers and module files
	Ignored  []string
	Warnings []string
}

// Discover classifies the source files of every project.
//
// It fills each project's ModuleHeaderID and PackageName. A project that
// declares a module but has no //mirror:module file is removed from
// info.Projects, added to ExcludedPaths and reported as a warning. Projects that
// declare no module are kept for dependency ranking only and contribute no
// headers. A file carrying both a type marker and //mirror:module, or a second
// //mirror:module in one project, is a structural error.
func Discover(info *metadata.SolutionInfo) (*Discovery, error) {
	d := &Discovery{}
	kept := info.Projects[:0]

	for _, p := range info.Projects {
		if !p.DeclaresModule {
			kept = append(kept, p)
			continue
		}

		files, err := ScanProject(info.Root, p.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "discover project %s", p.Name)
		}

		var module *ScannedFile
		var parse []*ScannedFile
		for _, f := range files {
			for _, dir := range f.Directives {
				if !dir.IsKnown() {
					d.Warnings = append(d.Warnings, fmt.Sprintf("%s:%d: unknown directive //mirror:%s", f.Path, dir.Line, dir.Name))
				}
			}
			hasModule, hasMarkers := f.HasModule(), f.HasTypeMarkers()
			switch {
			case hasModule && hasMarkers:
				return nil, errors.WithHint(
					errors.Structuralf("%s declares reflected types and //mirror:module in the same file", f.Path),
					"move the //mirror:module directive to its own file")
			case hasModule && module != nil:
				return nil, errors.Structuralf("duplicate //mirror:module in project %s: %s and %s", p.Name, module.Path, f.Path)
			case hasModule:
				module = f
				d.Ignored = append(d.Ignored, f.Path)
			case hasMarkers:
				parse = append(parse, f)
			default:
				d.Ignored = append(d.Ignored, f.Path)
			}
		}

		if module == nil {
			info.ExcludedPaths = append(info.ExcludedPaths, p.Path)
			d.Warnings = append(d.Warnings, fmt.Sprintf("project %s declares a module but has no //mirror:module file; excluded from the build", p.Name))
			continue
		}

		p.ModuleHeaderID = metadata.NewHeaderID(module.Path)
		if module.PackageName != "" {
			p.PackageName = module.PackageName
		}
		for _, f := range parse {
			if IsExcluded(f.Path, info.ExcludedPaths) {
				continue
			}
			d.Headers = append(d.Headers, metadata.CurrentHeader{Path: f.Path, ProjectID: p.ID})
		}
		kept = append(kept, p)
	}
	info.Projects = kept

	sort.Slice(d.Headers, func(i, j int) bool { return d.Headers[i].Path < d.Headers[j].Path })
	sort.Strings(d.Ignored)
	return d, nil
}

// ScanProject scans the Go files of one project directory. Test files and
// generated artifacts are skipped.
func ScanProject(root, projectPath string) ([]*ScannedFile, error) {
	dir := filepath.Join(root, filepath.FromSlash(projectPath))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapIO(err, dir)
	}

	var files []*ScannedFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !IsHeaderFile(name) {
			continue
		}
		f, err := ScanFile(root, path.Join(projectPath, name))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// IsHeaderFile reports whether a file name is a candidate header
func IsHeaderFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!metadata.IsGeneratedFile(name)
}

// ScanFile reads the directives and package clause of one file
func ScanFile(root, rel string) (*ScannedFile, error) {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	fh, err := os.Open(abs)
	if err != nil {
		return nil, errors.WrapIO(err, abs)
	}
	defer fh.Close()

	f := &ScannedFile{Path: rel}
	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		if dir, ok := ParseDirective(sc.Text()); ok {
			dir.Line = line
			f.Directives = append(f.Directives, dir)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WrapIO(err, abs)
	}

	pkg, err := parser.ParseFile(token.NewFileSet(), abs, nil, parser.PackageClauseOnly)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read package clause of %s", rel), errors.ErrParser)
	}
	f.PackageName = pkg.Name.Name
	return f, nil
}
