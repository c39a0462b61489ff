// Package parser extracts reflected type records from Go source files.
//
// A project's package is parsed with go/parser and type-checked with go/types
// using a lenient importer: standard library packages are loaded from source,
// everything else is replaced by an empty package and the resulting errors are
// ignored. Reflected declarations are read from the AST, go/types supplies
// constant values, array lengths and field offsets where it can.
//
// Development-only members are classified in the same pass, from the file's
// build constraint, the directive's dev option and the field tag's dev option.
package parser

import (
	"fmt"
	"go/ast"
	"go/token"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/logger"
	"github.com/teranos/mirror/metadata"
	"github.com/teranos/mirror/solution"
)

// Runtime type names recognised in reflected declarations
const (
	ResourcePtrName      = "ResourcePtr"
	TypedResourcePtrName = "TypedResourcePtr"
	EntityComponentName  = "EntityComponent"
)

// DevToolsTag is the build tag selecting development tooling
const DevToolsTag = "devtools"

// Timing reports the work done by one Parse call
type Timing struct {
	Files    int
	Types    int
	Duration time.Duration
}

// GoParser extracts reflected types from the headers of a solution
type GoParser struct {
	solution      *metadata.SolutionInfo
	runtimeImport string
	logger        *zap.SugaredLogger
	warnings      []string
}

// New creates a parser for the solution. runtimeImport is the import path of the
// reflection runtime whose resource and component types fields may use.
// If logger is nil the global logger is used.
func New(info *metadata.SolutionInfo, runtimeImport string, log *zap.SugaredLogger) *GoParser {
	if log == nil {
		log = logger.Logger
	}
	return &GoParser{
		solution:      info,
		runtimeImport: runtimeImport,
		logger:        log.Named("parser"),
	}
}

// Warnings returns the non-fatal issues found so far
func (p *GoParser) Warnings() []string {
	return p.warnings
}

func (p *GoParser) warn(pos token.Position, format string, args ...interface{}) {
	msg := pos.String() + ": " + fmt.Sprintf(format, args...)
	p.warnings = append(p.warnings, msg)
	p.logger.Warnw("Parser warning", logger.FieldReason, msg)
}

// Parse fills store with the types declared in headers and updates the header
// records with package name and development-only classification.
//
// Each header must already be recorded in the store and own no types. Headers
// are grouped by project; a project's whole package is loaded so that references
// between its files resolve.
func (p *GoParser) Parse(store *metadata.Store, headers []*metadata.HeaderInfo) (Timing, error) {
	start := time.Now()
	timing := Timing{}

	byProject := make(map[metadata.ProjectID][]*metadata.HeaderInfo)
	for _, h := range headers {
		byProject[h.ProjectID] = append(byProject[h.ProjectID], h)
	}
	projects := make([]*metadata.ProjectInfo, 0, len(byProject))
	for id := range byProject {
		proj := p.project(id)
		if proj == nil {
			return timing, errors.Mark(errors.Newf("header %s belongs to unknown project %s", byProject[id][0].Path, id), errors.ErrParser)
		}
		projects = append(projects, proj)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Path < projects[j].Path })

	fset := token.NewFileSet()
	imp := newLenientImporter(fset)

	// Every marked declaration of the packages being parsed, so embedded parents
	// declared in another dirty header are recognised.
	marked := make(map[string]bool)
	pkgs := make([]*pkgSource, 0, len(projects))
	for _, proj := range projects {
		pkg, err := loadPackage(fset, p.solution.Root, proj)
		if err != nil {
			return timing, err
		}
		for name := range pkg.markedTypes() {
			marked[name] = true
		}
		pkgs = append(pkgs, pkg)
	}

	for _, pkg := range pkgs {
		pkg.check(imp)
		for _, h := range byProject[pkg.project.ID] {
			file := pkg.file(h.Path)
			if file == nil {
				return timing, errors.Mark(errors.Newf("header %s is not part of package %s", h.Path, pkg.project.ImportPath), errors.ErrParser)
			}
			n, err := p.parseHeader(store, pkg, file, h, marked)
			if err != nil {
				return timing, errors.Mark(errors.Wrapf(err, "parse %s", h.Path), errors.ErrParser)
			}
			timing.Files++
			timing.Types += n
			p.logger.Debugw("Parsed header",
				logger.FieldHeader, h.Path,
				logger.FieldProject, pkg.project.Name,
				logger.FieldCount, n,
			)
		}
	}

	timing.Duration = time.Since(start)
	return timing, nil
}

func (p *GoParser) project(id metadata.ProjectID) *metadata.ProjectInfo {
	for _, proj := range p.solution.Projects {
		if proj.ID == id {
			return proj
		}
	}
	return nil
}

// parseHeader extracts the reflected declarations of one file in source order
func (p *GoParser) parseHeader(store *metadata.Store, pkg *pkgSource, file *ast.File, h *metadata.HeaderInfo, marked map[string]bool) (int, error) {
	h.PackageName = file.Name.Name
	h.IsDevOnly = requiresDevTools(file)

	x := &extractor{
		parser: p,
		store:  store,
		pkg:    pkg,
		file:   file,
		header: h,
		marked: marked,
	}
	decls, err := x.declarations()
	if err != nil {
		return 0, err
	}
	for _, d := range decls {
		var err error
		if d.directive.Name == solution.DirectiveEnum {
			err = x.enum(d)
		} else {
			err = x.structType(d)
		}
		if err != nil {
			return 0, err
		}
	}
	return len(decls), nil
}
