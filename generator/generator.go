// Package generator emits the Go descriptor sources for the reflected types in
// a metadata store.
//
// Every header gets a <base>_mirror.go file with one descriptor per reflected
// struct and one EnumInfo constructor per enum. Every project with a module
// file gets registration functions in zz_mirror_module.go and, for the devtools
// build, zz_mirror_module_devtools.go. Entity components get their resource
// lifecycle methods in zz_mirror_components.go. The solution directory holds
// RegisterAll and UnregisterAll for both builds.
//
// Rendering is deterministic and files are rewritten only when their content
// changes, so unrelated edits leave the build cache of other packages intact.
package generator

import (
	"path"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/logger"
	"github.com/teranos/mirror/metadata"
)

// DevToolsConstraint and RuntimeConstraint select the two generated builds
const (
	DevToolsConstraint = "//go:build devtools"
	RuntimeConstraint  = "//go:build !devtools"
)

// Options configure a generator
type Options struct {
	// RuntimeImport is the import path of the reflection runtime
	RuntimeImport string
	// SolutionDir is the slash path, relative to the solution root, of the
	// solution aggregate package
	SolutionDir string
	// SolutionPackage is the package name of the solution aggregate
	SolutionPackage string
}

// Generator renders artifacts for one solution
type Generator struct {
	store    *metadata.Store
	solution *metadata.SolutionInfo
	opts     Options
	out      *Output
	logger   *zap.SugaredLogger
}

// New creates a generator writing through out
func New(store *metadata.Store, info *metadata.SolutionInfo, opts Options, out *Output, log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = logger.Logger
	}
	return &Generator{
		store:    store,
		solution: info,
		opts:     opts,
		out:      out,
		logger:   log.Named("generator"),
	}
}

// Generate renders the descriptor files of headers, then every project
// aggregate and the solution aggregates.
func (g *Generator) Generate(headers []*metadata.HeaderInfo) error {
	for _, h := range headers {
		if err := g.GenerateHeader(h); err != nil {
			return err
		}
	}
	for _, p := range g.store.SortedProjects() {
		if err := g.GenerateProject(p); err != nil {
			return err
		}
	}
	return g.GenerateSolution()
}

// RemoveHeaderArtifacts deletes the descriptor file of headers that no longer exist
func (g *Generator) RemoveHeaderArtifacts(headers []*metadata.HeaderInfo) error {
	for _, h := range headers {
		if err := g.out.Remove(metadata.GeneratedPath(h.Path)); err != nil {
			return errors.Wrapf(err, "remove artifact of %s", h.Path)
		}
	}
	return nil
}

// newFile starts a generated file in the package at importPath. Project
// packages are imported under their declared names.
func (g *Generator) newFile(importPath, name string, constraint string) *jen.File {
	f := jen.NewFilePathName(importPath, name)
	f.HeaderComment(Banner)
	if constraint != "" {
		f.HeaderComment(constraint)
	}
	f.ImportName(g.opts.RuntimeImport, path.Base(g.opts.RuntimeImport))
	for _, p := range g.solution.Projects {
		if p.ImportPath != importPath {
			f.ImportName(p.ImportPath, p.PackageName)
		}
	}
	return f
}

// rt qualifies a runtime identifier
func (g *Generator) rt(name string) *jen.Statement {
	return jen.Qual(g.opts.RuntimeImport, name)
}

func (g *Generator) project(id metadata.ProjectID) (*metadata.ProjectInfo, bool) {
	for _, p := range g.solution.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return g.store.Project(id)
}
