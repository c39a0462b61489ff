package generator

import (
	"path"
	"path/filepath"

	"github.com/dave/jennifer/jen"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
	"github.com/teranos/mirror/solution"
)

// buildMode is one of the two solution aggregates
type buildMode struct {
	file       string
	constraint string
	devtools   bool
}

var buildModes = []buildMode{
	{metadata.SolutionFileName, RuntimeConstraint, false},
	{metadata.SolutionDevToolsFileName, DevToolsConstraint, true},
}

// SolutionImportPath returns the import path of the solution aggregate package
func (g *Generator) SolutionImportPath() (string, error) {
	dir := filepath.Join(g.solution.Root, filepath.FromSlash(g.opts.SolutionDir))
	return solution.ImportPath(g.solution.ModuleRoot, g.solution.ModulePath, dir)
}

// GenerateSolution renders RegisterAll and UnregisterAll for the runtime and
// devtools builds
func (g *Generator) GenerateSolution() error {
	importPath, err := g.SolutionImportPath()
	if err != nil {
		return errors.Wrap(err, "locate solution package")
	}

	for _, mode := range buildModes {
		projects := g.modeProjects(mode)
		links, err := g.resourceLinks(mode, projects)
		if err != nil {
			return err
		}

		f := g.newFile(importPath, g.opts.SolutionPackage, mode.constraint)
		g.solutionFuncs(f, projects, links)
		if err := g.out.Render(path.Join(g.opts.SolutionDir, mode.file), f); err != nil {
			return errors.Wrap(err, "write solution aggregate")
		}
	}
	return nil
}

// modeProjects returns the projects a build registers, by ascending rank.
// Both builds skip projects without a module file, the runtime build also
// skips tools-only projects.
func (g *Generator) modeProjects(mode buildMode) []*metadata.ProjectInfo {
	var out []*metadata.ProjectInfo
	for _, p := range g.store.SortedProjects() {
		if !p.HasModule() || (p.IsToolsOnly && !mode.devtools) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// resourceLink pairs a resource type with its declared parent
type resourceLink struct {
	child, parent *metadata.ResourceTypeInfo
}

// resourceLinks resolves the declared parent of every resource type the build
// registers by scanning all resource types. A parent that cannot be found is
// an assertion failure: validation rejects such solutions before generation.
func (g *Generator) resourceLinks(mode buildMode, projects []*metadata.ProjectInfo) ([]resourceLink, error) {
	included := make(map[metadata.ProjectID]bool, len(projects))
	for _, p := range projects {
		included[p.ID] = true
	}
	inBuild := func(r *metadata.ResourceTypeInfo) bool {
		if r.IsDevOnly && !mode.devtools {
			return false
		}
		t, ok := g.store.Type(r.TypeID)
		if !ok {
			return false
		}
		h, ok := g.store.Header(t.HeaderID)
		return ok && included[h.ProjectID]
	}

	all := g.store.ResourceTypes()
	var links []resourceLink
	for _, r := range all {
		if r.ParentTypeID == 0 || !inBuild(r) {
			continue
		}
		var parent *metadata.ResourceTypeInfo
		for _, candidate := range all {
			if candidate.TypeID == r.ParentTypeID {
				parent = candidate
				break
			}
		}
		if parent == nil || !inBuild(parent) {
			return nil, errors.AssertionFailedf("resource type %s has unresolvable parent %s", r.FriendlyName, r.ParentTypeID)
		}
		links = append(links, resourceLink{child: r, parent: parent})
	}
	return links, nil
}

func (g *Generator) solutionFuncs(f *jen.File, projects []*metadata.ProjectInfo, links []resourceLink) {
	registry := jen.Id("r").Op("*").Add(g.rt("Registry"))

	f.Comment("RegisterAll registers the reflected types of every project, dependencies first.")
	f.Func().Id("RegisterAll").Params(registry.Clone()).Error().BlockFunc(func(b *jen.Group) {
		for _, p := range projects {
			b.If(
				jen.Err().Op(":=").Qual(p.ImportPath, "RegisterReflectedTypes").Call(jen.Id("r")),
				jen.Err().Op("!=").Nil(),
			).Block(
				jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit("register project "+p.Name+": %w"), jen.Err())),
			)
		}
		b.Return(jen.Id("registerResourceTypes").Call(jen.Id("r")))
	})

	f.Comment("UnregisterAll unregisters every project in the reverse order of RegisterAll.")
	f.Func().Id("UnregisterAll").Params(registry.Clone()).BlockFunc(func(b *jen.Group) {
		for i := len(projects) - 1; i >= 0; i-- {
			b.Qual(projects[i].ImportPath, "UnregisterReflectedTypes").Call(jen.Id("r"))
		}
	})

	f.Comment("registerResourceTypes links each resource type to its parent resource type.")
	f.Func().Id("registerResourceTypes").Params(registry.Clone()).Error().BlockFunc(func(b *jen.Group) {
		for _, l := range links {
			b.Commentf("%s -> %s", l.child.FriendlyName, l.parent.FriendlyName)
			b.If(
				jen.Err().Op(":=").Id("r").Dot("LinkResourceType").Call(hexID(l.child.TypeID), hexID(l.parent.TypeID)),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err()))
		}
		b.Return(jen.Nil())
	})
}
