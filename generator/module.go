package generator

import (
	"path"

	"github.com/dave/jennifer/jen"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/logger"
	"github.com/teranos/mirror/metadata"
)

// registration is one step of a project's RegisterReflectedTypes
type registration struct {
	register   jen.Code
	unregister jen.Code
}

// GenerateProject renders the registration and component files of a project.
// Projects without a module file get nothing.
func (g *Generator) GenerateProject(p *metadata.ProjectInfo) error {
	if !p.HasModule() {
		return nil
	}

	types, err := metadata.SortTypesByInheritance(g.store.TypesForProject(p.ID))
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "cyclic dependency in project %s", p.Name), errors.ErrCyclicDependency)
	}

	for _, mode := range []struct {
		file       string
		constraint string
		devtools   bool
	}{
		{metadata.ModuleFileName, RuntimeConstraint, false},
		{metadata.ModuleDevToolsFileName, DevToolsConstraint, true},
	} {
		f := g.newFile(p.ImportPath, p.PackageName, mode.constraint)
		g.moduleFuncs(f, p, types, mode.devtools)
		if err := g.out.Render(path.Join(p.Path, mode.file), f); err != nil {
			return errors.Wrapf(err, "write module of project %s", p.Name)
		}
	}

	if err := g.components(p, types); err != nil {
		return err
	}

	g.logger.Debugw("Generated project aggregate",
		logger.FieldProject, p.Name,
		logger.FieldCount, len(types),
	)
	return nil
}

// registrations lists the register/unregister calls of the project's types:
// enums first, then structs in inheritance order, each resource type right
// after its struct.
func (g *Generator) registrations(types []*metadata.ReflectedType, devtools bool) []registration {
	var enums, structs []registration
	r := jen.Id("r")
	for _, t := range types {
		if t.IsDevOnly && !devtools {
			continue
		}
		if t.IsEnum {
			enums = append(enums, registration{
				register:   r.Clone().Dot("RegisterEnum").Call(jen.Id(newEnumInfoName(t)).Call()),
				unregister: r.Clone().Dot("UnregisterEnum").Call(jen.Id(typeIDName(t))),
			})
			continue
		}
		structs = append(structs, registration{
			register:   r.Clone().Dot("RegisterType").Call(jen.Id(newDescriptorName(t)).Call(jen.Id("r"))),
			unregister: r.Clone().Dot("UnregisterType").Call(jen.Id(typeIDName(t))),
		})
		if res, ok := g.store.ResourceType(t.ID); ok && (devtools || !res.IsDevOnly) {
			structs = append(structs, registration{
				register:   r.Clone().Dot("RegisterResourceType").Call(jen.Id(newResourceTypeInfoName(t)).Call()),
				unregister: r.Clone().Dot("UnregisterResourceType").Call(jen.Id(typeIDName(t))),
			})
		}
	}
	return append(enums, structs...)
}

// moduleFuncs emits RegisterReflectedTypes and UnregisterReflectedTypes, the
// latter in strictly reverse order
func (g *Generator) moduleFuncs(f *jen.File, p *metadata.ProjectInfo, types []*metadata.ReflectedType, devtools bool) {
	steps := g.registrations(types, devtools)
	registry := jen.Id("r").Op("*").Add(g.rt("Registry"))

	f.Commentf("RegisterReflectedTypes registers the reflected types of package %s with r.", p.PackageName)
	f.Func().Id("RegisterReflectedTypes").Params(registry.Clone()).Error().BlockFunc(func(b *jen.Group) {
		for _, s := range steps {
			b.If(jen.Err().Op(":=").Add(s.register), jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
		}
		b.Return(jen.Nil())
	})

	f.Comment("UnregisterReflectedTypes removes the types RegisterReflectedTypes added, in reverse order.")
	f.Func().Id("UnregisterReflectedTypes").Params(registry.Clone()).BlockFunc(func(b *jen.Group) {
		for i := len(steps) - 1; i >= 0; i-- {
			b.Add(steps[i].unregister)
		}
	})
}

// components renders the resource lifecycle methods of the project's entity
// components. Development-only components, whether marked dev or declared in a
// devtools header, go to a devtools-only file: the runtime build never
// registers their descriptors.
func (g *Generator) components(p *metadata.ProjectInfo, types []*metadata.ReflectedType) error {
	var runtime, devtools []*metadata.ReflectedType
	for _, t := range types {
		if !t.IsEntityComponent {
			continue
		}
		if t.IsDevOnly {
			devtools = append(devtools, t)
		} else {
			runtime = append(runtime, t)
		}
	}

	for _, set := range []struct {
		file       string
		constraint string
		types      []*metadata.ReflectedType
	}{
		{metadata.ComponentsFileName, "", runtime},
		{metadata.ComponentsDevToolsFileName, DevToolsConstraint, devtools},
	} {
		rel := path.Join(p.Path, set.file)
		if len(set.types) == 0 {
			if err := g.out.Remove(rel); err != nil {
				return err
			}
			continue
		}
		f := g.newFile(p.ImportPath, p.PackageName, set.constraint)
		for _, t := range set.types {
			g.componentMethods(f, t)
		}
		if err := g.out.Render(rel, f); err != nil {
			return errors.Wrapf(err, "write components of project %s", p.Name)
		}
	}
	return nil
}

// componentMethods emits BeginResourceLoad, BeginResourceUnload and
// UpdateResourceLoadingStatus for one component
func (g *Generator) componentMethods(f *jen.File, t *metadata.ReflectedType) {
	recv := jen.Id("c").Op("*").Id(t.Name)
	registry := jen.Op("*").Add(g.rt("Registry"))
	rs := g.rt("ResourceSystem")
	descriptor := jen.Id("r").Dot("MustDescriptor").Call(jen.Id(typeIDName(t)))

	if !g.store.HasResources(t) {
		f.Commentf("BeginResourceLoad marks %s loaded, it references no resources.", t.Name)
		f.Func().Params(recv.Clone()).Id("BeginResourceLoad").Params(registry.Clone(), rs.Clone()).Block(
			jen.Id("c").Dot("SetLoadingStatus").Call(g.rt("StatusLoaded")),
		)
		f.Commentf("BeginResourceUnload marks %s unloaded.", t.Name)
		f.Func().Params(recv.Clone()).Id("BeginResourceUnload").Params(registry.Clone(), rs.Clone()).Block(
			jen.Id("c").Dot("SetLoadingStatus").Call(g.rt("StatusUnloaded")),
		)
		f.Func().Params(recv.Clone()).Id("UpdateResourceLoadingStatus").Params(registry.Clone(), rs.Clone()).Block()
		return
	}

	params := []jen.Code{jen.Id("r").Add(registry.Clone()), jen.Id("rs").Add(rs.Clone())}

	f.Commentf("BeginResourceLoad requests the resources %s references.", t.Name)
	f.Func().Params(recv.Clone()).Id("BeginResourceLoad").Params(params...).Block(
		jen.Id("c").Dot("SetLoadingStatus").Call(g.rt("StatusLoading")),
		descriptor.Clone().Dot("LoadResources").Call(jen.Id("c"), jen.Id("rs"), jen.Id("c").Dot("Requester").Call()),
	)
	f.Commentf("BeginResourceUnload releases the resources %s references.", t.Name)
	f.Func().Params(recv.Clone()).Id("BeginResourceUnload").Params(params...).Block(
		jen.Id("c").Dot("SetLoadingStatus").Call(g.rt("StatusUnloading")),
		descriptor.Clone().Dot("UnloadResources").Call(jen.Id("c"), jen.Id("rs"), jen.Id("c").Dot("Requester").Call()),
	)
	f.Comment("UpdateResourceLoadingStatus settles the loading status once every resource has resolved.")
	f.Func().Params(recv.Clone()).Id("UpdateResourceLoadingStatus").Params(params...).Block(
		jen.Switch(jen.Id("c").Dot("LoadingStatus").Call()).Block(
			jen.Case(g.rt("StatusLoading")).Block(
				jen.Id("c").Dot("SetLoadingStatus").Call(descriptor.Clone().Dot("ResourceLoadingStatus").Call(jen.Id("c"), jen.Id("rs"))),
			),
			jen.Case(g.rt("StatusUnloading")).Block(
				jen.Id("c").Dot("SetLoadingStatus").Call(descriptor.Clone().Dot("ResourceUnloadingStatus").Call(jen.Id("c"), jen.Id("rs"))),
			),
		),
	)
}
