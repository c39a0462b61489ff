package generator

import (
	"github.com/dave/jennifer/jen"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
)

// typeGen renders the descriptor of one reflected struct
type typeGen struct {
	*Generator
	t            *metadata.ReflectedType
	parent       *metadata.ReflectedType // nil for root types
	hasResources bool
}

func (g *Generator) newTypeGen(t *metadata.ReflectedType) (*typeGen, error) {
	tg := &typeGen{Generator: g, t: t, hasResources: g.store.HasResources(t)}
	if t.HasParent() {
		parent, ok := g.store.Type(t.ParentID)
		if !ok {
			return nil, errors.AssertionFailedf("parent %s of %s is not in the store", t.ParentID, t.QualifiedName())
		}
		tg.parent = parent
	}
	for i := range t.Properties {
		p := &t.Properties[i]
		if p.Kind == metadata.KindNamed {
			return nil, errors.AssertionFailedf("property %s.%s was not resolved", t.Name, p.Name)
		}
	}
	return tg, nil
}

// recv is the method receiver
func (tg *typeGen) recv() *jen.Statement {
	return jen.Id("d").Op("*").Id(descriptorName(tg.t))
}

// self is the reflected type
func (tg *typeGen) self() *jen.Statement {
	return jen.Id(tg.t.Name)
}

// cast asserts the instance argument to the reflected type
func (tg *typeGen) cast(v, arg string) jen.Code {
	return jen.Id(v).Op(":=").Id(arg).Assert(jen.Op("*").Add(tg.self()))
}

// unreachable is the fallback of every property dispatch
func (tg *typeGen) unreachable() jen.Code {
	return jen.Panic(tg.rt("Unreachable").Call(jen.Id("d").Dot("info").Dot("Name"), jen.Id("id")))
}

// nested returns the registry lookup of a nested struct property's descriptor
func (tg *typeGen) nested(p *metadata.ReflectedProperty) *jen.Statement {
	return jen.Id("d").Dot("registry").Dot("MustDescriptor").Call(hexID(elementTypeID(p)))
}

func elementTypeID(p *metadata.ReflectedProperty) metadata.TypeID {
	return metadata.NewTypeID(metadata.SplitQualifiedName(p.TypeName))
}

// elemType renders the element type of a property
func (tg *typeGen) elemType(p *metadata.ReflectedProperty) *jen.Statement {
	if p.Kind == metadata.KindResource {
		if p.TemplateArgTypeName != "" {
			return tg.rt("TypedResourcePtr").Types(typeCode(p.TemplateArgTypeName))
		}
		return tg.rt("ResourcePtr")
	}
	return typeCode(p.TypeName)
}

// descriptor emits everything generated for one struct
func (tg *typeGen) descriptor(f *jen.File) {
	if !tg.t.IsAbstract {
		tg.defaults(f)
	}
	tg.descriptorType(f)
	tg.constructor(f)
	tg.lifecycle(f)
	tg.equality(f)
	tg.reset(f)
	tg.arrays(f)
	if tg.hasResources {
		tg.resources(f)
	}
}

// defaults emits the lazily built default instance
func (tg *typeGen) defaults(f *jen.File) {
	f.Var().Id(defaultsName(tg.t)).Op("=").Qual("sync", "OnceValue").Call(
		jen.Func().Params().Op("*").Add(tg.self()).Block(
			jen.Id("v").Op(":=").New(tg.self()),
			jen.If(
				jen.List(jen.Id("d"), jen.Id("ok")).Op(":=").Id("any").Call(jen.Id("v")).Assert(tg.rt("Defaulter")),
				jen.Id("ok"),
			).Block(jen.Id("d").Dot("SetDefaults").Call()),
			jen.Return(jen.Id("v")),
		),
	)
}

func (tg *typeGen) descriptorType(f *jen.File) {
	f.Commentf("%s describes %s", descriptorName(tg.t), tg.t.Name)
	f.Type().Id(descriptorName(tg.t)).StructFunc(func(s *jen.Group) {
		if !tg.hasResources {
			s.Add(tg.rt("NoResources"))
		}
		s.Id("info").Add(tg.rt("TypeInfo"))
		s.Id("registry").Op("*").Add(tg.rt("Registry"))
	})
}

// constructor emits new<Type>Descriptor, which wires the parent descriptor and
// the property table
func (tg *typeGen) constructor(f *jen.File) {
	t := tg.t
	f.Func().Id(newDescriptorName(t)).Params(jen.Id("r").Op("*").Add(tg.rt("Registry"))).Op("*").Id(descriptorName(t)).BlockFunc(func(b *jen.Group) {
		info := jen.Dict{
			jen.Id("ID"):              jen.Id(typeIDName(t)),
			jen.Id("Name"):            jen.Lit(t.QualifiedName()),
			jen.Id("Size"):            jen.Qual("unsafe", "Sizeof").Call(tg.self().Values()),
			jen.Id("Align"):           jen.Qual("unsafe", "Alignof").Call(tg.self().Values()),
			jen.Id("Abstract"):        jen.Lit(t.IsAbstract),
			jen.Id("EntityComponent"): jen.Lit(t.IsEntityComponent),
			jen.Id("DevOnly"):         jen.Lit(t.IsDevOnly),
			jen.Id("Description"):     jen.Lit(t.Description),
		}
		if tg.parent != nil {
			b.List(jen.Id("parent"), jen.Id("_")).Op(":=").Id("r").Dot("Descriptor").Call(hexID(t.ParentID))
			info[jen.Id("ParentID")] = hexID(t.ParentID)
			info[jen.Id("Parent")] = jen.Id("parent")
		}
		b.Id("d").Op(":=").Op("&").Id(descriptorName(t)).Values(jen.Dict{
			jen.Id("registry"): jen.Id("r"),
			jen.Id("info"):     tg.rt("TypeInfo").Values(info),
		})

		if !t.IsAbstract && len(t.Properties) > 0 {
			b.Id("defaults").Op(":=").Id(defaultsName(t)).Call()
		}
		var devOnly []jen.Code
		for i := range t.Properties {
			p := &t.Properties[i]
			stmt := jen.Id("d").Dot("info").Dot("Properties").Op("=").Append(
				jen.Id("d").Dot("info").Dot("Properties"),
				tg.propertyInfo(p),
			)
			if p.IsDevOnly && !t.IsDevOnly {
				devOnly = append(devOnly, stmt)
				continue
			}
			b.Add(stmt)
		}
		if len(devOnly) > 0 {
			b.If(tg.rt("DevelopmentTools")).Block(devOnly...)
		}
		b.Return(jen.Id("d"))
	})
}

// propertyInfo renders the reflection.PropertyInfo literal of p
func (tg *typeGen) propertyInfo(p *metadata.ReflectedProperty) jen.Code {
	field := tg.self().Values().Dot(p.Name)
	info := jen.Dict{
		jen.Id("ID"):       jen.Id(propertyIDName(tg.t, p)),
		jen.Id("Name"):     jen.Lit(p.Name),
		jen.Id("TypeName"): jen.Lit(p.TypeName),
		jen.Id("Offset"):   jen.Qual("unsafe", "Offsetof").Call(field.Clone()),
		jen.Id("Size"):     jen.Qual("unsafe", "Sizeof").Call(field.Clone()),
	}
	if p.Kind == metadata.KindEnum || p.Kind == metadata.KindStruct {
		info[jen.Id("TypeID")] = hexID(elementTypeID(p))
	}
	switch p.ArrayKind {
	case metadata.ArrayFixed:
		info[jen.Id("ArrayKind")] = tg.rt("ArrayFixed")
		info[jen.Id("ArraySize")] = jen.Lit(p.ArraySize)
	case metadata.ArrayDynamic:
		info[jen.Id("ArrayKind")] = tg.rt("ArrayDynamic")
	}
	if !tg.t.IsAbstract {
		info[jen.Id("Default")] = jen.Qual("unsafe", "Pointer").Call(jen.Op("&").Id("defaults").Dot(p.Name))
	}
	var flags []jen.Code
	if p.IsDevOnly {
		flags = append(flags, tg.rt("PropertyDevOnly"))
	}
	if p.IsToolsReadOnly {
		flags = append(flags, tg.rt("PropertyReadOnly"))
	}
	if p.IsExposedForVisualization {
		flags = append(flags, tg.rt("PropertyVisualize"))
	}
	if len(flags) > 0 {
		info[jen.Id("Flags")] = jen.Add(flags[0]).Do(func(s *jen.Statement) {
			for _, fl := range flags[1:] {
				s.Op("|").Add(fl)
			}
		})
	}
	if p.Description != "" {
		info[jen.Id("Description")] = jen.Lit(p.Description)
	}
	return tg.rt("PropertyInfo").Values(info)
}

// lifecycle emits Info, New and Construct
func (tg *typeGen) lifecycle(f *jen.File) {
	f.Func().Params(tg.recv()).Id("Info").Params().Op("*").Add(tg.rt("TypeInfo")).Block(
		jen.Return(jen.Op("&").Id("d").Dot("info")),
	)

	if tg.t.IsAbstract {
		f.Func().Params(tg.recv()).Id("New").Params().Id("any").Block(
			jen.Panic(tg.rt("ErrAbstractType")),
		)
		f.Func().Params(tg.recv()).Id("Construct").Params(jen.Id("target").Id("any")).Block(
			jen.Panic(tg.rt("ErrAbstractType")),
		)
		return
	}

	f.Func().Params(tg.recv()).Id("New").Params().Id("any").Block(
		jen.Id("v").Op(":=").New(tg.self()),
		jen.Id("d").Dot("Construct").Call(jen.Id("v")),
		jen.Return(jen.Id("v")),
	)
	f.Func().Params(tg.recv()).Id("Construct").Params(jen.Id("target").Id("any")).Block(
		tg.cast("v", "target"),
		jen.Op("*").Id("v").Op("=").Add(tg.self()).Values(),
		jen.If(
			jen.List(jen.Id("def"), jen.Id("ok")).Op(":=").Id("any").Call(jen.Id("v")).Assert(tg.rt("Defaulter")),
			jen.Id("ok"),
		).Block(jen.Id("def").Dot("SetDefaults").Call()),
	)
}

// reset emits ResetProperty, copying from the default instance
func (tg *typeGen) reset(f *jen.File) {
	t := tg.t
	f.Func().Params(tg.recv()).Id("ResetProperty").Params(
		jen.Id("target").Id("any"), jen.Id("id").Add(tg.rt("PropertyID")),
	).BlockFunc(func(b *jen.Group) {
		if len(t.Properties) == 0 {
			b.Add(tg.unreachable())
			return
		}
		b.Add(tg.cast("v", "target"))
		b.Switch(jen.Id("id")).BlockFunc(func(sw *jen.Group) {
			for i := range t.Properties {
				p := &t.Properties[i]
				var source *jen.Statement
				if t.IsAbstract {
					source = tg.self().Values().Dot(p.Name)
				} else {
					source = jen.Id(defaultsName(t)).Call().Dot(p.Name)
				}
				if p.ArrayKind == metadata.ArrayDynamic {
					if t.IsAbstract {
						source = jen.Nil()
					} else {
						source = jen.Qual("slices", "Clone").Call(source)
					}
				}
				sw.Case(jen.Id(propertyIDName(t, p))).Block(
					jen.Id("v").Dot(p.Name).Op("=").Add(source),
					jen.Return(),
				)
			}
		})
		b.Add(tg.unreachable())
	})
}
