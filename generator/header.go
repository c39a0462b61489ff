package generator

import (
	"sort"

	"github.com/dave/jennifer/jen"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
)

// GenerateHeader renders the descriptor file of one header
func (g *Generator) GenerateHeader(h *metadata.HeaderInfo) error {
	proj, ok := g.project(h.ProjectID)
	if !ok {
		return errors.AssertionFailedf("header %s belongs to unknown project %s", h.Path, h.ProjectID)
	}
	pkgName := h.PackageName
	if pkgName == "" {
		pkgName = proj.PackageName
	}

	constraint := ""
	if h.IsDevOnly {
		constraint = DevToolsConstraint
	}
	f := g.newFile(proj.ImportPath, pkgName, constraint)

	types := g.store.TypesForHeader(h.ID)
	if len(types) > 0 {
		f.Const().DefsFunc(func(defs *jen.Group) {
			for _, t := range types {
				defs.Id(typeIDName(t)).Add(g.rt("TypeID")).Op("=").Add(hexID(t.ID))
				for i := range t.Properties {
					p := &t.Properties[i]
					defs.Id(propertyIDName(t, p)).Add(g.rt("PropertyID")).Op("=").Add(hexID(p.ID))
				}
			}
		})
	}

	for _, t := range types {
		if t.IsEnum {
			g.enumInfo(f, t)
			continue
		}
		tg, err := g.newTypeGen(t)
		if err != nil {
			return errors.Wrapf(err, "generate %s", h.Path)
		}
		tg.descriptor(f)
		if r, ok := g.store.ResourceType(t.ID); ok {
			g.resourceTypeInfo(f, t, r)
		}
	}

	rel := metadata.GeneratedPath(h.Path)
	if err := g.out.Render(rel, f); err != nil {
		return errors.Wrapf(err, "write artifact of %s", h.Path)
	}
	return nil
}

// alphabeticalRanks returns, for each constant in declaration order, its
// position when sorted by label. Ties keep declaration order.
func alphabeticalRanks(constants []metadata.EnumConstant) []int {
	order := make([]int, len(constants))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return constants[order[i]].Label < constants[order[j]].Label
	})
	ranks := make([]int, len(constants))
	for rank, idx := range order {
		ranks[idx] = rank
	}
	return ranks
}

// enumInfo emits new<Enum>EnumInfo
func (g *Generator) enumInfo(f *jen.File, t *metadata.ReflectedType) {
	ranks := alphabeticalRanks(t.Constants)
	zero := jen.Id(t.Name).Call(jen.Lit(0))

	f.Func().Id(newEnumInfoName(t)).Params().Op("*").Add(g.rt("EnumInfo")).Block(
		jen.Return(jen.Op("&").Add(g.rt("EnumInfo")).Values(jen.Dict{
			jen.Id("ID"):          jen.Id(typeIDName(t)),
			jen.Id("Name"):        jen.Lit(t.QualifiedName()),
			jen.Id("Size"):        jen.Qual("unsafe", "Sizeof").Call(zero.Clone()),
			jen.Id("Align"):       jen.Qual("unsafe", "Alignof").Call(zero.Clone()),
			jen.Id("Kind"):        g.rt(coreKindName(t.UnderlyingKind)),
			jen.Id("DevOnly"):     jen.Lit(t.IsDevOnly),
			jen.Id("Description"): jen.Lit(t.Description),
			jen.Id("Constants"): jen.Index().Add(g.rt("EnumConstant")).ValuesFunc(func(vals *jen.Group) {
				for i, c := range t.Constants {
					vals.Values(jen.Dict{
						jen.Id("Label"):            jen.Lit(c.Label),
						jen.Id("Identifier"):       jen.Lit(c.Identifier),
						jen.Id("Value"):            jen.Lit(c.Value),
						jen.Id("Description"):      jen.Lit(c.Description),
						jen.Id("AlphabeticalRank"): jen.Lit(ranks[i]),
					})
				}
			}),
		})),
	)
}

// resourceTypeInfo emits new<Type>ResourceTypeInfo
func (g *Generator) resourceTypeInfo(f *jen.File, t *metadata.ReflectedType, r *metadata.ResourceTypeInfo) {
	parent := jen.Lit(0)
	if r.ParentTypeID != 0 {
		parent = hexID(r.ParentTypeID)
	}
	f.Func().Id(newResourceTypeInfoName(t)).Params().Op("*").Add(g.rt("ResourceTypeInfo")).Block(
		jen.Return(jen.Op("&").Add(g.rt("ResourceTypeInfo")).Values(jen.Dict{
			jen.Id("TypeID"):       jen.Id(typeIDName(t)),
			jen.Id("Code"):         jen.Lit(r.Code),
			jen.Id("FriendlyName"): jen.Lit(r.FriendlyName),
			jen.Id("ParentTypeID"): parent,
			jen.Id("DevOnly"):      jen.Lit(r.IsDevOnly),
		})),
	)
}
