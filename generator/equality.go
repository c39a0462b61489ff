package generator

import (
	"github.com/dave/jennifer/jen"

	"github.com/teranos/mirror/metadata"
)

// equality emits Equal and PropertyEqual. Equal compares the parent first,
// then every declared property in order.
func (tg *typeGen) equality(f *jen.File) {
	t := tg.t

	f.Func().Params(tg.recv()).Id("Equal").Params(jen.List(jen.Id("a"), jen.Id("b")).Id("any")).Bool().BlockFunc(func(b *jen.Group) {
		if tg.parent != nil {
			b.List(jen.Id("va"), jen.Id("vb")).Op(":=").List(
				jen.Id("a").Assert(jen.Op("*").Add(tg.self())),
				jen.Id("b").Assert(jen.Op("*").Add(tg.self())),
			)
			b.If(jen.Op("!").Id("d").Dot("info").Dot("Parent").Dot("Equal").Call(
				jen.Op("&").Id("va").Dot(t.ParentField),
				jen.Op("&").Id("vb").Dot(t.ParentField),
			)).Block(jen.Return(jen.False()))
		}
		for i := range t.Properties {
			p := &t.Properties[i]
			b.If(jen.Op("!").Id("d").Dot("PropertyEqual").Call(
				jen.Id("a"), jen.Id("b"), jen.Id(propertyIDName(t, p)), jen.Lit(-1),
			)).Block(jen.Return(jen.False()))
		}
		b.Return(jen.True())
	})

	f.Func().Params(tg.recv()).Id("PropertyEqual").Params(
		jen.List(jen.Id("a"), jen.Id("b")).Id("any"),
		jen.Id("id").Add(tg.rt("PropertyID")),
		jen.Id("index").Int(),
	).Bool().BlockFunc(func(b *jen.Group) {
		if len(t.Properties) == 0 {
			b.Add(tg.unreachable())
			return
		}
		b.List(jen.Id("va"), jen.Id("vb")).Op(":=").List(
			jen.Id("a").Assert(jen.Op("*").Add(tg.self())),
			jen.Id("b").Assert(jen.Op("*").Add(tg.self())),
		)
		b.Switch(jen.Id("id")).BlockFunc(func(sw *jen.Group) {
			for i := range t.Properties {
				p := &t.Properties[i]
				sw.Case(jen.Id(propertyIDName(t, p))).BlockFunc(func(c *jen.Group) {
					tg.propertyEqual(c, p)
				})
			}
		})
		b.Add(tg.unreachable())
	})
}

// propertyEqual renders the body of one PropertyEqual case
func (tg *typeGen) propertyEqual(c *jen.Group, p *metadata.ReflectedProperty) {
	fa, fb := jen.Id("va").Dot(p.Name), jen.Id("vb").Dot(p.Name)

	if p.Kind != metadata.KindStruct {
		if p.IsArray() {
			c.If(jen.Id("index").Op(">=").Lit(0)).Block(
				outOfRange(fa, fb),
				jen.Return(fa.Clone().Index(jen.Id("index")).Op("==").Add(fb.Clone().Index(jen.Id("index")))),
			)
		}
		if p.ArrayKind == metadata.ArrayDynamic {
			c.Return(jen.Qual("slices", "Equal").Call(fa, fb))
			return
		}
		c.Return(fa.Op("==").Add(fb))
		return
	}

	// nested reflected struct, compared through its descriptor
	if !p.IsArray() {
		c.Return(tg.nested(p).Dot("Equal").Call(jen.Op("&").Add(fa), jen.Op("&").Add(fb)))
		return
	}
	c.Id("nested").Op(":=").Add(tg.nested(p))
	c.If(jen.Id("index").Op(">=").Lit(0)).Block(
		outOfRange(fa, fb),
		jen.Return(jen.Id("nested").Dot("Equal").Call(
			jen.Op("&").Add(fa.Clone().Index(jen.Id("index"))),
			jen.Op("&").Add(fb.Clone().Index(jen.Id("index"))),
		)),
	)
	if p.ArrayKind == metadata.ArrayDynamic {
		c.If(jen.Len(fa.Clone()).Op("!=").Len(fb.Clone())).Block(jen.Return(jen.False()))
	}
	c.For(jen.Id("i").Op(":=").Range().Add(fa.Clone())).Block(
		jen.If(jen.Op("!").Id("nested").Dot("Equal").Call(
			jen.Op("&").Add(fa.Clone().Index(jen.Id("i"))),
			jen.Op("&").Add(fb.Clone().Index(jen.Id("i"))),
		)).Block(jen.Return(jen.False())),
	)
	c.Return(jen.True())
}

// outOfRange makes an indexed comparison false when either array has no
// element at index, e.g. when comparing against an empty default
func outOfRange(fa, fb *jen.Statement) jen.Code {
	return jen.If(
		jen.Id("index").Op(">=").Len(fa.Clone()).Op("||").Id("index").Op(">=").Len(fb.Clone()),
	).Block(jen.Return(jen.False()))
}
