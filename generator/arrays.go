package generator

import (
	"github.com/dave/jennifer/jen"

	"github.com/teranos/mirror/metadata"
)

// arrayOp describes one generated array method
type arrayOp struct {
	name    string
	params  []jen.Code
	results []jen.Code
	dynamic bool // applies to slices only
	target  bool // takes the instance argument
	body    func(tg *typeGen, c *jen.Group, p *metadata.ReflectedProperty, field *jen.Statement)
}

// arrays emits the array methods. Each dispatches over the array properties
// the type declares and panics for any other property.
func (tg *typeGen) arrays(f *jen.File) {
	for _, op := range tg.arrayOps() {
		var props []*metadata.ReflectedProperty
		for _, p := range tg.t.ArrayProperties() {
			if !op.dynamic || p.IsDynamicArray() {
				props = append(props, p)
			}
		}

		params := []jen.Code{}
		if op.target {
			params = append(params, jen.Id("target").Id("any"))
		}
		params = append(params, jen.Id("id").Add(tg.rt("PropertyID")))
		params = append(params, op.params...)

		f.Func().Params(tg.recv()).Id(op.name).Params(params...).Params(op.results...).BlockFunc(func(b *jen.Group) {
			if len(props) > 0 {
				if op.target {
					b.Add(tg.cast("v", "target"))
				}
				b.Switch(jen.Id("id")).BlockFunc(func(sw *jen.Group) {
					for _, p := range props {
						sw.Case(jen.Id(propertyIDName(tg.t, p))).BlockFunc(func(c *jen.Group) {
							op.body(tg, c, p, jen.Id("v").Dot(p.Name))
						})
					}
				})
			}
			b.Add(tg.unreachable())
		})
	}
}

func (tg *typeGen) arrayOps() []arrayOp {
	index := jen.Id("index").Int()
	anyResult := []jen.Code{jen.Id("any")}

	return []arrayOp{
		{
			name: "ArrayElement", params: []jen.Code{index}, results: anyResult, target: true,
			body: func(tg *typeGen, c *jen.Group, p *metadata.ReflectedProperty, field *jen.Statement) {
				c.Return(jen.Op("&").Add(field).Index(jen.Id("index")))
			},
		},
		{
			name: "ArrayLen", results: []jen.Code{jen.Int()}, target: true,
			body: func(tg *typeGen, c *jen.Group, p *metadata.ReflectedProperty, field *jen.Statement) {
				c.Return(jen.Len(field))
			},
		},
		{
			name: "ArrayElementSize", results: []jen.Code{jen.Uintptr()},
			body: func(tg *typeGen, c *jen.Group, p *metadata.ReflectedProperty, field *jen.Statement) {
				c.Return(jen.Qual("unsafe", "Sizeof").Call(jen.Op("*").New(tg.elemType(p))))
			},
		},
		{
			name: "ArrayClear", dynamic: true, target: true,
			body: func(tg *typeGen, c *jen.Group, p *metadata.ReflectedProperty, field *jen.Statement) {
				c.Add(field).Op("=").Nil()
				c.Return()
			},
		},
		{
			name: "ArrayAppend", results: anyResult, dynamic: true, target: true,
			body: func(tg *typeGen, c *jen.Group, p *metadata.ReflectedProperty, field *jen.Statement) {
				c.Var().Id("zero").Add(tg.elemType(p))
				c.Add(field.Clone()).Op("=").Append(field.Clone(), jen.Id("zero"))
				c.Id("elem").Op(":=").Op("&").Add(field.Clone()).Index(jen.Len(field.Clone()).Op("-").Lit(1))
				tg.constructElement(c, p)
				c.Return(jen.Id("elem"))
			},
		},
		{
			name: "ArrayInsert", params: []jen.Code{index}, results: anyResult, dynamic: true, target: true,
			body: func(tg *typeGen, c *jen.Group, p *metadata.ReflectedProperty, field *jen.Statement) {
				c.Var().Id("zero").Add(tg.elemType(p))
				c.Add(field.Clone()).Op("=").Qual("slices", "Insert").Call(field.Clone(), jen.Id("index"), jen.Id("zero"))
				c.Id("elem").Op(":=").Op("&").Add(field.Clone()).Index(jen.Id("index"))
				tg.constructElement(c, p)
				c.Return(jen.Id("elem"))
			},
		},
		{
			name: "ArrayMove", params: []jen.Code{jen.List(jen.Id("from"), jen.Id("to")).Int()}, dynamic: true, target: true,
			body: func(tg *typeGen, c *jen.Group, p *metadata.ReflectedProperty, field *jen.Statement) {
				c.Add(tg.rt("MoveElement")).Call(field, jen.Id("from"), jen.Id("to"))
				c.Return()
			},
		},
		{
			name: "ArrayRemove", params: []jen.Code{index}, dynamic: true, target: true,
			body: func(tg *typeGen, c *jen.Group, p *metadata.ReflectedProperty, field *jen.Statement) {
				c.Add(field.Clone()).Op("=").Qual("slices", "Delete").Call(
					field.Clone(), jen.Id("index"), jen.Id("index").Op("+").Lit(1),
				)
				c.Return()
			},
		},
	}
}

// constructElement applies the defaults of a nested struct to a new element
func (tg *typeGen) constructElement(c *jen.Group, p *metadata.ReflectedProperty) {
	if p.Kind != metadata.KindStruct {
		return
	}
	if nested, ok := tg.store.TypeByName(p.TypeName); ok && nested.IsAbstract {
		return
	}
	c.Add(tg.nested(p)).Dot("Construct").Call(jen.Id("elem"))
}
