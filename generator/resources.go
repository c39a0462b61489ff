package generator

import (
	"github.com/dave/jennifer/jen"

	"github.com/teranos/mirror/metadata"
)

// resourceOp describes one generated resource method
type resourceOp struct {
	name    string
	params  []jen.Code
	args    []jen.Code // forwarded to parent and nested descriptors
	results []jen.Code

	// prologue, per-pointer statement, nested forwarding and epilogue
	start  func(b *jen.Group)
	ptr    func(ptr *jen.Statement) jen.Code
	nested func(call *jen.Statement) jen.Code
	end    func(b *jen.Group)
}

func (tg *typeGen) resourceOps() []resourceOp {
	rs := jen.Id("rs").Add(tg.rt("ResourceSystem"))
	requester := jen.Id("requester").Add(tg.rt("Requester"))
	status := tg.rt("LoadingStatus")

	call := func(method string) func(ptr *jen.Statement) jen.Code {
		return func(ptr *jen.Statement) jen.Code {
			return jen.Id("rs").Dot(method).Call(ptr.Dot("Ptr").Call(), jen.Id("requester"))
		}
	}
	forward := func(call *jen.Statement) jen.Code { return call }
	combine := func(method string) func(ptr *jen.Statement) jen.Code {
		return func(ptr *jen.Statement) jen.Code {
			return jen.Id("status").Op("=").Id("status").Dot("Combine").Call(
				jen.Id("rs").Dot(method).Call(ptr.Dot("Ptr").Call()),
			)
		}
	}
	combineNested := func(call *jen.Statement) jen.Code {
		return jen.Id("status").Op("=").Id("status").Dot("Combine").Call(call)
	}
	startStatus := func(initial string) func(b *jen.Group) {
		return func(b *jen.Group) { b.Id("status").Op(":=").Add(tg.rt(initial)) }
	}
	returnStatus := func(b *jen.Group) { b.Return(jen.Id("status")) }

	return []resourceOp{
		{
			name:   "LoadResources",
			params: []jen.Code{rs.Clone(), requester.Clone()},
			args:   []jen.Code{jen.Id("rs"), jen.Id("requester")},
			ptr:    call("LoadResource"),
			nested: forward,
		},
		{
			name:   "UnloadResources",
			params: []jen.Code{rs.Clone(), requester.Clone()},
			args:   []jen.Code{jen.Id("rs"), jen.Id("requester")},
			ptr:    call("UnloadResource"),
			nested: forward,
		},
		{
			name:    "ResourceLoadingStatus",
			params:  []jen.Code{rs.Clone()},
			args:    []jen.Code{jen.Id("rs")},
			results: []jen.Code{status.Clone()},
			start:   startStatus("StatusLoaded"),
			ptr:     combine("LoadingStatus"),
			nested:  combineNested,
			end:     returnStatus,
		},
		{
			name:    "ResourceUnloadingStatus",
			params:  []jen.Code{rs.Clone()},
			args:    []jen.Code{jen.Id("rs")},
			results: []jen.Code{status.Clone()},
			start:   startStatus("StatusUnloaded"),
			ptr:     combine("UnloadingStatus"),
			nested:  combineNested,
			end:     returnStatus,
		},
		{
			name:    "ReferencedResources",
			params:  []jen.Code{jen.Id("out").Index().Add(tg.rt("ResourcePtr"))},
			args:    []jen.Code{jen.Id("out")},
			results: []jen.Code{jen.Index().Add(tg.rt("ResourcePtr"))},
			ptr: func(ptr *jen.Statement) jen.Code {
				return jen.Id("out").Op("=").Append(jen.Id("out"), ptr.Dot("Ptr").Call())
			},
			nested: func(call *jen.Statement) jen.Code { return jen.Id("out").Op("=").Add(call) },
			end:    func(b *jen.Group) { b.Return(jen.Id("out")) },
		},
	}
}

// resources emits the resource methods. They recurse into the parent and
// nested structs that reference resources, iterate arrays and skip unset
// pointers. Types without resources embed reflection.NoResources instead.
func (tg *typeGen) resources(f *jen.File) {
	for _, op := range tg.resourceOps() {
		params := append([]jen.Code{jen.Id("target").Id("any")}, op.params...)
		f.Func().Params(tg.recv()).Id(op.name).Params(params...).Params(op.results...).BlockFunc(func(b *jen.Group) {
			b.Add(tg.cast("v", "target"))
			if op.start != nil {
				op.start(b)
			}
			if tg.parent != nil && tg.store.HasResources(tg.parent) {
				b.Add(op.nested(jen.Id("d").Dot("info").Dot("Parent").Dot(op.name).Call(
					append([]jen.Code{jen.Op("&").Id("v").Dot(tg.t.ParentField)}, op.args...)...,
				)))
			}
			for i := range tg.t.Properties {
				tg.resourceProperty(b, op, &tg.t.Properties[i])
			}
			if op.end != nil {
				op.end(b)
			}
		})
	}
}

// resourceProperty renders the handling of one property in a resource method
func (tg *typeGen) resourceProperty(b *jen.Group, op resourceOp, p *metadata.ReflectedProperty) {
	field := jen.Id("v").Dot(p.Name)

	switch p.Kind {
	case metadata.KindResource:
		visit := func(ptr *jen.Statement) jen.Code {
			return jen.If(ptr.Clone().Dot("IsSet").Call()).Block(op.ptr(ptr.Clone()))
		}
		if p.IsArray() {
			b.For(jen.Id("i").Op(":=").Range().Add(field.Clone())).Block(
				visit(field.Clone().Index(jen.Id("i"))),
			)
			return
		}
		b.Add(visit(field))

	case metadata.KindStruct:
		nested, ok := tg.store.TypeByName(p.TypeName)
		if !ok || !tg.store.HasResources(nested) {
			return
		}
		visit := func(desc *jen.Statement, elem *jen.Statement) jen.Code {
			return op.nested(desc.Dot(op.name).Call(append([]jen.Code{jen.Op("&").Add(elem)}, op.args...)...))
		}
		if p.IsArray() {
			b.BlockFunc(func(blk *jen.Group) {
				blk.Id("nested").Op(":=").Add(tg.nested(p))
				blk.For(jen.Id("i").Op(":=").Range().Add(field.Clone())).Block(
					visit(jen.Id("nested"), field.Clone().Index(jen.Id("i"))),
				)
			})
			return
		}
		b.Add(visit(tg.nested(p), field))
	}
}
