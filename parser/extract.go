package parser

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
	"github.com/teranos/mirror/solution"
)

var resourceCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,4}$`)

// extractor turns the marked declarations of one header into store records
type extractor struct {
	parser *GoParser
	store  *metadata.Store
	pkg    *pkgSource
	file   *ast.File
	header *metadata.HeaderInfo
	marked map[string]bool
}

// declaration is one marked type declaration
type declaration struct {
	gen       *ast.GenDecl
	spec      *ast.TypeSpec
	directive solution.Directive
}

func (x *extractor) pos(p token.Pos) token.Position {
	pos := x.pkg.fset.Position(p)
	pos.Filename = x.header.Path
	return pos
}

func (x *extractor) errorf(p token.Pos, format string, args ...interface{}) error {
	return errors.Newf("%s: "+format, append([]interface{}{x.pos(p)}, args...)...)
}

// declarations returns the marked type declarations of the file in source order
func (x *extractor) declarations() ([]declaration, error) {
	var out []declaration
	var err error
	x.pkg.insp.Preorder([]ast.Node{(*ast.GenDecl)(nil)}, func(n ast.Node) {
		gd := n.(*ast.GenDecl)
		if err != nil || gd.Tok != token.TYPE || x.pkg.fset.File(gd.Pos()) != x.pkg.fset.File(x.file.Pos()) {
			return
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			dirs := typeDirectives(gd, ts)
			switch {
			case len(dirs) == 0:
				continue
			case len(dirs) > 1:
				err = x.errorf(ts.Pos(), "%s carries more than one mirror directive", ts.Name.Name)
				return
			case ts.Assign.IsValid():
				err = x.errorf(ts.Pos(), "type alias %s cannot be reflected", ts.Name.Name)
				return
			case ts.TypeParams != nil && len(ts.TypeParams.List) > 0:
				err = x.errorf(ts.Pos(), "generic type %s cannot be reflected", ts.Name.Name)
				return
			}
			out = append(out, declaration{gen: gd, spec: ts, directive: dirs[0]})
		}
	})
	return out, err
}

func (x *extractor) newType(d declaration) *metadata.ReflectedType {
	ns := x.pkg.project.ImportPath
	return &metadata.ReflectedType{
		ID:          metadata.NewTypeID(ns, d.spec.Name.Name),
		Namespace:   ns,
		Name:        d.spec.Name.Name,
		PackageName: x.file.Name.Name,
		HeaderID:    x.header.ID,
		IsDevOnly:   x.header.IsDevOnly || d.directive.HasArg("dev"),
		Description: typeDoc(d.gen, d.spec),
	}
}

// structType extracts a //mirror:type, //mirror:component or //mirror:resource declaration
func (x *extractor) structType(d declaration) error {
	st, ok := d.spec.Type.(*ast.StructType)
	if !ok {
		return x.errorf(d.spec.Pos(), "//mirror:%s requires a struct type, %s is not one", d.directive.Name, d.spec.Name.Name)
	}

	t := x.newType(d)
	t.IsAbstract = d.directive.HasArg("abstract")
	t.IsEntityComponent = d.directive.Name == solution.DirectiveComponent

	var resource *metadata.ResourceTypeInfo
	if d.directive.Name == solution.DirectiveResource {
		var err error
		if resource, err = x.resourceInfo(d, t); err != nil {
			return err
		}
	} else {
		for _, arg := range d.directive.Args {
			if arg != "abstract" && arg != "dev" {
				x.parser.warn(x.pos(d.spec.Pos()), "unknown option %q on //mirror:%s %s", arg, d.directive.Name, t.Name)
			}
		}
	}

	offsets := x.offsets(d.spec)
	embedsComponent := false
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			qn, ok := x.qualify(field.Type)
			if !ok {
				continue
			}
			if qn == metadata.QualifiedName(x.parser.runtimeImport, EntityComponentName) {
				embedsComponent = true
				continue
			}
			if !t.HasParent() && x.isReflected(qn) {
				t.ParentID = metadata.NewTypeID(metadata.SplitQualifiedName(qn))
				_, t.ParentField = metadata.SplitQualifiedName(qn)
			}
			continue
		}

		if field.Tag == nil {
			continue
		}
		raw, err := strconv.Unquote(field.Tag.Value)
		if err != nil {
			return x.errorf(field.Pos(), "malformed struct tag %s", field.Tag.Value)
		}
		value, ok := reflect.StructTag(raw).Lookup("mirror")
		if !ok {
			continue
		}
		opts, warnings := parseTagOptions(value)
		for _, w := range warnings {
			x.parser.warn(x.pos(field.Pos()), "%s.%s: %s", t.Name, field.Names[0].Name, w)
		}

		doc := cleanDoc(field.Doc.Text())
		if doc == "" {
			doc = cleanDoc(field.Comment.Text())
		}
		for _, name := range field.Names {
			prop, err := x.property(t, name, field.Type, opts, doc)
			if err != nil {
				return err
			}
			prop.Offset = offsets[name.Name]
			t.Properties = append(t.Properties, prop)
		}
	}

	if t.IsEntityComponent && !embedsComponent && !t.HasParent() {
		return x.errorf(d.spec.Pos(), "component %s must embed %s.%s or a reflected component",
			t.Name, guessPackageName(x.parser.runtimeImport), EntityComponentName)
	}

	if err := x.store.AddType(t); err != nil {
		return err
	}
	if resource != nil {
		x.store.AddResourceType(resource)
	}
	return nil
}

// resourceInfo reads "//mirror:resource CODE [name=Friendly] [parent=Type] [abstract] [dev]"
func (x *extractor) resourceInfo(d declaration, t *metadata.ReflectedType) (*metadata.ResourceTypeInfo, error) {
	args := d.directive.Args
	if len(args) == 0 || strings.Contains(args[0], "=") {
		return nil, x.errorf(d.spec.Pos(), "//mirror:resource on %s needs a resource code", t.Name)
	}
	if !resourceCodePattern.MatchString(args[0]) {
		return nil, x.errorf(d.spec.Pos(), "resource code %q of %s must be 1 to 4 upper-case letters or digits", args[0], t.Name)
	}
	r := &metadata.ResourceTypeInfo{
		TypeID:       t.ID,
		Code:         args[0],
		FriendlyName: t.Name,
		IsDevOnly:    t.IsDevOnly,
	}
	for _, arg := range args[1:] {
		key, value, hasValue := strings.Cut(arg, "=")
		switch {
		case key == "name" && hasValue && value != "":
			r.FriendlyName = value
		case key == "parent" && hasValue && value != "":
			qn, ok := x.qualifyName(value)
			if !ok {
				return nil, x.errorf(d.spec.Pos(), "cannot resolve resource parent %s of %s", value, t.Name)
			}
			r.ParentTypeID = metadata.NewTypeID(metadata.SplitQualifiedName(qn))
		case arg == "abstract", arg == "dev":
		default:
			x.parser.warn(x.pos(d.spec.Pos()), "unknown option %q on //mirror:resource %s", arg, t.Name)
		}
	}
	return r, nil
}

// property builds one reflected field
func (x *extractor) property(t *metadata.ReflectedType, name *ast.Ident, expr ast.Expr, opts tagOptions, doc string) (metadata.ReflectedProperty, error) {
	p := metadata.ReflectedProperty{
		ID:                        metadata.NewPropertyID(name.Name),
		Name:                      name.Name,
		IsDevOnly:                 opts.dev || t.IsDevOnly,
		IsToolsReadOnly:           opts.readonly,
		IsExposedForVisualization: opts.visualize,
		Description:               doc,
	}
	if opts.desc != "" {
		p.Description = opts.desc
	}

	if arr, ok := expr.(*ast.ArrayType); ok {
		switch arr.Len.(type) {
		case nil:
			p.ArrayKind = metadata.ArrayDynamic
		case *ast.Ellipsis:
			return p, x.errorf(name.Pos(), "%s.%s: [...] arrays are not supported", t.Name, name.Name)
		default:
			size, err := x.arrayLen(arr)
			if err != nil {
				return p, x.errorf(name.Pos(), "%s.%s: %v", t.Name, name.Name, err)
			}
			p.ArrayKind = metadata.ArrayFixed
			p.ArraySize = size
		}
		expr = arr.Elt
		if _, nested := expr.(*ast.ArrayType); nested {
			return p, x.errorf(name.Pos(), "%s.%s: nested arrays are not supported", t.Name, name.Name)
		}
	}

	if err := x.element(&p, expr); err != nil {
		return p, x.errorf(name.Pos(), "%s.%s: %v", t.Name, name.Name, err)
	}
	return p, nil
}

// element classifies the element type of a property
func (x *extractor) element(p *metadata.ReflectedProperty, expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.Ident:
		if obj, ok := types.Universe.Lookup(e.Name).(*types.TypeName); ok && !x.declaredLocally(e.Name) {
			if _, basic := obj.Type().(*types.Basic); !basic {
				return errors.Newf("type %s is not supported", e.Name)
			}
			p.Kind = metadata.KindCore
			p.TypeName = e.Name
			return nil
		}
		p.Kind = metadata.KindNamed
		p.TypeName = metadata.QualifiedName(x.pkg.project.ImportPath, e.Name)
		p.BasicUnderlying = x.basicUnderlying(e)
		return nil

	case *ast.SelectorExpr:
		qn, ok := x.qualify(e)
		if !ok {
			return errors.Newf("cannot resolve package of %s", types.ExprString(e))
		}
		if qn == metadata.QualifiedName(x.parser.runtimeImport, ResourcePtrName) {
			p.Kind = metadata.KindResource
			p.TypeName = qn
			return nil
		}
		p.Kind = metadata.KindNamed
		p.TypeName = qn
		p.BasicUnderlying = x.basicUnderlying(e)
		return nil

	case *ast.IndexExpr:
		base, ok := x.qualify(e.X)
		if !ok || base != metadata.QualifiedName(x.parser.runtimeImport, TypedResourcePtrName) {
			return errors.Newf("generic type %s is not supported", types.ExprString(e))
		}
		arg, ok := x.qualify(e.Index)
		if !ok {
			return errors.Newf("cannot resolve type argument of %s", types.ExprString(e))
		}
		p.Kind = metadata.KindResource
		p.TypeName = base
		p.TemplateArgTypeName = arg
		return nil

	default:
		return errors.Newf("type %s is not supported", types.ExprString(expr))
	}
}

// declaredLocally reports whether the package declares a type called name
func (x *extractor) declaredLocally(name string) bool {
	if x.pkg.types == nil {
		return false
	}
	_, ok := x.pkg.types.Scope().Lookup(name).(*types.TypeName)
	return ok
}

func (x *extractor) basicUnderlying(expr ast.Expr) bool {
	t := x.pkg.info.TypeOf(expr)
	if t == nil {
		return false
	}
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Kind() != types.Invalid
}

func (x *extractor) arrayLen(arr *ast.ArrayType) (int, error) {
	if tv, ok := x.pkg.info.Types[arr.Len]; ok && tv.Value != nil {
		if n, exact := constant.Int64Val(constant.ToInt(tv.Value)); exact && n >= 0 {
			return int(n), nil
		}
	}
	if lit, ok := arr.Len.(*ast.BasicLit); ok && lit.Kind == token.INT {
		if n, err := strconv.ParseInt(lit.Value, 0, 64); err == nil && n >= 0 {
			return int(n), nil
		}
	}
	return 0, errors.Newf("array length %s is not a constant", types.ExprString(arr.Len))
}

// qualify returns the qualified name of a type expression naming a declared type
func (x *extractor) qualify(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		if obj, ok := types.Universe.Lookup(e.Name).(*types.TypeName); ok && !x.declaredLocally(e.Name) {
			return obj.Name(), true
		}
		return metadata.QualifiedName(x.pkg.project.ImportPath, e.Name), true
	case *ast.SelectorExpr:
		pkgIdent, ok := e.X.(*ast.Ident)
		if !ok {
			return "", false
		}
		importPath, ok := x.pkg.resolveImport(x.file, pkgIdent)
		if !ok {
			return "", false
		}
		return metadata.QualifiedName(importPath, e.Sel.Name), true
	case *ast.ParenExpr:
		return x.qualify(e.X)
	}
	return "", false
}

// qualifyName resolves "Type" or "pkg.Type" written in a directive argument
func (x *extractor) qualifyName(name string) (string, bool) {
	alias, typeName, ok := strings.Cut(name, ".")
	if !ok {
		return metadata.QualifiedName(x.pkg.project.ImportPath, name), true
	}
	return x.qualify(&ast.SelectorExpr{X: ast.NewIdent(alias), Sel: ast.NewIdent(typeName)})
}

// isReflected reports whether qn names a reflected struct, in this run or a previous one
func (x *extractor) isReflected(qn string) bool {
	if x.marked[qn] {
		return true
	}
	t, ok := x.store.TypeByName(qn)
	return ok && !t.IsEnum
}

// offsets computes field offsets when the struct layout is fully known
func (x *extractor) offsets(spec *ast.TypeSpec) map[string]int64 {
	out := make(map[string]int64)
	obj, ok := x.pkg.info.Defs[spec.Name].(*types.TypeName)
	if !ok {
		return out
	}
	st, ok := obj.Type().Underlying().(*types.Struct)
	if !ok || !layoutKnown(st, make(map[types.Type]bool)) {
		return out
	}
	fields := make([]*types.Var, st.NumFields())
	for i := range fields {
		fields[i] = st.Field(i)
	}
	for i, off := range x.pkg.sizes.Offsetsof(fields) {
		out[fields[i].Name()] = off
	}
	return out
}

// layoutKnown reports whether every type contributing to t's size resolved
func layoutKnown(t types.Type, seen map[types.Type]bool) bool {
	if seen[t] {
		return true
	}
	seen[t] = true
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return u.Kind() != types.Invalid
	case *types.Array:
		return layoutKnown(u.Elem(), seen)
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if !layoutKnown(u.Field(i).Type(), seen) {
				return false
			}
		}
		return true
	default:
		// pointers, slices, maps, chans, funcs and interfaces have a fixed size
		return u != nil
	}
}

func cleanDoc(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func unquote(s string) string {
	if v, err := strconv.Unquote(s); err == nil {
		return v
	}
	return s
}
