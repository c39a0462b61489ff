package parser

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/tools/go/ast/inspector"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
	"github.com/teranos/mirror/solution"
)

// pkgSource is the parsed and type-checked package of one project
type pkgSource struct {
	project *metadata.ProjectInfo
	fset    *token.FileSet
	files   []*ast.File
	paths   map[*ast.File]string // slash path relative to the solution root
	insp    *inspector.Inspector

	types *types.Package
	info  *types.Info
	sizes types.Sizes
}

// loadPackage parses every header candidate of the project directory
func loadPackage(fset *token.FileSet, root string, proj *metadata.ProjectInfo) (*pkgSource, error) {
	scanned, err := solution.ScanProject(root, proj.Path)
	if err != nil {
		return nil, err
	}
	pkg := &pkgSource{
		project: proj,
		fset:    fset,
		paths:   make(map[*ast.File]string),
		sizes:   types.SizesFor("gc", runtime.GOARCH),
	}
	for _, s := range scanned {
		abs := filepath.Join(root, filepath.FromSlash(s.Path))
		f, err := parser.ParseFile(fset, abs, nil, parser.ParseComments)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "syntax error in %s", s.Path), errors.ErrParser)
		}
		pkg.files = append(pkg.files, f)
		pkg.paths[f] = s.Path
	}
	pkg.insp = inspector.New(pkg.files)
	return pkg, nil
}

// file returns the parsed file at the slash path rel
func (p *pkgSource) file(rel string) *ast.File {
	for _, f := range p.files {
		if p.paths[f] == rel {
			return f
		}
	}
	return nil
}

// check type-checks the package, keeping whatever information survives the
// errors caused by unresolved imports.
func (p *pkgSource) check(imp types.Importer) {
	p.info = &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
	}
	conf := types.Config{
		Importer:    imp,
		Sizes:       p.sizes,
		FakeImportC: true,
		Error:       func(error) {},
	}
	p.types, _ = conf.Check(p.project.ImportPath, p.fset, p.files, p.info)
}

// markedTypes returns the qualified names of every declaration carrying a type
// marker in the package
func (p *pkgSource) markedTypes() map[string]bool {
	out := make(map[string]bool)
	p.insp.Preorder([]ast.Node{(*ast.GenDecl)(nil)}, func(n ast.Node) {
		gd := n.(*ast.GenDecl)
		if gd.Tok != token.TYPE {
			return
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			if dirs := typeDirectives(gd, ts); len(dirs) > 0 && dirs[0].Name != solution.DirectiveEnum {
				out[metadata.QualifiedName(p.project.ImportPath, ts.Name.Name)] = true
			}
		}
	})
	return out
}

// constDocs maps constant names to their doc or line comment
func (p *pkgSource) constDocs() map[string]string {
	out := make(map[string]string)
	p.insp.Preorder([]ast.Node{(*ast.ValueSpec)(nil)}, func(n ast.Node) {
		vs := n.(*ast.ValueSpec)
		text := vs.Doc.Text()
		if text == "" {
			text = vs.Comment.Text()
		}
		for _, name := range vs.Names {
			out[name.Name] = cleanDoc(text)
		}
	})
	return out
}

// enumConstants returns the constants of type named in declaration order
func (p *pkgSource) enumConstants(named types.Type) []*types.Const {
	if p.types == nil {
		return nil
	}
	var out []*types.Const
	scope := p.types.Scope()
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if ok && types.Identical(c.Type(), named) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos() < out[j].Pos() })
	return out
}

// resolveImport returns the import path an identifier refers to in file
func (p *pkgSource) resolveImport(file *ast.File, ident *ast.Ident) (string, bool) {
	if obj, ok := p.info.Uses[ident].(*types.PkgName); ok {
		return obj.Imported().Path(), true
	}
	for _, imp := range file.Imports {
		importPath := unquote(imp.Path.Value)
		name := guessPackageName(importPath)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == ident.Name {
			return importPath, true
		}
	}
	return "", false
}

// typeDirectives returns the mirror directives in a type declaration's doc comment
func typeDirectives(gd *ast.GenDecl, ts *ast.TypeSpec) []solution.Directive {
	doc := ts.Doc
	if doc == nil && len(gd.Specs) == 1 {
		doc = gd.Doc
	}
	if doc == nil {
		return nil
	}
	var out []solution.Directive
	for _, c := range doc.List {
		if d, ok := solution.ParseDirective(c.Text); ok && d.IsTypeMarker() {
			out = append(out, d)
		}
	}
	return out
}

func typeDoc(gd *ast.GenDecl, ts *ast.TypeSpec) string {
	if ts.Doc != nil {
		return cleanDoc(ts.Doc.Text())
	}
	if len(gd.Specs) == 1 {
		return cleanDoc(gd.Doc.Text())
	}
	return ""
}
