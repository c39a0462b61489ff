package generator

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
	mirrorparser "github.com/teranos/mirror/parser"
	"github.com/teranos/mirror/solution"
)

const (
	testRuntime = "github.com/teranos/mirror/reflection"
	testNS      = "example.com/game/core"
)

var testOptions = Options{
	RuntimeImport:   testRuntime,
	SolutionDir:     "mirrorgen",
	SolutionPackage: "mirrorgen",
}

const gameSolution = `
name = "game"

[[project]]
name = "editor"
path = "editor"
dependencies = ["core"]
tools_only = true

[[project]]
name = "core"
path = "core"
`

const sceneSource = `package core

import "github.com/teranos/mirror/reflection"

//mirror:enum
type Color uint8

const (
	ColorRed Color = iota
	ColorDarkGreen
	ColorBlue
)

//mirror:type
type Box struct {
	Min [3]float32 ` + "`mirror:\"\"`" + `
	Max [3]float32 ` + "`mirror:\"\"`" + `
}

//mirror:type
type Transform struct {
	Position [3]float32             ` + "`mirror:\"visualize\"`" + `
	Tags     []string               ` + "`mirror:\"readonly\"`" + `
	Meshes   []reflection.ResourcePtr ` + "`mirror:\"\"`" + `
	Bounds   Box                    ` + "`mirror:\"\"`" + `
	Tint     Color                  ` + "`mirror:\"\"`" + `
	Debug    bool                   ` + "`mirror:\"dev\"`" + `
}

//mirror:type
type Mover struct {
	Transform
	Speed float32 ` + "`mirror:\"\"`" + `
}

//mirror:type abstract
type Shape struct {
	Radius float32 ` + "`mirror:\"\"`" + `
}

//mirror:component
type Health struct {
	reflection.EntityComponent
	Points int32 ` + "`mirror:\"\"`" + `
}

//mirror:component
type Renderable struct {
	reflection.EntityComponent
	Mesh reflection.ResourcePtr ` + "`mirror:\"\"`" + `
}

//mirror:resource TEX name=Texture
type Texture struct {
	Width uint32 ` + "`mirror:\"\"`" + `
}

//mirror:resource DDS parent=Texture
type CompressedTexture struct {
	Texture
	Format uint32 ` + "`mirror:\"\"`" + `
}
`

const gizmoSource = `//go:build devtools

package core

import "github.com/teranos/mirror/reflection"

//mirror:component
type Gizmo struct {
	reflection.EntityComponent
	Size float32 ` + "`mirror:\"\"`" + `
}
`

const brushSource = `package editor

//mirror:type
type Brush struct {
	Radius float32 ` + "`mirror:\"\"`" + `
}
`

type fixture struct {
	t    *testing.T
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, root: t.TempDir()}
	f.write("go.mod", "module example.com/game\n\ngo 1.24\n")
	f.write("mirror.toml", gameSolution)
	f.write("core/module.go", "package core\n\n//mirror:module\n")
	f.write("core/scene.go", sceneSource)
	f.write("editor/module.go", "package editor\n\n//mirror:module\n")
	f.write("editor/brush.go", brushSource)
	return f
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	abs := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(f.t, os.WriteFile(abs, []byte(content), 0o644))
}

func (f *fixture) read(rel string) string {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(rel)))
	return err == nil
}

// load discovers, parses and resolves the fixture the way a build does
func (f *fixture) load() (*metadata.Store, *metadata.SolutionInfo, []*metadata.HeaderInfo) {
	f.t.Helper()
	info, _, err := solution.Load(filepath.Join(f.root, "mirror.toml"))
	require.NoError(f.t, err)
	d, err := solution.Discover(info)
	require.NoError(f.t, err)

	store := metadata.NewStore()
	for _, p := range info.Projects {
		store.AddProject(p)
	}
	require.NoError(f.t, store.RankProjects())

	result, err := store.CheckHeaders(info.Root, d.Headers, false)
	require.NoError(f.t, err)
	dirty := result.DirtyHeaders()
	_, err = mirrorparser.New(info, testRuntime, nil).Parse(store, dirty)
	require.NoError(f.t, err)

	for _, h := range store.Headers() {
		for _, typ := range store.TypesForHeader(h.ID) {
			for i := range typ.Properties {
				kind, err := store.ResolveKind(&typ.Properties[i])
				require.NoError(f.t, err)
				typ.Properties[i].Kind = kind
			}
		}
	}
	return store, info, dirty
}

func (f *fixture) generate() Stats {
	f.t.Helper()
	store, info, headers := f.load()
	out := NewOutput(f.root, false, nil)
	require.NoError(f.t, New(store, info, testOptions, out, nil).Generate(headers))
	return out.Stats()
}

// method returns the declaration of recv.name in src
func method(t *testing.T, src, recv, name string) *ast.FuncDecl {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "x.go", src, 0)
	require.NoError(t, err)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || fn.Name.Name != name {
			continue
		}
		star, ok := fn.Recv.List[0].Type.(*ast.StarExpr)
		if ok && star.X.(*ast.Ident).Name == recv {
			return fn
		}
	}
	t.Fatalf("method %s.%s not found", recv, name)
	return nil
}

// assertOrder checks that every snippet occurs in src, in the given order
func assertOrder(t *testing.T, src string, snippets ...string) {
	t.Helper()
	last := -1
	for _, s := range snippets {
		idx := strings.Index(src, s)
		require.GreaterOrEqual(t, idx, 0, "missing %q", s)
		assert.Greater(t, idx, last, "%q out of order", s)
		last = idx
	}
}

func TestGenerateWritesEveryArtifact(t *testing.T) {
	f := newFixture(t)
	f.write("core/gizmo.go", gizmoSource)
	stats := f.generate()

	want := []string{
		"core/gizmo_mirror.go",
		"core/scene_mirror.go",
		"editor/brush_mirror.go",
		"core/zz_mirror_module.go",
		"core/zz_mirror_module_devtools.go",
		"core/zz_mirror_components.go",
		"core/zz_mirror_components_devtools.go",
		"editor/zz_mirror_module.go",
		"editor/zz_mirror_module_devtools.go",
		"mirrorgen/mirror_solution.go",
		"mirrorgen/mirror_solution_devtools.go",
	}
	assert.ElementsMatch(t, want, stats.Written)
	assert.False(t, f.exists("editor/zz_mirror_components.go"))

	for _, rel := range want {
		src := f.read(rel)
		assert.True(t, strings.HasPrefix(src, Banner+"\n"), rel)
		_, err := parser.ParseFile(token.NewFileSet(), rel, src, parser.ParseComments)
		assert.NoError(t, err, rel)
	}

	assert.Contains(t, f.read("core/gizmo_mirror.go"), Banner+"\n"+DevToolsConstraint+"\n")
	assert.NotContains(t, f.read("core/scene_mirror.go"), "//go:build")
	assert.Contains(t, f.read("core/zz_mirror_module.go"), RuntimeConstraint)
	assert.Contains(t, f.read("core/zz_mirror_components_devtools.go"), "func (c *Gizmo) BeginResourceLoad(")
	assert.NotContains(t, f.read("core/zz_mirror_components.go"), "Gizmo")
}

func TestGenerateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	first := f.generate()
	require.NotEmpty(t, first.Written)
	before := f.read("core/scene_mirror.go")

	second := f.generate()
	assert.Empty(t, second.Written)
	assert.Equal(t, len(first.Written), second.Unchanged)
	assert.Equal(t, before, f.read("core/scene_mirror.go"))
}

func TestGenerateDryRunWritesNothing(t *testing.T) {
	f := newFixture(t)
	store, info, headers := f.load()
	out := NewOutput(f.root, true, nil)
	require.NoError(t, New(store, info, testOptions, out, nil).Generate(headers))

	assert.NotEmpty(t, out.Stats().Written)
	assert.False(t, f.exists("core/scene_mirror.go"))
	assert.False(t, f.exists("mirrorgen"))
}

func TestDescriptorContent(t *testing.T) {
	f := newFixture(t)
	f.generate()
	src := f.read("core/scene_mirror.go")

	assert.Contains(t, src, "typeID_Transform")
	assert.Contains(t, src, "propID_Transform_Position")
	assert.Contains(t, src, "type descriptor_Transform struct")
	assert.Contains(t, src, "func newTransformDescriptor(r *reflection.Registry) *descriptor_Transform")
	assert.Contains(t, src, "var defaults_Transform = sync.OnceValue(")
	assert.Contains(t, src, `"example.com/game/core.Transform"`)
	assert.Contains(t, src, "unsafe.Offsetof(Transform{}.Position)")
	assert.Contains(t, src, "if reflection.DevelopmentTools {")

	// Mover inherits from Transform through the registry
	assert.Contains(t, src, "parent, _ := r.Descriptor(")
	assert.Contains(t, src, "d.info.Parent.Equal(&va.Transform, &vb.Transform)")

	// Abstract types have no default instance and refuse construction
	assert.NotContains(t, src, "defaults_Shape")
	assert.Contains(t, src, "reflection.ErrAbstractType")

	// Nested structs resolve their descriptor lazily
	assert.Contains(t, src, "d.registry.MustDescriptor(")

	assert.Contains(t, src, "func newColorEnumInfo() *reflection.EnumInfo")
	assert.Contains(t, src, "reflection.KindUint8")
	assert.Contains(t, src, "func newTextureResourceTypeInfo() *reflection.ResourceTypeInfo")
	assert.Contains(t, src, `"DDS"`)
}

func TestArrayMethodsWithoutArraysOnlyPanic(t *testing.T) {
	f := newFixture(t)
	f.generate()
	src := f.read("core/scene_mirror.go")

	for _, name := range []string{"ArrayElement", "ArrayLen", "ArrayClear", "ArrayAppend", "ArrayInsert", "ArrayMove", "ArrayRemove"} {
		fn := method(t, src, "descriptor_Health", name)
		require.Len(t, fn.Body.List, 1, name)
		call := fn.Body.List[0].(*ast.ExprStmt).X.(*ast.CallExpr)
		assert.Equal(t, "panic", call.Fun.(*ast.Ident).Name, name)
	}
}

func TestArrayMethodsDispatchDeclaredArrays(t *testing.T) {
	f := newFixture(t)
	f.generate()
	src := f.read("core/scene_mirror.go")

	lenFn := method(t, src, "descriptor_Transform", "ArrayLen")
	sw := lenFn.Body.List[1].(*ast.SwitchStmt)
	assert.Len(t, sw.Body.List, 3) // Position, Tags, Meshes

	// Mutations apply to slices only
	clearFn := method(t, src, "descriptor_Transform", "ArrayClear")
	sw = clearFn.Body.List[1].(*ast.SwitchStmt)
	assert.Len(t, sw.Body.List, 2)

	assert.Contains(t, src, "slices.Insert(")
	assert.Contains(t, src, "reflection.MoveElement(")
	assert.Contains(t, src, "slices.Delete(")
}

func TestResourceMethods(t *testing.T) {
	f := newFixture(t)
	f.generate()
	src := f.read("core/scene_mirror.go")

	assert.Contains(t, src, "for i := range v.Meshes {")
	assert.Contains(t, src, "if v.Meshes[i].IsSet() {")
	assert.Contains(t, src, "rs.LoadResource(v.Meshes[i].Ptr(), requester)")
	assert.Contains(t, src, "status := reflection.StatusLoaded")

	// Mover reaches the resources of Transform through its parent
	load := method(t, src, "descriptor_Mover", "LoadResources")
	assert.NotEmpty(t, load.Body.List)

	// Box references no resources
	assert.Contains(t, src, "type descriptor_Box struct {\n\treflection.NoResources")

	components := f.read("core/zz_mirror_components.go")
	assert.Contains(t, components, "c.SetLoadingStatus(reflection.StatusLoaded)")
	assert.Contains(t, components, "r.MustDescriptor(typeID_Renderable).LoadResources(c, rs, c.Requester())")
}

func TestModuleRegistrationOrder(t *testing.T) {
	f := newFixture(t)
	f.write("core/gizmo.go", gizmoSource)
	f.generate()

	src := f.read("core/zz_mirror_module.go")
	assertOrder(t, src,
		"r.RegisterEnum(newColorEnumInfo())",
		"r.RegisterType(newTransformDescriptor(r))",
		"r.RegisterType(newMoverDescriptor(r))",
		"r.RegisterType(newTextureDescriptor(r))",
		"r.RegisterResourceType(newTextureResourceTypeInfo())",
		"r.RegisterType(newCompressedTextureDescriptor(r))",
		"func UnregisterReflectedTypes",
		"r.UnregisterResourceType(typeID_CompressedTexture)",
		"r.UnregisterType(typeID_CompressedTexture)",
		"r.UnregisterType(typeID_Mover)",
		"r.UnregisterType(typeID_Transform)",
		"r.UnregisterEnum(typeID_Color)",
	)
	assert.NotContains(t, src, "Gizmo")
	assert.Contains(t, f.read("core/zz_mirror_module_devtools.go"), "r.RegisterType(newGizmoDescriptor(r))")
}

func TestSolutionRegistersByRank(t *testing.T) {
	f := newFixture(t)
	f.generate()

	runtime := f.read("mirrorgen/mirror_solution.go")
	assert.Contains(t, runtime, "core.RegisterReflectedTypes(r)")
	assert.NotContains(t, runtime, "editor")

	devtools := f.read("mirrorgen/mirror_solution_devtools.go")
	assertOrder(t, devtools,
		"core.RegisterReflectedTypes(r)",
		"editor.RegisterReflectedTypes(r)",
		"return registerResourceTypes(r)",
		"editor.UnregisterReflectedTypes(r)",
		"core.UnregisterReflectedTypes(r)",
	)
	assert.Contains(t, devtools, `fmt.Errorf("register project core: %w", err)`)
	assert.Contains(t, devtools, "// CompressedTexture -> Texture")
	assert.Contains(t, devtools, "r.LinkResourceType(")
}

func TestUnresolvableResourceParent(t *testing.T) {
	root := t.TempDir()
	core := &metadata.ProjectInfo{
		ID:             metadata.NewProjectID("core"),
		Name:           "core",
		Path:           "core",
		ImportPath:     testNS,
		PackageName:    "core",
		ModuleHeaderID: metadata.NewHeaderID("core/module.go"),
		DeclaresModule: true,
	}
	info := &metadata.SolutionInfo{Root: root, ModuleRoot: root, ModulePath: "example.com/game", Projects: []*metadata.ProjectInfo{core}}

	store := metadata.NewStore()
	store.AddProject(core)
	h := &metadata.HeaderInfo{ID: metadata.NewHeaderID("core/mesh.go"), Path: "core/mesh.go", ProjectID: core.ID, PackageName: "core"}
	store.AddHeader(h)
	mesh := &metadata.ReflectedType{ID: metadata.NewTypeID(testNS, "Mesh"), Namespace: testNS, Name: "Mesh", PackageName: "core", HeaderID: h.ID}
	require.NoError(t, store.AddType(mesh))
	store.AddResourceType(&metadata.ResourceTypeInfo{
		TypeID:       mesh.ID,
		Code:         "MESH",
		FriendlyName: "Mesh",
		ParentTypeID: metadata.NewTypeID(testNS, "Ghost"),
	})

	g := New(store, info, testOptions, NewOutput(root, false, nil), nil)
	err := g.GenerateSolution()
	require.Error(t, err)
	assert.True(t, errors.IsAssertionFailure(err))
	assert.Contains(t, err.Error(), "unresolvable parent")
}

func TestRemoveHeaderArtifacts(t *testing.T) {
	f := newFixture(t)
	f.generate()
	require.True(t, f.exists("core/scene_mirror.go"))

	store, info, _ := f.load()
	out := NewOutput(f.root, false, nil)
	h, ok := store.Header(metadata.NewHeaderID("core/scene.go"))
	require.True(t, ok)
	require.NoError(t, New(store, info, testOptions, out, nil).RemoveHeaderArtifacts([]*metadata.HeaderInfo{h}))

	assert.Equal(t, []string{"core/scene_mirror.go"}, out.Stats().Removed)
	assert.False(t, f.exists("core/scene_mirror.go"))
}

func TestCleanRemovesOnlyGeneratedFiles(t *testing.T) {
	f := newFixture(t)
	f.generate()
	f.write("core/zz_mirror_notes.go", "package core\n\n// written by hand\n")

	store, info, _ := f.load()
	out := NewOutput(f.root, false, nil)
	require.NoError(t, New(store, info, testOptions, out, nil).Clean())

	assert.False(t, f.exists("core/scene_mirror.go"))
	assert.False(t, f.exists("core/zz_mirror_module.go"))
	assert.False(t, f.exists("mirrorgen/mirror_solution.go"))
	assert.True(t, f.exists("core/zz_mirror_notes.go"))
	assert.True(t, f.exists("core/scene.go"))
	assert.True(t, f.exists("core/module.go"))
}

func TestOutputComparesLines(t *testing.T) {
	root := t.TempDir()
	out := NewOutput(root, false, nil)

	require.NoError(t, out.Write("pkg/a_mirror.go", []byte(Banner+"\npackage pkg\n")))
	require.NoError(t, out.Write("pkg/a_mirror.go", []byte(Banner+"\npackage pkg\n")))
	require.NoError(t, out.Write("pkg/a_mirror.go", []byte(Banner+"\npackage pkg\n\nvar x int\n")))

	stats := out.Stats()
	assert.Equal(t, []string{"pkg/a_mirror.go", "pkg/a_mirror.go"}, stats.Written)
	assert.Equal(t, 1, stats.Unchanged)

	generated, err := IsGenerated(filepath.Join(root, "pkg", "a_mirror.go"))
	require.NoError(t, err)
	assert.True(t, generated)
}

func TestIsGeneratedSkipsBuildConstraint(t *testing.T) {
	dir := t.TempDir()
	tagged := filepath.Join(dir, "tagged.go")
	require.NoError(t, os.WriteFile(tagged, []byte(DevToolsConstraint+"\n\n"+Banner+"\npackage x\n"), 0o644))
	plain := filepath.Join(dir, "plain.go")
	require.NoError(t, os.WriteFile(plain, []byte("package x\n"), 0o644))

	ok, err := IsGenerated(tagged)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsGenerated(plain)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAlphabeticalRanks(t *testing.T) {
	constants := []metadata.EnumConstant{
		{Label: "Red"},
		{Label: "DarkGreen"},
		{Label: "Blue"},
		{Label: "Colorless"},
	}
	assert.Equal(t, []int{3, 2, 0, 1}, alphabeticalRanks(constants))
	assert.Equal(t, []int{0, 1}, alphabeticalRanks([]metadata.EnumConstant{{Label: "Same"}, {Label: "Same"}}))
	assert.Empty(t, alphabeticalRanks(nil))
}

func TestGeneratedNamesDoNotCollide(t *testing.T) {
	names := map[string]string{}
	add := func(kind, name string) {
		if prev, ok := names[name]; ok {
			t.Errorf("%s and %s both render as %s", prev, kind, name)
		}
		names[name] = kind
	}
	types := []struct{ typ, prop string }{
		{"Item", "Type"},
		{"Item", "ID"},
		{"A", "BC"},
		{"AB", "C"},
		{"A_B", "C"},
		{"A", "B_C"},
		{"A_", "C"},
		{"A", "_C"},
	}
	seen := map[string]bool{}
	for _, tt := range types {
		rt := &metadata.ReflectedType{Name: tt.typ}
		if !seen[tt.typ] {
			seen[tt.typ] = true
			add("type "+tt.typ, typeIDName(rt))
			add("descriptor "+tt.typ, descriptorName(rt))
			add("defaults "+tt.typ, defaultsName(rt))
		}
		add("property "+tt.typ+"."+tt.prop, propertyIDName(rt, &metadata.ReflectedProperty{Name: tt.prop}))
	}
	assert.Equal(t, "propID_Item_Type", propertyIDName(&metadata.ReflectedType{Name: "Item"}, &metadata.ReflectedProperty{Name: "Type"}))
	assert.Equal(t, "typeID_A_0B", typeIDName(&metadata.ReflectedType{Name: "A_B"}))
}

func TestDevComponentInRuntimeHeader(t *testing.T) {
	f := newFixture(t)
	f.write("core/tracer.go", "package core\n\nimport \"github.com/teranos/mirror/reflection\"\n\n"+
		"//mirror:component dev\ntype Tracer struct {\n\treflection.EntityComponent\n\tHits int32 `mirror:\"\"`\n}\n")
	f.generate()

	assert.NotContains(t, f.read("core/tracer_mirror.go"), DevToolsConstraint, "the header itself is a runtime header")
	assert.NotContains(t, f.read("core/zz_mirror_components.go"), "Tracer")
	assert.NotContains(t, f.read("core/zz_mirror_module.go"), "Tracer")
	assert.Contains(t, f.read("core/zz_mirror_components_devtools.go"), "func (c *Tracer) BeginResourceLoad(")
}
