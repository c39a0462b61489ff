package parser

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
	"github.com/teranos/mirror/solution"
)

const (
	testRuntime = "github.com/teranos/mirror/reflection"
	testNS      = "example.com/game/core"
)

const coreSolution = `
name = "game"

[[project]]
name = "core"
path = "core"
`

type fixture struct {
	t    *testing.T
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, root: t.TempDir()}
	f.write("go.mod", "module example.com/game\n\ngo 1.24\n")
	f.write("mirror.toml", coreSolution)
	f.write("core/module.go", "package core\n\n//mirror:module\n")
	return f
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	abs := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(f.t, os.WriteFile(abs, []byte(content), 0o644))
}

// parse runs discovery and parses every header of the fixture
func (f *fixture) parse() (*metadata.Store, *GoParser, error) {
	f.t.Helper()
	info, _, err := solution.Load(filepath.Join(f.root, "mirror.toml"))
	require.NoError(f.t, err)
	d, err := solution.Discover(info)
	require.NoError(f.t, err)

	store := metadata.NewStore()
	result, err := store.CheckHeaders(info.Root, d.Headers, false)
	require.NoError(f.t, err)

	p := New(info, testRuntime, nil)
	_, err = p.Parse(store, result.DirtyHeaders())
	return store, p, err
}

func (f *fixture) mustParse() (*metadata.Store, *GoParser) {
	f.t.Helper()
	store, p, err := f.parse()
	require.NoError(f.t, err)
	return store, p
}

func mustType(t *testing.T, s *metadata.Store, name string) *metadata.ReflectedType {
	t.Helper()
	typ, ok := s.TypeByName(metadata.QualifiedName(testNS, name))
	require.True(t, ok, "type %s not found", name)
	return typ
}

const transformSource = `package core

import "github.com/teranos/mirror/reflection"

// Transform places an entity in the world.
//
//mirror:type
type Transform struct {
	// Position in world units
	Position [3]float32 ` + "`mirror:\"visualize\"`" + `
	Tags     []string   ` + "`mirror:\"readonly,desc=Free-form labels, comma separated\"`" + `
	Debug    bool       ` + "`mirror:\"dev\"`" + `
	Mesh     reflection.ResourcePtr ` + "`mirror:\"\"`" + `
	Skin     reflection.TypedResourcePtr[Texture] ` + "`mirror:\"\"`" + `
	Tint     Color ` + "`mirror:\"\"`" + `
	cache    int
}

//mirror:type
type Mover struct {
	Transform
	Speed float32 ` + "`mirror:\"\"`" + `
}

//mirror:component
type Health struct {
	reflection.EntityComponent
	Points int32 ` + "`mirror:\"\"`" + `
}

//mirror:resource TEX name=Texture
type Texture struct {
	Width  uint32 ` + "`mirror:\"\"`" + `
	Height uint32 ` + "`mirror:\"\"`" + `
}
`

const colorSource = `package core

//mirror:enum
type Color uint8

const (
	// ColorRed is the default
	ColorRed Color = iota
	ColorDarkGreen // dark
	ColorBlue
	Colorless
)

const unrelated = 7
`

func TestParseStructs(t *testing.T) {
	f := newFixture(t)
	f.write("core/transform.go", transformSource)
	f.write("core/color.go", colorSource)

	store, p := f.mustParse()
	assert.Empty(t, p.Warnings())

	tr := mustType(t, store, "Transform")
	assert.Equal(t, "Transform places an entity in the world.", tr.Description)
	assert.Equal(t, "core", tr.PackageName)
	assert.False(t, tr.HasParent())
	require.Len(t, tr.Properties, 6)

	pos := tr.Properties[0]
	assert.Equal(t, "Position", pos.Name)
	assert.Equal(t, metadata.KindCore, pos.Kind)
	assert.Equal(t, "float32", pos.TypeName)
	assert.Equal(t, metadata.ArrayFixed, pos.ArrayKind)
	assert.Equal(t, 3, pos.ArraySize)
	assert.True(t, pos.IsExposedForVisualization)
	assert.Equal(t, "Position in world units", pos.Description)

	tags := tr.Properties[1]
	assert.Equal(t, metadata.ArrayDynamic, tags.ArrayKind)
	assert.True(t, tags.IsToolsReadOnly)
	assert.Equal(t, "Free-form labels, comma separated", tags.Description)

	assert.True(t, tr.Properties[2].IsDevOnly)
	assert.False(t, tr.Properties[0].IsDevOnly)

	mesh := tr.Properties[3]
	assert.Equal(t, metadata.KindResource, mesh.Kind)
	assert.Equal(t, testRuntime+".ResourcePtr", mesh.TypeName)

	skin := tr.Properties[4]
	assert.Equal(t, metadata.KindResource, skin.Kind)
	assert.Equal(t, testRuntime+".TypedResourcePtr", skin.TypeName)
	assert.Equal(t, testNS+".Texture", skin.TemplateArgTypeName)

	tint := tr.Properties[5]
	assert.Equal(t, metadata.KindNamed, tint.Kind)
	assert.Equal(t, testNS+".Color", tint.TypeName)
	assert.True(t, tint.BasicUnderlying)

	mover := mustType(t, store, "Mover")
	assert.Equal(t, tr.ID, mover.ParentID)
	assert.Equal(t, "Transform", mover.ParentField)
	require.Len(t, mover.Properties, 1)

	health := mustType(t, store, "Health")
	assert.True(t, health.IsEntityComponent)
	assert.False(t, health.HasParent())

	tex := mustType(t, store, "Texture")
	res, ok := store.ResourceType(tex.ID)
	require.True(t, ok)
	assert.Equal(t, "TEX", res.Code)
	assert.Equal(t, "Texture", res.FriendlyName)

	h, ok := store.Header(metadata.NewHeaderID("core/transform.go"))
	require.True(t, ok)
	assert.Equal(t, "core", h.PackageName)
	assert.Equal(t, []metadata.TypeID{tr.ID, mover.ID, health.ID, tex.ID}, h.TypeIDs)
}

func TestParseEnum(t *testing.T) {
	f := newFixture(t)
	f.write("core/color.go", colorSource)

	store, _ := f.mustParse()
	color := mustType(t, store, "Color")
	assert.True(t, color.IsEnum)
	assert.Equal(t, "uint8", color.UnderlyingKind)
	assert.Equal(t, []metadata.EnumConstant{
		{Identifier: "ColorRed", Label: "Red", Value: 0, Description: "ColorRed is the default"},
		{Identifier: "ColorDarkGreen", Label: "DarkGreen", Value: 1, Description: "dark"},
		{Identifier: "ColorBlue", Label: "Blue", Value: 2},
		{Identifier: "Colorless", Label: "Colorless", Value: 3},
	}, color.Constants)
}

func TestParseEnumWithoutConstantsWarns(t *testing.T) {
	f := newFixture(t)
	f.write("core/layer.go", "package core\n\n//mirror:enum\ntype Layer byte\n")

	store, p := f.mustParse()
	layer := mustType(t, store, "Layer")
	assert.Equal(t, "uint8", layer.UnderlyingKind)
	assert.Empty(t, layer.Constants)
	require.Len(t, p.Warnings(), 1)
	assert.Contains(t, p.Warnings()[0], "declares no constants")
}

func TestParseEnumIgnoresConstantsInOtherFiles(t *testing.T) {
	f := newFixture(t)
	f.write("core/layer.go", "package core\n\n//mirror:enum\ntype Layer byte\n\nconst LayerBase Layer = 0\n")
	f.write("core/extra.go", "package core\n\nconst LayerTop Layer = 1\n")

	store, p := f.mustParse()
	layer := mustType(t, store, "Layer")
	assert.Equal(t, []metadata.EnumConstant{
		{Identifier: "LayerBase", Label: "Base", Value: 0},
	}, layer.Constants)
	require.Len(t, p.Warnings(), 1)
	assert.Contains(t, p.Warnings()[0], "LayerTop")
	assert.Contains(t, p.Warnings()[0], "declared outside")
}

func TestParseDevToolsHeader(t *testing.T) {
	f := newFixture(t)
	f.write("core/debug.go", "//go:build devtools\n\npackage core\n\n//mirror:type\ntype Gizmo struct {\n\tSize float32 `mirror:\"\"`\n}\n")
	f.write("core/tracer.go", "package core\n\n//mirror:type dev\ntype Tracer struct {\n\tHits int `mirror:\"\"`\n}\n")

	store, _ := f.mustParse()

	gizmo := mustType(t, store, "Gizmo")
	assert.True(t, gizmo.IsDevOnly)
	assert.True(t, gizmo.Properties[0].IsDevOnly)
	h, _ := store.Header(gizmo.HeaderID)
	assert.True(t, h.IsDevOnly)

	tracer := mustType(t, store, "Tracer")
	assert.True(t, tracer.IsDevOnly)
	h, _ = store.Header(tracer.HeaderID)
	assert.False(t, h.IsDevOnly)
}

func TestParseParentFromAnotherHeader(t *testing.T) {
	f := newFixture(t)
	f.write("core/base.go", "package core\n\n//mirror:type abstract\ntype Base struct{}\n")
	f.write("core/derived.go", "package core\n\n//mirror:type\ntype Derived struct {\n\tBase\n}\n")

	store, _ := f.mustParse()
	base := mustType(t, store, "Base")
	assert.True(t, base.IsAbstract)
	assert.Equal(t, base.ID, mustType(t, store, "Derived").ParentID)
}

func TestParseOffsets(t *testing.T) {
	f := newFixture(t)
	f.write("core/pair.go", "package core\n\n//mirror:type\ntype Pair struct {\n\tA int32 `mirror:\"\"`\n\tB int32 `mirror:\"\"`\n}\n")

	store, _ := f.mustParse()
	pair := mustType(t, store, "Pair")
	assert.Equal(t, int64(0), pair.Properties[0].Offset)
	assert.Equal(t, int64(4), pair.Properties[1].Offset)
}

func TestParseWarnings(t *testing.T) {
	f := newFixture(t)
	f.write("core/thing.go", "package core\n\n//mirror:type shiny\ntype Thing struct {\n\tN int `mirror:\"bogus,desc=\"`\n}\n")

	_, p := f.mustParse()
	require.Len(t, p.Warnings(), 3)
	assert.Contains(t, p.Warnings()[0], `unknown option "shiny"`)
	assert.Contains(t, p.Warnings()[1], `unknown tag option "bogus"`)
	assert.Contains(t, p.Warnings()[2], "empty desc=")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "component without base",
			source: "package core\n\n//mirror:component\ntype Loose struct{}\n",
			want:   "must embed reflection.EntityComponent",
		},
		{
			name:   "enum on string",
			source: "package core\n\n//mirror:enum\ntype Mode string\n",
			want:   "integer underlying type",
		},
		{
			name:   "two directives",
			source: "package core\n\n//mirror:type\n//mirror:component\ntype Twice struct{}\n",
			want:   "more than one mirror directive",
		},
		{
			name:   "type on non-struct",
			source: "package core\n\n//mirror:type\ntype Speed float32\n",
			want:   "requires a struct type",
		},
		{
			name:   "generic",
			source: "package core\n\n//mirror:type\ntype Box[T any] struct{ V T }\n",
			want:   "generic type Box",
		},
		{
			name:   "bad resource code",
			source: "package core\n\n//mirror:resource mesh\ntype Mesh struct{}\n",
			want:   "upper-case letters or digits",
		},
		{
			name:   "resource without code",
			source: "package core\n\n//mirror:resource\ntype Mesh struct{}\n",
			want:   "needs a resource code",
		},
		{
			name:   "nested array",
			source: "package core\n\n//mirror:type\ntype Grid struct {\n\tCells [][]int `mirror:\"\"`\n}\n",
			want:   "nested arrays",
		},
		{
			name:   "map field",
			source: "package core\n\n//mirror:type\ntype Index struct {\n\tByName map[string]int `mirror:\"\"`\n}\n",
			want:   "is not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.write("core/broken.go", tt.source)

			_, _, err := f.parse()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrParser))
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "core/broken.go")
		})
	}
}

func TestParseTagOptions(t *testing.T) {
	tests := []struct {
		tag      string
		want     tagOptions
		warnings int
	}{
		{tag: "", want: tagOptions{}},
		{tag: "dev", want: tagOptions{dev: true}},
		{tag: "readonly, visualize", want: tagOptions{readonly: true, visualize: true}},
		{tag: "dev,desc=a, b, c", want: tagOptions{dev: true, desc: "a, b, c"}},
		{tag: "desc=", want: tagOptions{}, warnings: 1},
		{tag: "loud,dev", want: tagOptions{dev: true}, warnings: 1},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, warnings := parseTagOptions(tt.tag)
			assert.Equal(t, tt.want, got)
			assert.Len(t, warnings, tt.warnings)
		})
	}
}

func TestRequiresDevTools(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{header: "", want: false},
		{header: "//go:build devtools\n\n", want: true},
		{header: "//go:build devtools && linux\n\n", want: true},
		{header: "//go:build !devtools\n\n", want: false},
		{header: "//go:build devtools || windows\n\n", want: false},
		{header: "//go:build linux\n\n", want: false},
		{header: "// Package core.\n", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			f, err := parser.ParseFile(token.NewFileSet(), "x.go", tt.header+"package core\n", parser.ParseComments)
			require.NoError(t, err)
			assert.Equal(t, tt.want, requiresDevTools(f))
		})
	}
}

func TestEnumLabel(t *testing.T) {
	assert.Equal(t, "Red", enumLabel("Color", "ColorRed"))
	assert.Equal(t, "Colorless", enumLabel("Color", "Colorless"))
	assert.Equal(t, "Color", enumLabel("Color", "Color"))
	assert.Equal(t, "Big", enumLabel("Size", "Big"))
}

func TestGuessPackageName(t *testing.T) {
	tests := map[string]string{
		"github.com/teranos/mirror/reflection": "reflection",
		"gopkg.in/yaml.v3":                     "yaml",
		"github.com/cespare/xxhash/v2":         "xxhash",
		"github.com/mattn/go-sqlite3":          "sqlite3",
		"example.com/some-lib":                 "some_lib",
	}
	for path, want := range tests {
		assert.Equal(t, want, guessPackageName(path), path)
	}
}
