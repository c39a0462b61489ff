package generator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
)

const bagSource = `package core

import "github.com/teranos/mirror/reflection"

//mirror:type
type Part struct {
	Name string ` + "`mirror:\"\"`" + `
	Size int32  ` + "`mirror:\"\"`" + `
}

//mirror:type
type Bag struct {
	Tags  []string                 ` + "`mirror:\"\"`" + `
	Slots [3]int32                 ` + "`mirror:\"\"`" + `
	Parts []Part                   ` + "`mirror:\"\"`" + `
	Icons []reflection.ResourcePtr ` + "`mirror:\"\"`" + `
	Main  Part                     ` + "`mirror:\"\"`" + `
}

func (b *Bag) SetDefaults() {
	b.Tags = []string{"new"}
	b.Slots = [3]int32{1, 2, 3}
}
`

// Property and type names whose naive concatenation would clash
const namesSource = `package core

//mirror:type
type Item struct {
	Type int32 ` + "`mirror:\"\"`" + `
	ID   int32 ` + "`mirror:\"\"`" + `
}

//mirror:type
type A struct {
	BC int32 ` + "`mirror:\"\"`" + `
}

//mirror:type
type AB struct {
	C int32 ` + "`mirror:\"\"`" + `
}
`

const tracerSource = `package core

import "github.com/teranos/mirror/reflection"

//mirror:component dev
type Tracer struct {
	reflection.EntityComponent
	Hits int32 ` + "`mirror:\"\"`" + `
}
`

// bagBehaviourTest runs inside the generated package against the generated descriptors
const bagBehaviourTest = `package core

import (
	"strings"
	"testing"

	"github.com/teranos/mirror/reflection"
)

type countingSystem struct{ loaded []reflection.ResourcePtr }

func (s *countingSystem) LoadResource(p reflection.ResourcePtr, _ reflection.Requester) {
	s.loaded = append(s.loaded, p)
}
func (s *countingSystem) UnloadResource(reflection.ResourcePtr, reflection.Requester) {}
func (s *countingSystem) LoadingStatus(reflection.ResourcePtr) reflection.LoadingStatus {
	return reflection.StatusLoaded
}
func (s *countingSystem) UnloadingStatus(reflection.ResourcePtr) reflection.LoadingStatus {
	return reflection.StatusUnloaded
}

func bagDescriptor(t *testing.T) reflection.TypeDescriptor {
	t.Helper()
	r := reflection.NewRegistry()
	if err := RegisterReflectedTypes(r); err != nil {
		t.Fatal(err)
	}
	return r.MustDescriptor(typeID_Bag)
}

func TestNewAppliesDefaults(t *testing.T) {
	b := bagDescriptor(t).New().(*Bag)
	if len(b.Tags) != 1 || b.Tags[0] != "new" || b.Slots != [3]int32{1, 2, 3} {
		t.Fatalf("defaults not applied: %+v", b)
	}
}

func TestEqual(t *testing.T) {
	d := bagDescriptor(t)
	a := &Bag{Tags: []string{"x"}, Parts: []Part{{Name: "p"}}, Main: Part{Size: 2}}
	b := &Bag{Tags: []string{"x"}, Parts: []Part{{Name: "p"}}, Main: Part{Size: 2}}
	if !d.Equal(a, b) {
		t.Fatal("equal bags compare unequal")
	}
	b.Main.Size = 3
	if d.Equal(a, b) {
		t.Fatal("nested struct difference ignored")
	}
	b.Main.Size = 2
	b.Parts = append(b.Parts, Part{})
	if d.Equal(a, b) {
		t.Fatal("dynamic arrays of different length compare equal")
	}
}

func TestPropertyEqual(t *testing.T) {
	d := bagDescriptor(t)
	a := &Bag{Tags: []string{"x", "y"}, Parts: []Part{{Name: "p"}, {Name: "q"}}}
	empty := &Bag{}

	if d.PropertyEqual(a, empty, propID_Bag_Tags, -1) {
		t.Fatal("whole arrays of different length compare equal")
	}
	if d.PropertyEqual(a, empty, propID_Bag_Tags, 1) {
		t.Fatal("missing element compares equal")
	}
	if d.PropertyEqual(a, empty, propID_Bag_Parts, 1) {
		t.Fatal("missing nested element compares equal")
	}
	other := &Bag{Tags: []string{"z", "y"}, Parts: []Part{{Name: "p"}}}
	if !d.PropertyEqual(a, other, propID_Bag_Tags, 1) {
		t.Fatal("equal elements compare unequal")
	}
	if d.PropertyEqual(a, other, propID_Bag_Tags, 0) {
		t.Fatal("different elements compare equal")
	}
	if !d.PropertyEqual(a, other, propID_Bag_Parts, 0) {
		t.Fatal("equal nested elements compare unequal")
	}
	if !d.PropertyEqual(a, other, propID_Bag_Slots, 2) {
		t.Fatal("equal fixed elements compare unequal")
	}
}

func TestResetProperty(t *testing.T) {
	d := bagDescriptor(t)
	b := &Bag{Tags: []string{"a", "b"}, Slots: [3]int32{9, 9, 9}}
	d.ResetProperty(b, propID_Bag_Slots)
	d.ResetProperty(b, propID_Bag_Tags)
	if b.Slots != [3]int32{1, 2, 3} {
		t.Fatalf("fixed array not reset: %v", b.Slots)
	}
	if len(b.Tags) != 1 || b.Tags[0] != "new" {
		t.Fatalf("dynamic array not reset: %v", b.Tags)
	}
	b.Tags[0] = "changed"
	if defaults_Bag().Tags[0] != "new" {
		t.Fatal("reset shares the default slice")
	}
}

func TestArrayMutations(t *testing.T) {
	d := bagDescriptor(t)
	b := &Bag{}

	*d.ArrayAppend(b, propID_Bag_Tags).(*string) = "a"
	*d.ArrayAppend(b, propID_Bag_Tags).(*string) = "c"
	*d.ArrayInsert(b, propID_Bag_Tags, 1).(*string) = "b"
	if got := strings.Join(b.Tags, ","); got != "a,b,c" {
		t.Fatalf("after append and insert: %s", got)
	}
	if n := d.ArrayLen(b, propID_Bag_Tags); n != 3 {
		t.Fatalf("ArrayLen = %d", n)
	}

	d.ArrayMove(b, propID_Bag_Tags, 0, 2)
	if got := strings.Join(b.Tags, ","); got != "b,c,a" {
		t.Fatalf("after move: %s", got)
	}
	d.ArrayRemove(b, propID_Bag_Tags, 1)
	if got := strings.Join(b.Tags, ","); got != "b,a" {
		t.Fatalf("after remove: %s", got)
	}
	d.ArrayClear(b, propID_Bag_Tags)
	if len(b.Tags) != 0 {
		t.Fatalf("after clear: %v", b.Tags)
	}

	part := d.ArrayAppend(b, propID_Bag_Parts).(*Part)
	part.Name = "wheel"
	if b.Parts[0].Name != "wheel" {
		t.Fatal("appended element is not addressable in place")
	}
	if d.ArrayLen(b, propID_Bag_Slots) != 3 {
		t.Fatal("fixed array length")
	}
}

func TestLoadResourcesSkipsUnsetPointers(t *testing.T) {
	d := bagDescriptor(t)
	b := &Bag{Icons: []reflection.ResourcePtr{
		reflection.NewResourcePtr(7, 0),
		{},
		reflection.NewResourcePtr(9, 0),
	}}
	rs := &countingSystem{}
	d.LoadResources(b, rs, 1)
	if len(rs.loaded) != 2 || rs.loaded[0].ID != 7 || rs.loaded[1].ID != 9 {
		t.Fatalf("loaded %v", rs.loaded)
	}
	if refs := d.ReferencedResources(b, nil); len(refs) != 2 {
		t.Fatalf("referenced %v", refs)
	}
}
`

// compiledFixture is the generator fixture turned into a module that builds
// against this repository's reflection runtime
func compiledFixture(t *testing.T) *fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("compiles generated code")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}
	repo, err := filepath.Abs("..")
	require.NoError(t, err)

	f := newFixture(t)
	f.write("core/gizmo.go", gizmoSource)
	f.write("core/tracer.go", tracerSource)
	f.write("core/names.go", namesSource)
	f.write("core/bag.go", bagSource)
	f.generate()

	f.write("go.mod", "module example.com/game\n\ngo 1.24.6\n\n"+
		"require github.com/teranos/mirror v0.0.0-00010101000000-000000000000\n\n"+
		"replace github.com/teranos/mirror => "+filepath.ToSlash(repo)+"\n")
	if sum, err := os.ReadFile(filepath.Join(repo, "go.sum")); err == nil {
		f.write("go.sum", string(sum))
	}
	return f
}

func fixtureEnv() []string {
	return append(os.Environ(), "GOFLAGS=-mod=mod", "GOWORK=off")
}

func TestGeneratedCodeTypeChecks(t *testing.T) {
	f := compiledFixture(t)

	for _, tags := range []string{"", "devtools"} {
		t.Run("tags="+tags, func(t *testing.T) {
			cfg := &packages.Config{
				Mode:       packages.NeedName | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
				Dir:        f.root,
				Env:        fixtureEnv(),
				BuildFlags: []string{"-tags=" + tags},
			}
			pkgs, err := packages.Load(cfg, "./...")
			require.NoError(t, err)
			require.NotEmpty(t, pkgs)

			var problems []string
			packages.Visit(pkgs, nil, func(p *packages.Package) {
				for _, e := range p.Errors {
					problems = append(problems, e.Error())
				}
			})
			require.Empty(t, problems, "generated code does not type-check")
		})
	}
}

func TestGeneratedCodeBehaviour(t *testing.T) {
	f := compiledFixture(t)
	f.write("core/bag_behaviour_test.go", bagBehaviourTest)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	for _, tags := range []string{"", "devtools"} {
		cmd := exec.CommandContext(ctx, "go", "test", "-count=1", "-tags="+tags, "./core/")
		cmd.Dir = f.root
		cmd.Env = fixtureEnv()
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "tags=%q\n%s", tags, out)
	}
}
