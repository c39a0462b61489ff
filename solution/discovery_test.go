package solution

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
)

func loadFixture(t *testing.T, root string) *metadata.SolutionInfo {
	t.Helper()
	info, _, err := Load(filepath.Join(root, "mirror.toml"))
	require.NoError(t, err)
	return info
}

func TestDiscover(t *testing.T) {
	root := newSolution(t, twoProjects)
	writeFile(t, root, "core/module.go", "//mirror:module\npackage core\n")
	writeFile(t, root, "core/shapes.go", "package core\n\n//mirror:type\ntype Shape struct{}\n")
	writeFile(t, root, "core/color.go", "package core\n\n//mirror:enum\ntype Color uint8\n")
	writeFile(t, root, "core/util.go", "package core\n\nfunc helper() {}\n")
	writeFile(t, root, "core/shapes_test.go", "package core\n\n//mirror:type\ntype fake struct{}\n")
	writeFile(t, root, "core/shapes_mirror.go", "package core\n\n//mirror:type\n")
	writeFile(t, root, "tools/editor/module.go", "package editor\n\n//mirror:module\n")

	info := loadFixture(t, root)
	d, err := Discover(info)
	require.NoError(t, err)

	var paths []string
	for _, h := range d.Headers {
		paths = append(paths, h.Path)
	}
	assert.Equal(t, []string{"core/color.go", "core/shapes.go"}, paths)
	assert.Equal(t, []string{"core/module.go", "core/util.go", "tools/editor/module.go"}, d.Ignored)
	assert.Empty(t, d.Warnings)

	assert.Equal(t, metadata.NewHeaderID("core/module.go"), info.Projects[0].ModuleHeaderID)
	assert.Equal(t, "core", info.Projects[0].PackageName)
	assert.Len(t, info.Projects, 2)
}

func TestDiscoverMarkerAndModuleInOneFile(t *testing.T) {
	root := newSolution(t, twoProjects)
	writeFile(t, root, "core/module.go", "//mirror:module\npackage core\n\n//mirror:type\ntype Shape struct{}\n")
	writeFile(t, root, "tools/editor/module.go", "//mirror:module\npackage editor\n")

	_, err := Discover(loadFixture(t, root))
	require.Error(t, err)
	assert.True(t, errors.IsStructural(err))
	assert.Contains(t, err.Error(), "core/module.go")
}

func TestDiscoverDuplicateModule(t *testing.T) {
	root := newSolution(t, twoProjects)
	writeFile(t, root, "core/a.go", "//mirror:module\npackage core\n")
	writeFile(t, root, "core/b.go", "//mirror:module\npackage core\n")
	writeFile(t, root, "tools/editor/module.go", "//mirror:module\npackage editor\n")

	_, err := Discover(loadFixture(t, root))
	require.Error(t, err)
	assert.True(t, errors.IsStructural(err))
	assert.Contains(t, err.Error(), "duplicate //mirror:module")
}

func TestDiscoverExcludesProjectWithoutModule(t *testing.T) {
	root := newSolution(t, twoProjects)
	writeFile(t, root, "core/module.go", "//mirror:module\npackage core\n")
	writeFile(t, root, "tools/editor/panel.go", "package editor\n\n//mirror:type\ntype Panel struct{}\n")

	info := loadFixture(t, root)
	d, err := Discover(info)
	require.NoError(t, err)

	require.Len(t, info.Projects, 1)
	assert.Equal(t, "core", info.Projects[0].Name)
	assert.Contains(t, info.ExcludedPaths, "tools/editor")
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "editor")
	assert.Empty(t, d.Headers)
}

func TestDiscoverModulelessProject(t *testing.T) {
	root := newSolution(t, "[[project]]\nname = \"util\"\nmodule = false\n")
	writeFile(t, root, "util/types.go", "package util\n\n//mirror:type\ntype Pair struct{}\n")

	info := loadFixture(t, root)
	d, err := Discover(info)
	require.NoError(t, err)
	assert.Len(t, info.Projects, 1, "kept for dependency ranking")
	assert.False(t, info.Projects[0].HasModule())
	assert.Empty(t, d.Headers)
}

func TestDiscoverUnknownDirectiveWarns(t *testing.T) {
	root := newSolution(t, "[[project]]\nname = \"core\"\n")
	writeFile(t, root, "core/module.go", "//mirror:module\npackage core\n")
	writeFile(t, root, "core/shapes.go", "package core\n\n//mirror:typo\ntype Shape struct{}\n")

	d, err := Discover(loadFixture(t, root))
	require.NoError(t, err)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "core/shapes.go:3")
	assert.Empty(t, d.Headers)
}
