package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/mirror/config"
	"github.com/teranos/mirror/errors"
)

func TestResolveDescriptor(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "mirror.yaml")
	require.NoError(t, os.WriteFile(yml, []byte("projects: []\n"), 0o644))

	got, err := resolveDescriptor(dir)
	require.NoError(t, err)
	assert.Equal(t, yml, got)

	tomlPath := filepath.Join(dir, "mirror.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(""), 0o644))
	got, err = resolveDescriptor(dir)
	require.NoError(t, err)
	assert.Equal(t, tomlPath, got, "mirror.toml wins over mirror.yaml")

	got, err = resolveDescriptor(yml)
	require.NoError(t, err)
	assert.Equal(t, yml, got)
}

func TestResolveDescriptorErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := resolveDescriptor(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrIO))

	_, err = resolveDescriptor(dir)
	require.Error(t, err)
	assert.True(t, errors.IsStructural(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestWriteConfigFormats(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	t.Run("toml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeConfig(&buf, cfg, "toml"))
		var back config.Config
		require.NoError(t, toml.Unmarshal(buf.Bytes(), &back))
		assert.Equal(t, cfg.Generator, back.Generator)
		assert.Equal(t, cfg.Store, back.Store)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeConfig(&buf, cfg, "yaml"))
		assert.Contains(t, buf.String(), "solution_package: "+cfg.Generator.SolutionPackage)
		var back config.Config
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
		assert.Equal(t, cfg.Watch, back.Watch)
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeConfig(&buf, cfg, "json"))
		var back map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
		assert.Contains(t, back, "generator")
		assert.NotContains(t, back, "SourcePath")
	})

	t.Run("unknown", func(t *testing.T) {
		err := writeConfig(&bytes.Buffer{}, cfg, "ini")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown format "ini"`)
	})
}

func TestVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	VersionCmd.SetOut(&buf)
	require.NoError(t, VersionCmd.Flags().Set("json", "true"))
	t.Cleanup(func() { _ = VersionCmd.Flags().Set("json", "false") })

	require.NoError(t, VersionCmd.RunE(VersionCmd, nil))
	var info map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Contains(t, info, "generator")
	assert.Contains(t, info, "version")
}
