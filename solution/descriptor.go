// Package solution reads the solution descriptor and discovers the headers of
// each project.
//
// A descriptor is a TOML or YAML file:
//
//	name = "game"
//	excluded = ["tools/legacy"]
//
//	[[project]]
//	name = "core"
//	path = "core"
//
//	[[project]]
//	name = "editor"
//	path = "editor"
//	dependencies = ["core"]
//	tools_only = true
package solution

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
)

// Descriptor is the decoded solution descriptor
type Descriptor struct {
	Name     string        `toml:"name" yaml:"name"`
	Root     string        `toml:"root" yaml:"root"`
	Excluded []string      `toml:"excluded" yaml:"excluded"`
	Projects []ProjectSpec `toml:"project" yaml:"projects"`
}

// ProjectSpec is one project entry of the descriptor
type ProjectSpec struct {
	Name         string   `toml:"name" yaml:"name"`
	Path         string   `toml:"path" yaml:"path"`
	Dependencies []string `toml:"dependencies" yaml:"dependencies"`
	ToolsOnly    bool     `toml:"tools_only" yaml:"tools_only"`

	// Module reports whether the project declares a module file; nil means true
	Module *bool `toml:"module" yaml:"module"`
}

// DeclaresModule reports whether the project is expected to carry a //mirror:module file
func (p ProjectSpec) DeclaresModule() bool {
	return p.Module == nil || *p.Module
}

// DecodeDescriptor reads a descriptor file. Keys the descriptor does not know
// are returned as warnings.
func DecodeDescriptor(file string) (*Descriptor, []string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, errors.Wrap(errors.WrapIO(err, file), "read solution descriptor")
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return decodeYAML(file, data)
	default:
		return decodeTOML(file, data)
	}
}

func decodeTOML(file string, data []byte) (*Descriptor, []string, error) {
	var d Descriptor
	md, err := toml.Decode(string(data), &d)
	if err != nil {
		return nil, nil, errors.Mark(errors.Wrapf(err, "decode %s", file), errors.ErrStructural)
	}
	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("%s: unknown key %q", file, key.String()))
	}
	return &d, warnings, nil
}

func decodeYAML(file string, data []byte) (*Descriptor, []string, error) {
	var d Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(&d)
	if err == nil {
		return &d, nil, nil
	}

	// Unknown fields are reported as warnings; any other type error is fatal.
	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return nil, nil, errors.Mark(errors.Wrapf(err, "decode %s", file), errors.ErrStructural)
	}
	var warnings []string
	for _, msg := range typeErr.Errors {
		if !strings.Contains(msg, "not found in type") {
			return nil, nil, errors.Mark(errors.Wrapf(err, "decode %s", file), errors.ErrStructural)
		}
		warnings = append(warnings, fmt.Sprintf("%s: %s", file, msg))
	}
	d = Descriptor{}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, nil, errors.Mark(errors.Wrapf(err, "decode %s", file), errors.ErrStructural)
	}
	return &d, warnings, nil
}

// Load decodes the descriptor at file and resolves it into a SolutionInfo.
//
// Structural problems (a project without name, duplicate names, unknown
// dependencies, missing directories) are errors marked ErrStructural. The
// descriptor's excluded paths are kept in ExcludedPaths; projects under one of
// them are dropped.
func Load(file string) (*metadata.SolutionInfo, []string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "resolve %s", file)
	}
	desc, warnings, err := DecodeDescriptor(abs)
	if err != nil {
		return nil, nil, err
	}
	info, more, err := Resolve(desc, abs)
	return info, append(warnings, more...), err
}

// Resolve turns a decoded descriptor into a SolutionInfo. descriptorPath anchors
// relative paths.
func Resolve(desc *Descriptor, descriptorPath string) (*metadata.SolutionInfo, []string, error) {
	root := filepath.Dir(descriptorPath)
	if desc.Root != "" {
		if filepath.IsAbs(desc.Root) {
			root = desc.Root
		} else {
			root = filepath.Join(root, filepath.FromSlash(desc.Root))
		}
	}
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil, nil, errors.Structuralf("solution root %s is not a directory", root)
	}

	moduleRoot, modulePath, err := FindModule(root)
	if err != nil {
		return nil, nil, err
	}

	info := &metadata.SolutionInfo{
		Path:       descriptorPath,
		Root:       root,
		ModuleRoot: moduleRoot,
		ModulePath: modulePath,
	}

	excluded := make([]string, 0, len(desc.Excluded))
	for _, e := range desc.Excluded {
		excluded = append(excluded, cleanRel(e))
	}
	info.ExcludedPaths = excluded

	var warnings []string
	names := make(map[string]bool, len(desc.Projects))
	for i, spec := range desc.Projects {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, nil, errors.Structuralf("project #%d in %s has no name", i+1, descriptorPath)
		}
		if names[spec.Name] {
			return nil, nil, errors.Structuralf("project %s is declared twice in %s", spec.Name, descriptorPath)
		}
		names[spec.Name] = true
	}

	for _, spec := range desc.Projects {
		rel := spec.Path
		if rel == "" {
			rel = spec.Name
		}
		rel = cleanRel(rel)
		if strings.HasPrefix(rel, "../") || rel == ".." {
			return nil, nil, errors.Structuralf("project %s path %s leaves the solution root", spec.Name, spec.Path)
		}

		if IsExcluded(rel, excluded) {
			warnings = append(warnings, fmt.Sprintf("project %s excluded by solution descriptor", spec.Name))
			continue
		}

		dir := filepath.Join(root, filepath.FromSlash(rel))
		if st, err := os.Stat(dir); err != nil || !st.IsDir() {
			return nil, nil, errors.Structuralf("project %s: directory %s does not exist", spec.Name, dir)
		}
		importPath, err := ImportPath(moduleRoot, modulePath, dir)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "project %s", spec.Name)
		}

		p := &metadata.ProjectInfo{
			ID:             metadata.NewProjectID(spec.Name),
			Name:           spec.Name,
			Path:           rel,
			ImportPath:     importPath,
			PackageName:    path.Base(importPath),
			IsToolsOnly:    spec.ToolsOnly,
			DeclaresModule: spec.DeclaresModule(),
		}
		for _, dep := range spec.Dependencies {
			if !names[dep] {
				return nil, nil, errors.Structuralf("project %s depends on unknown project %s", spec.Name, dep)
			}
			if dep == spec.Name {
				return nil, nil, errors.Mark(errors.Newf("project %s depends on itself", spec.Name), errors.ErrCyclicDependency)
			}
			p.DependencyIDs = append(p.DependencyIDs, metadata.NewProjectID(dep))
		}
		info.Projects = append(info.Projects, p)
	}

	return info, warnings, nil
}

// IsExcluded reports whether the slash path rel is one of excluded or lies below one
func IsExcluded(rel string, excluded []string) bool {
	for _, e := range excluded {
		if e == "." || rel == e || strings.HasPrefix(rel, e+"/") {
			return true
		}
	}
	return false
}

func cleanRel(p string) string {
	return path.Clean(filepath.ToSlash(strings.TrimSpace(p)))
}
