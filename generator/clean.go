package generator

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/metadata"
)

// Clean removes every generated artifact of the solution's projects and the
// solution aggregates. Only files carrying the generated banner are removed.
func (g *Generator) Clean() error {
	dirs := map[string]bool{g.opts.SolutionDir: true}
	for _, p := range g.solution.Projects {
		dirs[p.Path] = true
	}
	for _, p := range g.store.Projects() {
		dirs[p.Path] = true
	}
	sorted := make([]string, 0, len(dirs))
	for d := range dirs {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	for _, dir := range sorted {
		abs := filepath.Join(g.solution.Root, filepath.FromSlash(dir))
		entries, err := os.ReadDir(abs)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return errors.WrapIO(err, abs)
		}
		for _, e := range entries {
			if e.IsDir() || !metadata.IsGeneratedFile(e.Name()) {
				continue
			}
			if err := g.out.Remove(path.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
