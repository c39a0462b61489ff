package generator

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/logger"
)

// Banner is the first line of every generated file
const Banner = "// Code generated by mirror. DO NOT EDIT."

// Stats counts the artifacts a generation pass touched
type Stats struct {
	Written   []string // slash paths relative to the solution root
	Unchanged int
	Removed   []string
}

// Output writes generated files below root, leaving a file alone when its
// content is unchanged line by line.
type Output struct {
	root   string
	dryRun bool
	stats  Stats
	logger *zap.SugaredLogger
}

// NewOutput creates an output rooted at the solution directory. With dryRun set
// nothing is written; Stats still reports what would change.
func NewOutput(root string, dryRun bool, log *zap.SugaredLogger) *Output {
	if log == nil {
		log = logger.Logger
	}
	return &Output{root: root, dryRun: dryRun, logger: log.Named("output")}
}

// Stats returns the counters accumulated so far
func (o *Output) Stats() Stats {
	return o.stats
}

// Render writes a jennifer file to rel, a slash path relative to the root
func (o *Output) Render(rel string, f *jen.File) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return errors.AssertionFailedf("render %s: %v", rel, err)
	}
	return o.Write(rel, buf.Bytes())
}

// Write stores content at rel unless the file on disk already holds the same lines
func (o *Output) Write(rel string, content []byte) error {
	abs := filepath.Join(o.root, filepath.FromSlash(rel))

	same, err := sameLines(abs, content)
	if err == nil && same {
		o.stats.Unchanged++
		return nil
	}

	o.stats.Written = append(o.stats.Written, rel)
	if o.dryRun {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return errors.WrapIO(err, filepath.Dir(abs))
	}
	if err := os.WriteFile(abs, content, 0644); err != nil {
		return errors.WrapIO(err, abs)
	}
	o.logger.Debugw("Wrote artifact", logger.FieldFile, rel)
	return nil
}

// Remove deletes a generated artifact. Missing files and files that do not
// carry the generated banner are left alone.
func (o *Output) Remove(rel string) error {
	abs := filepath.Join(o.root, filepath.FromSlash(rel))
	generated, err := IsGenerated(abs)
	if err != nil || !generated {
		return nil
	}
	o.stats.Removed = append(o.stats.Removed, rel)
	if o.dryRun {
		return nil
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return errors.WrapIO(err, abs)
	}
	o.logger.Debugw("Removed artifact", logger.FieldFile, rel)
	return nil
}

// sameLines compares the file at path with content line by line. An unreadable
// file is reported as an error, which callers treat as different.
func sameLines(path string, content []byte) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	existing := bufio.NewScanner(f)
	existing.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	wanted := bufio.NewScanner(bytes.NewReader(content))
	wanted.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for {
		more, moreWanted := existing.Scan(), wanted.Scan()
		if more != moreWanted {
			return false, existing.Err()
		}
		if !more {
			return true, existing.Err()
		}
		if existing.Text() != wanted.Text() {
			return false, nil
		}
	}
}

// IsGenerated reports whether the file at path starts with the mirror banner
func IsGenerated(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == Banner:
			return true, nil
		case line == "" || strings.HasPrefix(line, "//go:build"):
			continue
		default:
			return false, nil
		}
	}
	return false, sc.Err()
}
