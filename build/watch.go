package build

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/mirror/config"
	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/logger"
	"github.com/teranos/mirror/solution"
)

// ResultFunc receives the outcome of every run in watch mode
type ResultFunc func(*Result, error)

// Watch runs a build, then runs it again whenever a header candidate, the
// solution descriptor or the configuration file changes. Events are debounced
// and runs happen one at a time on the calling goroutine. Only the first run
// honours opts.Clean and opts.Rebuild. Watch returns when ctx is done.
func (b *Builder) Watch(ctx context.Context, opts Options, onResult ResultFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer watcher.Close()

	descriptor, err := filepath.Abs(opts.DescriptorPath)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", opts.DescriptorPath)
	}

	runOnce := func() {
		res, err := b.Run(ctx, opts)
		onResult(res, err)
		if err := b.watchDirs(watcher, descriptor); err != nil {
			b.logger.Warnw("Failed to update watched directories", logger.FieldError, err)
		}
	}

	runOnce()
	opts.Clean, opts.Rebuild = false, false

	debounce := time.Duration(b.cfg.Watch.DebounceMS) * time.Millisecond
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event, descriptor) {
				continue
			}
			b.logger.Debugw("Change detected",
				logger.FieldFile, event.Name,
				"op", event.Op.String(),
			)
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Warnw("Watcher error", logger.FieldError, err)

		case <-fire:
			fire = nil
			runOnce()
		}
	}
}

// watchDirs adds the descriptor directory and every project directory to the
// watcher. Adding a directory twice is harmless.
func (b *Builder) watchDirs(w *fsnotify.Watcher, descriptor string) error {
	dirs := []string{filepath.Dir(descriptor)}
	if info, _, err := solution.Load(descriptor); err == nil {
		for _, p := range info.Projects {
			dirs = append(dirs, filepath.Join(info.Root, filepath.FromSlash(p.Path)))
		}
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return errors.Wrapf(err, "watch %s", dir)
		}
	}
	return nil
}

// relevantEvent reports whether an event may change the outcome of a build.
// Generated artifacts and test files never do.
func relevantEvent(event fsnotify.Event, descriptor string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if filepath.Clean(event.Name) == descriptor || name == config.FileName {
		return true
	}
	return solution.IsHeaderFile(name)
}
