package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReportFunc receives each build made in watch mode.
type ReportFunc func(res *BuildResult)

// Watch builds paths once, then rebuilds any source that is written or created
// until ctx is done. Directories are watched recursively for SourceExt files;
// plain files are watched individually. Bursts of events are coalesced for the
// engine's debounce interval.
func (e *Engine) Watch(ctx context.Context, paths []string, opts BuildOptions, report ReportFunc) error {
	sources, err := ExpandSources(paths, e.sourceExt, e.targetExt)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	files := make(map[string]bool)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		if info.IsDir() {
			if err := e.watchDir(watcher, p); err != nil {
				return fmt.Errorf("failed to watch %s: %w", p, err)
			}
			continue
		}
		files[filepath.Clean(p)] = true
		if err := watcher.Add(filepath.Dir(p)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
	}

	// Initial build
	results, err := e.BuildAll(ctx, sources, opts)
	if err != nil {
		return err
	}
	for _, r := range results {
		report(r)
	}

	e.logger.Info("watching for changes", "paths", paths)
	return e.watchLoop(ctx, watcher, files, opts, report)
}

// watchDir recursively adds a directory to the watcher.
func (e *Engine) watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// wanted reports whether an event on name should trigger a build.
func (e *Engine) wanted(name string, files map[string]bool) bool {
	name = filepath.Clean(name)
	if files[name] {
		return true
	}
	ext := filepath.Ext(name)
	if strings.EqualFold(ext, e.targetExt) {
		return false
	}
	return e.sourceExt != "" && strings.EqualFold(ext, e.sourceExt) && !e.isExplicitDir(name, files)
}

// isExplicitDir reports whether name lives in a directory watched only for
// individual files.
func (e *Engine) isExplicitDir(name string, files map[string]bool) bool {
	dir := filepath.Dir(name)
	for f := range files {
		if filepath.Dir(f) == dir {
			return true
		}
	}
	return false
}

// watchLoop handles file system events.
func (e *Engine) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, files map[string]bool, opts BuildOptions, report ReportFunc) error {
	pending := make(map[string]bool)
	var debounceTimer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					if err := e.watchDir(watcher, event.Name); err != nil {
						e.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}

			// Only handle write/create events for relevant files
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !e.wanted(event.Name, files) {
				continue
			}

			pending[filepath.Clean(event.Name)] = true

			// Debounce rebuilds
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(e.debounce)
			fire = debounceTimer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			sort.Strings(changed)

			for _, p := range changed {
				e.logger.Info("change detected", "source", p)
				res, err := e.Build(ctx, p, opts)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					e.logger.Warn("rebuild failed", "source", p, "error", err)
					continue
				}
				report(res)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher error", "error", err)
		}
	}
}
