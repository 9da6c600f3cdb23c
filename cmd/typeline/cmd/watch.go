/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 500 * time.Millisecond

// watchFiles calls onChange with the path as given whenever one of paths is
// written or recreated, until ctx is done. Bursts of events for one file
// within debounce collapse into a single call. Directories are watched
// rather than files so atomic renames are seen.
func watchFiles(ctx context.Context, paths []string, debounce time.Duration, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	byAbs := make(map[string]string, len(paths))
	watchedDirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("bad path %q: %w", p, err)
		}
		byAbs[abs] = p

		dir := filepath.Dir(abs)
		if watchedDirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watchedDirs[dir] = true
	}
	container.GetLogger().Debug("watching files", zap.Int("files", len(byAbs)), zap.Int("dirs", len(watchedDirs)))

	return watchLoop(ctx, watcher.Events, watcher.Errors, byAbs, debounce, onChange)
}

// watchLoop debounces events for the files in byAbs, keyed by absolute
// path, until ctx is done or either channel closes. Debounce callbacks
// still pending are released before it returns.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, byAbs map[string]string, debounce time.Duration, onChange func(path string)) error {
	log := container.GetLogger()

	var pending sync.WaitGroup
	defer pending.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changed := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			if t.Stop() {
				pending.Done()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			path, ok := byAbs[abs]
			if !ok {
				continue
			}
			if t, exists := timers[abs]; exists && t.Stop() {
				pending.Done()
			}
			pending.Add(1)
			timers[abs] = time.AfterFunc(debounce, func() {
				defer pending.Done()
				select {
				case changed <- path:
				case <-ctx.Done():
				}
			})
		case path := <-changed:
			log.Debug("file changed", zap.String("path", path))
			onChange(path)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		}
	}
}
