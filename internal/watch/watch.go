// Package watch reloads a notebook from disk when the file changes.
package watch

import (
	"context"
	"path/filepath"
	"time"

	fsnotify "github.com/fsnotify/fsnotify"

	"cellmark/internal/system"
)

// DefaultDebounce coalesces editor save bursts.
const DefaultDebounce = 120 * time.Millisecond

// File calls onChange after path was written, created or renamed into
// place, at most once per debounce window. The parent directory is
// watched so atomic-rename saves are seen. File blocks until ctx is done.
func File(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			system.Logger.Warn("watch error", "path", abs, "err", err)
		case <-fire:
			fire = nil
			onChange()
		}
	}
}
