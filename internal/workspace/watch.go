package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yaklabco/mdsync/internal/logging"
)

// DefaultWatchSettle is how long the file must stay quiet after a change
// event before it is re-read. Editors often write in several steps.
const DefaultWatchSettle = 50 * time.Millisecond

// Watch reports external changes to the file on changes until ctx is done.
// The directory is watched rather than the file so editors that save by
// rename are followed. Sends are dropped when ctx ends first.
func (f *File) Watch(ctx context.Context, settle time.Duration, changes chan<- string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	logger := logging.Component(ctx, "watch")
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(settle)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", logging.FieldPath, f.path, logging.FieldError, err)

		case <-timer.C:
			text, changed, err := f.Reload(ctx)
			if err != nil {
				// A rename-save leaves a short window without the file.
				if !errors.Is(err, context.Canceled) {
					logger.Debug("reload skipped", logging.FieldPath, f.path, logging.FieldError, err)
				}
				continue
			}
			if !changed {
				continue
			}
			logger.Debug("document changed on disk", logging.FieldPath, f.path)
			select {
			case changes <- text:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
