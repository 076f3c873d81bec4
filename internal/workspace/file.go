// Package workspace holds documents opened from disk: their current text,
// a snapshot history for undo and redo, and change watching.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yaklabco/mdsync/pkg/edit"
	"github.com/yaklabco/mdsync/pkg/fsutil"
)

// DefaultHistoryLimit is how many undo snapshots a File keeps.
const DefaultHistoryLimit = 100

var (
	// ErrNoEdits is returned by Apply when there is nothing to apply.
	ErrNoEdits = errors.New("no edits to apply")

	// ErrChangedOnDisk is returned by writes when the file was changed by
	// someone else since it was last read or written. Reload first.
	ErrChangedOnDisk = errors.New("document changed on disk")
)

// File is a markdown document backed by a file. Its text may run ahead of
// the disk when an editor reports unsaved content; Apply, Undo and Redo
// write through. File is safe for concurrent use.
type File struct {
	path string

	mu      sync.Mutex
	content string
	info    *fsutil.FileInfo
	undo    []string
	redo    []string
	limit   int
}

// Open reads the document at path.
func Open(ctx context.Context, path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	content, info, err := fsutil.ReadFile(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}

	return &File{
		path:    abs,
		content: string(content),
		info:    info,
		limit:   DefaultHistoryLimit,
	}, nil
}

// Path returns the absolute path of the document.
func (f *File) Path() string {
	return f.path
}

// Text returns the current text.
func (f *File) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content
}

// SetText replaces the in-memory text with content reported by an editor.
// Nothing is written and the undo history is kept, but redo is cleared.
// It reports whether the text changed.
func (f *File) SetText(content string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if content == f.content {
		return false
	}
	f.content = content
	f.redo = nil
	return true
}

// Apply applies edits to the current text, records an undo snapshot and
// saves the result. It returns the new text.
func (f *File) Apply(ctx context.Context, edits []edit.TextEdit) (string, error) {
	if len(edits) == 0 {
		return "", ErrNoEdits
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	updated, err := edit.Apply(f.content, edits)
	if err != nil {
		return "", fmt.Errorf("apply edits to %s: %w", f.path, err)
	}
	if err := f.save(ctx, updated); err != nil {
		return "", err
	}

	f.undo = append(f.undo, f.content)
	if len(f.undo) > f.limit {
		f.undo = f.undo[len(f.undo)-f.limit:]
	}
	f.redo = nil
	f.content = updated
	return updated, nil
}

// Undo restores the snapshot taken before the last applied edit and saves
// it. ok is false when there is nothing to undo.
func (f *File) Undo(ctx context.Context) (text string, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.undo) == 0 {
		return f.content, false, nil
	}
	prev := f.undo[len(f.undo)-1]
	if err := f.save(ctx, prev); err != nil {
		return f.content, false, err
	}

	f.undo = f.undo[:len(f.undo)-1]
	f.redo = append(f.redo, f.content)
	f.content = prev
	return prev, true, nil
}

// Redo reapplies the last undone edit and saves it. ok is false when there
// is nothing to redo.
func (f *File) Redo(ctx context.Context) (text string, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.redo) == 0 {
		return f.content, false, nil
	}
	next := f.redo[len(f.redo)-1]
	if err := f.save(ctx, next); err != nil {
		return f.content, false, err
	}

	f.redo = f.redo[:len(f.redo)-1]
	f.undo = append(f.undo, f.content)
	f.content = next
	return next, true, nil
}

// Reload re-reads the file. Content this File wrote itself is ignored.
// It reports whether the text changed; a changed text clears redo.
func (f *File) Reload(ctx context.Context) (string, bool, error) {
	content, info, err := fsutil.ReadFile(ctx, f.path)
	if err != nil {
		return "", false, fmt.Errorf("reload document: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.info.Matches(content) || string(content) == f.content {
		f.info = info
		return f.content, false, nil
	}
	f.info = info
	f.content = string(content)
	f.redo = nil
	return f.content, true, nil
}

// save writes content and remembers its fingerprint. It refuses to overwrite
// a change made on disk that has not been reloaded. Caller holds mu.
func (f *File) save(ctx context.Context, content string) error {
	modified, err := fsutil.CheckModified(ctx, f.info)
	if err != nil {
		return fmt.Errorf("save %s: %w", f.path, err)
	}
	if modified {
		return fmt.Errorf("save %s: %w", f.path, ErrChangedOnDisk)
	}

	data := []byte(content)
	if err := fsutil.WriteAtomic(ctx, f.path, data, 0); err != nil {
		return fmt.Errorf("save %s: %w", f.path, err)
	}

	stat, err := os.Stat(f.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}
	f.info = fsutil.Snapshot(f.path, stat, data)
	return nil
}
