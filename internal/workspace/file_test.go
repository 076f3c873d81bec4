package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/internal/workspace"
	"github.com/yaklabco/mdsync/pkg/edit"
	"github.com/yaklabco/mdsync/pkg/fsutil"
)

func openDoc(t *testing.T, content string) *workspace.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	f, err := workspace.Open(context.Background(), path)
	require.NoError(t, err)
	return f
}

func readDisk(t *testing.T, f *workspace.File) string {
	t.Helper()

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	return string(data)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	f := openDoc(t, "# Title\n\nbody\n")
	assert.True(t, filepath.IsAbs(f.Path()))
	assert.Equal(t, "# Title\n\nbody\n", f.Text())

	_, err := workspace.Open(context.Background(), filepath.Join(t.TempDir(), "missing.md"))
	require.ErrorIs(t, err, fsutil.ErrNotFound)
}

func TestApplyUndoRedo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := openDoc(t, "para A\n")

	text, err := f.Apply(ctx, []edit.TextEdit{
		{StartOffset: 5, EndOffset: 5, NewText: "**"},
		{StartOffset: 6, EndOffset: 6, NewText: "**"},
	})
	require.NoError(t, err)
	assert.Equal(t, "para **A**\n", text)
	assert.Equal(t, "para **A**\n", readDisk(t, f))

	text, ok, err := f.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "para A\n", text)
	assert.Equal(t, "para A\n", readDisk(t, f))

	text, ok, err = f.Redo(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "para **A**\n", text)

	_, ok, err = f.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyRejectsBadEdits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := openDoc(t, "abc\n")

	_, err := f.Apply(ctx, nil)
	require.ErrorIs(t, err, workspace.ErrNoEdits)

	_, err = f.Apply(ctx, []edit.TextEdit{{StartOffset: 2, EndOffset: 99}})
	require.Error(t, err)
	assert.Equal(t, "abc\n", f.Text())

	_, ok, err := f.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "failed edit leaves no snapshot")
}

func TestSetTextClearsRedo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := openDoc(t, "one\n")

	_, err := f.Apply(ctx, []edit.TextEdit{{StartOffset: 0, EndOffset: 3, NewText: "two"}})
	require.NoError(t, err)
	_, _, err = f.Undo(ctx)
	require.NoError(t, err)

	assert.False(t, f.SetText("one\n"))
	assert.True(t, f.SetText("one\nmore\n"))
	assert.Equal(t, "one\n", readDisk(t, f), "editor text is not written")

	_, ok, err := f.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetTextSameKeepsRedo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := openDoc(t, "one\n")

	_, err := f.Apply(ctx, []edit.TextEdit{{StartOffset: 0, EndOffset: 3, NewText: "two"}})
	require.NoError(t, err)
	_, _, err = f.Undo(ctx)
	require.NoError(t, err)

	assert.False(t, f.SetText("one\n"))
	text, ok, err := f.Redo(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two\n", text)
}

func TestWriteRefusesUnreloadedChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := openDoc(t, "ours\n")

	require.NoError(t, os.WriteFile(f.Path(), []byte("theirs, longer\n"), 0o600))

	_, err := f.Apply(ctx, []edit.TextEdit{{StartOffset: 0, EndOffset: 4, NewText: "mine"}})
	require.ErrorIs(t, err, workspace.ErrChangedOnDisk)
	assert.Equal(t, "theirs, longer\n", readDisk(t, f))
	assert.Equal(t, "ours\n", f.Text())

	// After a reload the write goes through.
	_, changed, err := f.Reload(ctx)
	require.NoError(t, err)
	require.True(t, changed)
	_, err = f.Apply(ctx, []edit.TextEdit{{StartOffset: 0, EndOffset: 6, NewText: "ours"}})
	require.NoError(t, err)
	assert.Equal(t, "ours, longer\n", readDisk(t, f))
}

func TestUndoRefusesDeletedFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := openDoc(t, "a\n")

	_, err := f.Apply(ctx, []edit.TextEdit{{StartOffset: 0, EndOffset: 1, NewText: "b"}})
	require.NoError(t, err)
	require.NoError(t, os.Remove(f.Path()))

	text, ok, err := f.Undo(ctx)
	require.ErrorIs(t, err, workspace.ErrChangedOnDisk)
	assert.False(t, ok)
	assert.Equal(t, "b\n", text)
}

func TestReload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := openDoc(t, "start\n")

	_, err := f.Apply(ctx, []edit.TextEdit{{StartOffset: 0, EndOffset: 5, NewText: "mine"}})
	require.NoError(t, err)

	_, changed, err := f.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "own write is not an external change")

	require.NoError(t, os.WriteFile(f.Path(), []byte("theirs\n"), 0o600))
	text, changed, err := f.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "theirs\n", text)
	assert.Equal(t, "theirs\n", f.Text())
}

func TestWatch(t *testing.T) {
	t.Parallel()

	f := openDoc(t, "v1\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- f.Watch(ctx, 10*time.Millisecond, changes) }()

	// Keep writing until the watcher is set up and reports the change.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	version := 2
	for {
		select {
		case text := <-changes:
			assert.Contains(t, text, "v")
			assert.NotEqual(t, "v1\n", text)
			cancel()
			require.NoError(t, <-done)
			return
		case <-ticker.C:
			content := []byte("v" + strconv.Itoa(version) + "\n")
			version++
			require.NoError(t, os.WriteFile(f.Path(), content, 0o600))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}
