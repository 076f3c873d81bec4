package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/yaklabco/mdsync/internal/export"
	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/internal/workspace"
	"github.com/yaklabco/mdsync/pkg/chunk"
	"github.com/yaklabco/mdsync/pkg/edit"
	"github.com/yaklabco/mdsync/pkg/mdast"
	"github.com/yaklabco/mdsync/pkg/protocol"
	"github.com/yaklabco/mdsync/pkg/scroll"
	"github.com/yaklabco/mdsync/pkg/selection"
)

// Notice texts.
const (
	msgNotFound      = "Could not find the selected text in the source."
	msgExportBusy    = "A PDF export is already running."
	msgExportMissing = "PDF export is not available."
	msgExportStarted = "Exporting PDF..."
	msgNothingToUndo = "Nothing to undo."
	msgNothingToRedo = "Nothing to redo."
	msgChangedOnDisk = "The file changed on disk. Try again once the preview has reloaded it."
)

// minOffsetSaveDelta is the scroll change, in CSS pixels, worth persisting.
const minOffsetSaveDelta = 1.0

func (s *Session) onReady(ctx context.Context, id string) {
	p, ok := s.peers[id]
	if !ok || p.role != RolePreview {
		return
	}
	p.ready = true

	snap := s.manager.Snapshot()
	s.send(id, &protocol.Patch{Mutations: snap.Mutations, TotalLines: s.manager.TotalLines()})

	if s.opts.Store == nil {
		return
	}
	top, ok, err := s.opts.Store.Offset(ctx, s.doc.Path())
	if err != nil {
		s.logger.Warn("read saved scroll offset", logging.FieldError, err)
		return
	}
	if ok {
		s.savedTop = top
		s.send(id, &protocol.RestoreScroll{Top: top})
	}
}

func (s *Session) onGeometry(m *protocol.Geometry) {
	s.anchors = m.Anchors
	s.viewport = m.Viewport
	s.haveGeometry = true

	if s.pendingTo != nil {
		req := *s.pendingTo
		s.pendingTo = nil
		s.scrollPreview(req)
	}
}

func (s *Session) onScroll(m *protocol.Scroll) {
	s.viewport = m.Viewport
	s.sync.ObserveScroll(s.now(), m.Viewport)
}

func (s *Session) onScrollTo(m *protocol.ScrollTo) {
	if !s.haveGeometry {
		req := m.Request()
		s.pendingTo = &req
		return
	}
	s.scrollPreview(m.Request())
}

func (s *Session) scrollPreview(req scroll.Request) {
	offset, ok := s.sync.ScrollTo(s.now(), s.anchors, s.viewport, req)
	if !ok {
		return
	}
	s.viewport.ScrollTop = offset
	s.broadcast(RolePreview, &protocol.ScrollOffset{Top: offset})
}

// pollScroll forwards a settled preview scroll to the editors and persists
// the offset.
func (s *Session) pollScroll(ctx context.Context) {
	if line, ok := s.sync.Poll(s.now(), s.anchors); ok {
		s.broadcast(RoleEditor, &protocol.RevealLine{Line: line})
	}

	top := s.viewport.ScrollTop
	if s.opts.Store == nil || math.Abs(top-s.savedTop) < minOffsetSaveDelta {
		return
	}
	if err := s.opts.Store.SaveOffset(ctx, s.doc.Path(), top); err != nil {
		s.logger.Warn("save scroll offset", logging.FieldError, err)
		return
	}
	s.savedTop = top
}

func (s *Session) onUpdateContent(ctx context.Context, id string, m *protocol.UpdateContent) {
	if p, ok := s.peers[id]; ok && p.role != RoleEditor {
		s.logger.Debug("ignoring content from non-editor", logging.FieldPeer, id)
		return
	}
	s.doc.SetText(m.Content)
	s.refresh(ctx, m.Content, false)
}

func (s *Session) onApplyFormat(ctx context.Context, m *protocol.ApplyFormat) {
	format, err := edit.ParseFormat(m.Format)
	if err != nil {
		s.notice(protocol.LevelWarning, err.Error())
		return
	}

	lines := mdast.BuildLines(s.doc.Text())
	edits, err := selection.Edits(lines, format, m.SelectedText, m.Hints())
	if err != nil {
		s.logger.Info("selection not resolved",
			logging.FieldFormat, format,
			logging.FieldSelection, logging.Snippet(m.SelectedText),
			logging.FieldError, err)
		s.notice(protocol.LevelWarning, msgNotFound)
		return
	}

	updated, err := s.doc.Apply(ctx, edits)
	if err != nil {
		s.writeFailed("apply "+string(format), err)
		return
	}

	s.logger.Debug("format applied",
		logging.FieldFormat, format,
		logging.FieldSelection, logging.Snippet(m.SelectedText))
	s.sync.NoteEdit(s.now())
	s.refresh(ctx, updated, true)
	s.broadcast(RoleEditor, &protocol.UpdateContent{Content: updated})
}

// onHistory steps the document history. When editors are attached they own
// the history, so the request is forwarded and their content update follows.
func (s *Session) onHistory(
	ctx context.Context,
	id string,
	msg protocol.Message,
	step func(context.Context) (string, bool, error),
	name string,
) {
	if p, fromEditor := s.peers[id]; s.count(RoleEditor) > 0 && !(fromEditor && p.role == RoleEditor) {
		s.broadcast(RoleEditor, msg)
		return
	}

	text, ok, err := step(ctx)
	if err != nil {
		s.writeFailed(name, err)
		return
	}
	if !ok {
		if name == "undo" {
			s.notice(protocol.LevelInfo, msgNothingToUndo)
		} else {
			s.notice(protocol.LevelInfo, msgNothingToRedo)
		}
		return
	}

	s.sync.NoteEdit(s.now())
	s.refresh(ctx, text, true)
}

// writeFailed reports a document write that did not happen. A write refused
// because of an unreloaded change on disk is a warning, not an error.
func (s *Session) writeFailed(action string, err error) {
	if errors.Is(err, workspace.ErrChangedOnDisk) {
		s.logger.Warn(action+" refused", logging.FieldError, err)
		s.notice(protocol.LevelWarning, msgChangedOnDisk)
		return
	}
	s.logger.Error(action+" failed", logging.FieldError, err)
	s.notice(protocol.LevelError, fmt.Sprintf("Could not %s: %v", action, err))
}

// refresh brings the previews in line with text. keepScroll pins the
// preview's scroll offset across the patch.
func (s *Session) refresh(ctx context.Context, text string, keepScroll bool) {
	patch, err := s.manager.Update(ctx, text)
	if err != nil {
		s.logger.Warn("update render failed", logging.FieldError, err)
		return
	}

	var top *float64
	if keepScroll && s.haveGeometry {
		v := s.viewport.ScrollTop
		top = &v
	}
	s.sendPatch(patch, top)
}

func (s *Session) sendPatch(patch chunk.Patch, top *float64) {
	s.logFailures(patch)
	if patch.Empty() {
		return
	}
	s.logger.Debug("patch",
		logging.FieldMutations, len(patch.Mutations),
		logging.FieldPending, s.manager.Pending())
	s.broadcast(RolePreview, &protocol.Patch{
		Mutations:  patch.Mutations,
		TotalLines: s.manager.TotalLines(),
		ScrollTop:  top,
	})
}

func (s *Session) onExport(ctx context.Context, m *protocol.ExportRequested) {
	if s.opts.Exporter == nil {
		s.notice(protocol.LevelError, msgExportMissing)
		return
	}
	if s.exporting {
		s.notice(protocol.LevelInfo, msgExportBusy)
		return
	}

	body, patch, err := s.manager.HTML(ctx)
	if err != nil {
		s.notice(protocol.LevelError, fmt.Sprintf("PDF export failed: %v", err))
		return
	}
	s.sendPatch(patch, nil)

	docPath := s.doc.Path()
	output := m.Path
	switch {
	case output == "":
		output = export.DefaultOutput(docPath)
	case !filepath.IsAbs(output):
		output = filepath.Join(filepath.Dir(docPath), output)
	}

	page := export.Page{
		Title:   filepath.Base(docPath),
		Body:    body,
		CSS:     s.opts.HighlightCSS,
		BaseDir: filepath.Dir(docPath),
	}

	s.exporting = true
	s.notice(protocol.LevelInfo, msgExportStarted)
	s.logger.Info("export started", logging.FieldOutput, output)

	exporter := s.opts.Exporter
	go func() {
		res, err := exporter.Export(ctx, page, output)
		_ = s.enqueue(ctx, event{kind: evExportDone, result: res, err: err})
	}()
}

func (s *Session) exportDone(res *export.Result, err error) {
	s.exporting = false

	if err != nil {
		s.logger.Error("export failed", logging.FieldError, err)
		s.notice(protocol.LevelError, fmt.Sprintf("PDF export failed: %v", err))
		return
	}

	s.logger.Info("export finished",
		logging.FieldOutput, res.Path,
		logging.FieldSize, res.Size,
		logging.FieldDuration, res.Duration)
	s.notice(protocol.LevelInfo, fmt.Sprintf("Exported %s (%s)",
		filepath.Base(res.Path), humanize.Bytes(uint64(max(res.Size, 0)))))
}
