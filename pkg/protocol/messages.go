package protocol

import (
	"github.com/yaklabco/mdsync/pkg/chunk"
	"github.com/yaklabco/mdsync/pkg/scroll"
	"github.com/yaklabco/mdsync/pkg/selection"
)

// ScrollTo asks the preview to show a source line.
type ScrollTo struct {
	Line       int  `json:"line"`
	TotalLines int  `json:"totalLines"`
	EndLine    *int `json:"endLine,omitempty"`
}

func (*ScrollTo) MessageType() Type { return TypeScrollTo }

// Request converts the message for the correlator.
func (m *ScrollTo) Request() scroll.Request {
	return scroll.Request{Line: m.Line, TotalLines: m.TotalLines, EndLine: m.EndLine}
}

// RevealLine asks the editor to show a source line.
type RevealLine struct {
	Line int `json:"line"`
}

func (*RevealLine) MessageType() Type { return TypeRevealLine }

// UpdateContent replaces the source text.
type UpdateContent struct {
	Content string `json:"content"`
}

func (*UpdateContent) MessageType() Type { return TypeUpdateContent }

// ApplyFormat requests a format edit for text selected in the preview.
// The optional fields locate the selection when the text repeats.
type ApplyFormat struct {
	Format                string `json:"format"`
	SelectedText          string `json:"selectedText"`
	SourceLine            *int   `json:"sourceLine,omitempty"`
	BlockContext          string `json:"blockContext,omitempty"`
	BlockOccurrenceIndex  *int   `json:"blockOccurrenceIndex,omitempty"`
	GlobalOccurrenceIndex *int   `json:"globalOccurrenceIndex,omitempty"`
}

func (*ApplyFormat) MessageType() Type { return TypeApplyFormat }

// Hints returns the disambiguation hints carried by the message.
func (m *ApplyFormat) Hints() selection.Hints {
	return selection.Hints{
		SourceLine:            m.SourceLine,
		BlockContext:          m.BlockContext,
		BlockOccurrenceIndex:  m.BlockOccurrenceIndex,
		GlobalOccurrenceIndex: m.GlobalOccurrenceIndex,
	}
}

// ExportRequested asks for a PDF of the current document. Path is optional;
// without it the export goes next to the source file.
type ExportRequested struct {
	Path string `json:"path,omitempty"`
}

func (*ExportRequested) MessageType() Type { return TypeExportRequested }

// Undo steps the document history back.
type Undo struct{}

func (*Undo) MessageType() Type { return TypeUndo }

// Redo steps the document history forward.
type Redo struct{}

func (*Redo) MessageType() Type { return TypeRedo }

// Ready is sent by the preview when it has loaded or become visible again.
type Ready struct{}

func (*Ready) MessageType() Type { return TypeReady }

// Geometry reports the measured positions of the tagged elements.
type Geometry struct {
	Anchors  []scroll.Anchor `json:"anchors"`
	Viewport scroll.Viewport `json:"viewport"`
}

func (*Geometry) MessageType() Type { return TypeGeometry }

// Scroll reports a preview scroll event.
type Scroll struct {
	Viewport scroll.Viewport `json:"viewport"`
}

func (*Scroll) MessageType() Type { return TypeScroll }

// Patch carries chunk container mutations to the preview. ScrollTop, when
// set, is applied after the mutations.
type Patch struct {
	Mutations  []chunk.Mutation `json:"mutations"`
	TotalLines int              `json:"totalLines"`
	ScrollTop  *float64         `json:"scrollTop,omitempty"`
}

func (*Patch) MessageType() Type { return TypePatch }

// ScrollOffset tells the preview to scroll to Top, in CSS pixels.
type ScrollOffset struct {
	Top float64 `json:"top"`
}

func (*ScrollOffset) MessageType() Type { return TypeScrollOffset }

// RestoreScroll tells a reloaded preview where it was.
type RestoreScroll struct {
	Top float64 `json:"top"`
}

func (*RestoreScroll) MessageType() Type { return TypeRestoreScroll }

// Notice levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notice is a user-visible message.
type Notice struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func (*Notice) MessageType() Type { return TypeNotice }
