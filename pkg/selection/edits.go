package selection

import (
	"errors"

	"github.com/yaklabco/mdsync/pkg/edit"
)

// Edits resolves selected in src and builds the edits that apply format to
// it. A delete whose text cannot be found exactly falls back to deleting the
// source lines the selection loosely matches, so a multi-line selection that
// rendering reflowed can still be removed.
func Edits(src edit.Source, format edit.Format, selected string, hints Hints) ([]edit.TextEdit, error) {
	span, err := Resolve(src, selected, hints)
	if err == nil {
		return edit.ApplyFormat(src, format, span, selected)
	}
	if format != edit.FormatDelete || !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	lines, lerr := ResolveLoose(src, selected)
	if lerr != nil {
		return nil, err
	}
	return edit.DeleteLines(src, lines), nil
}
