package edit

import (
	"fmt"
	"strings"
)

const contextLines = 3

// Diff is a unified diff between two versions of a document.
type Diff struct {
	Path      string
	Hunks     []Hunk
	Additions int
	Deletions int
}

// Hunk is one contiguous region of a unified diff.
type Hunk struct {
	// OriginalStart and ModifiedStart are 1-based line numbers.
	OriginalStart int
	OriginalCount int
	ModifiedStart int
	ModifiedCount int
	Lines         []DiffLine
}

// DiffLine is one line in a hunk.
type DiffLine struct {
	Kind    DiffLineKind
	Content string
}

// DiffLineKind classifies a diff line.
type DiffLineKind int

const (
	DiffContext DiffLineKind = iota
	DiffAdd
	DiffRemove
)

// Prefix returns the unified diff prefix for the kind.
func (k DiffLineKind) Prefix() string {
	switch k {
	case DiffAdd:
		return "+"
	case DiffRemove:
		return "-"
	default:
		return " "
	}
}

// GenerateDiff computes a unified diff from original to modified.
func GenerateDiff(path, original, modified string) *Diff {
	d := &Diff{Path: path}
	if original == modified {
		return d
	}

	ops := diffLines(splitLines(original), splitLines(modified))
	for _, op := range ops {
		switch op.kind {
		case DiffAdd:
			d.Additions++
		case DiffRemove:
			d.Deletions++
		}
	}
	d.Hunks = groupHunks(ops)
	return d
}

// HasChanges reports whether the diff contains any hunk.
func (d *Diff) HasChanges() bool {
	return len(d.Hunks) > 0
}

// String renders the diff in unified format with ---/+++ headers.
func (d *Diff) String() string {
	if !d.HasChanges() {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n", d.Path)
	fmt.Fprintf(&sb, "+++ b/%s\n", d.Path)
	for _, h := range d.Hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n",
			h.OriginalStart, h.OriginalCount, h.ModifiedStart, h.ModifiedCount)
		for _, l := range h.Lines {
			sb.WriteString(l.Kind.Prefix())
			sb.WriteString(l.Content)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

type lineOp struct {
	kind    DiffLineKind
	text    string
	origIdx int // 0-based line in original, -1 for additions
	modIdx  int // 0-based line in modified, -1 for removals
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// diffLines produces an edit script. Common leading and trailing lines are
// peeled off first; the middle uses a longest common subsequence table, which
// stays small because formatting edits touch few lines.
func diffLines(orig, mod []string) []lineOp {
	prefix := 0
	for prefix < len(orig) && prefix < len(mod) && orig[prefix] == mod[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(orig)-prefix && suffix < len(mod)-prefix &&
		orig[len(orig)-1-suffix] == mod[len(mod)-1-suffix] {
		suffix++
	}

	ops := make([]lineOp, 0, len(orig)+len(mod))
	for i := range prefix {
		ops = append(ops, lineOp{kind: DiffContext, text: orig[i], origIdx: i, modIdx: i})
	}

	a := orig[prefix : len(orig)-suffix]
	b := mod[prefix : len(mod)-suffix]

	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else {
				table[i][j] = max(table[i+1][j], table[i][j+1])
			}
		}
	}

	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			ops = append(ops, lineOp{kind: DiffContext, text: a[i], origIdx: prefix + i, modIdx: prefix + j})
			i++
			j++
		case i < len(a) && (j == len(b) || table[i+1][j] >= table[i][j+1]):
			ops = append(ops, lineOp{kind: DiffRemove, text: a[i], origIdx: prefix + i, modIdx: -1})
			i++
		default:
			ops = append(ops, lineOp{kind: DiffAdd, text: b[j], origIdx: -1, modIdx: prefix + j})
			j++
		}
	}

	for k := range suffix {
		oi := len(orig) - suffix + k
		mi := len(mod) - suffix + k
		ops = append(ops, lineOp{kind: DiffContext, text: orig[oi], origIdx: oi, modIdx: mi})
	}
	return ops
}

// groupHunks cuts the edit script into hunks with contextLines of context,
// merging changes whose context windows touch.
func groupHunks(ops []lineOp) []Hunk {
	var hunks []Hunk

	idx := 0
	for idx < len(ops) {
		for idx < len(ops) && ops[idx].kind == DiffContext {
			idx++
		}
		if idx == len(ops) {
			break
		}

		start := max(0, idx-contextLines)
		end := idx
		for end < len(ops) {
			if ops[end].kind != DiffContext {
				end++
				continue
			}
			run := end
			for run < len(ops) && ops[run].kind == DiffContext {
				run++
			}
			if run == len(ops) || run-end > 2*contextLines {
				end = min(len(ops), end+contextLines)
				break
			}
			end = run
		}

		hunks = append(hunks, buildHunk(ops[start:end], ops, start))
		idx = end
	}
	return hunks
}

func buildHunk(window, all []lineOp, start int) Hunk {
	h := Hunk{Lines: make([]DiffLine, 0, len(window))}

	// Line numbers of the first line on each side; for a side with no lines in
	// the window, count the lines that precede it.
	origBefore, modBefore := 0, 0
	for _, op := range all[:start] {
		if op.origIdx >= 0 {
			origBefore++
		}
		if op.modIdx >= 0 {
			modBefore++
		}
	}

	for _, op := range window {
		h.Lines = append(h.Lines, DiffLine{Kind: op.kind, Content: op.text})
		if op.origIdx >= 0 {
			h.OriginalCount++
		}
		if op.modIdx >= 0 {
			h.ModifiedCount++
		}
	}

	h.OriginalStart = origBefore + 1
	h.ModifiedStart = modBefore + 1
	if h.OriginalCount == 0 {
		h.OriginalStart = origBefore
	}
	if h.ModifiedCount == 0 {
		h.ModifiedStart = modBefore
	}
	return h
}
