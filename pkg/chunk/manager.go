package chunk

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/yaklabco/mdsync/pkg/render"
)

// DefaultEagerChunks is the number of leading chunks rendered synchronously.
const DefaultEagerChunks = 2

// Mutation operations.
const (
	OpReplace  = "replace"
	OpInsert   = "insert"
	OpTruncate = "truncate"
	OpShift    = "shift"
)

// Mutation is one change to the list of chunk containers in the preview.
//
//   - replace: swap the contents of container Index for HTML.
//   - insert: append a new container with ID at Index.
//   - truncate: remove every container at Index or later.
//   - shift: add Delta to every data-line inside container Index.
type Mutation struct {
	Op    string `json:"op"`
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	HTML  string `json:"html,omitempty"`
	Delta int    `json:"delta,omitempty"`
}

// Patch is the set of mutations produced by one Manager call, in order.
type Patch struct {
	Mutations []Mutation

	// Failures are per-block render problems, already degraded in the HTML.
	Failures []error
}

// Empty reports whether the patch changes nothing.
func (p *Patch) Empty() bool {
	return len(p.Mutations) == 0
}

func (p *Patch) add(m Mutation) {
	p.Mutations = append(p.Mutations, m)
}

// Renderer renders one chunk.
type Renderer interface {
	Render(ctx context.Context, chunkText string, lineOffset int) (*render.Result, error)
}

// Options configure a Manager.
type Options struct {
	Split SplitOptions

	// EagerChunks is the number of chunks Initial renders before returning.
	EagerChunks int
}

// DefaultOptions returns the default manager options.
func DefaultOptions() Options {
	return Options{
		Split:       DefaultSplitOptions(),
		EagerChunks: DefaultEagerChunks,
	}
}

type container struct {
	chunk    Chunk
	html     string
	rendered bool
}

// Manager owns the chunk containers of one preview. It is not safe for
// concurrent use; a session drives it from its event loop.
type Manager struct {
	opts       Options
	renderer   Renderer
	text       string
	containers []*container
}

// NewManager creates a Manager.
func NewManager(r Renderer, opts Options) *Manager {
	if opts.EagerChunks <= 0 {
		opts.EagerChunks = DefaultEagerChunks
	}
	return &Manager{opts: opts, renderer: r}
}

// ContainerID returns the element ID of the container at index.
func ContainerID(index int) string {
	return fmt.Sprintf("chunk-%d", index)
}

// Text returns the source the containers currently reflect.
func (m *Manager) Text() string {
	return m.text
}

// Chunks returns the current chunk split.
func (m *Manager) Chunks() []Chunk {
	out := make([]Chunk, len(m.containers))
	for i, c := range m.containers {
		out[i] = c.chunk
	}
	return out
}

// TotalLines returns the number of source lines.
func (m *Manager) TotalLines() int {
	if len(m.containers) == 0 {
		return 0
	}
	return m.containers[len(m.containers)-1].chunk.EndLine + 1
}

// Pending returns the number of containers still showing a placeholder.
func (m *Manager) Pending() int {
	n := 0
	for _, c := range m.containers {
		if !c.rendered {
			n++
		}
	}
	return n
}

// Initial replaces every container with the split of text. The first
// EagerChunks chunks are rendered; the rest get placeholders and wait for
// RenderPending.
func (m *Manager) Initial(ctx context.Context, text string) (Patch, error) {
	var patch Patch
	patch.add(Mutation{Op: OpTruncate, Index: 0})

	m.text = text
	m.containers = nil
	if err := m.rebuild(ctx, &patch, Split(text, m.opts.Split), 0); err != nil {
		return Patch{}, err
	}
	return patch, nil
}

// RenderPending renders up to batch placeholder containers in document order.
func (m *Manager) RenderPending(ctx context.Context, batch int) (Patch, error) {
	var patch Patch
	for i, c := range m.containers {
		if batch <= 0 {
			break
		}
		if c.rendered {
			continue
		}
		if err := m.renderInto(ctx, &patch, c); err != nil {
			return patch, err
		}
		patch.add(Mutation{Op: OpReplace, Index: i, ID: ContainerID(i), HTML: c.html})
		batch--
	}
	return patch, nil
}

// Update brings the containers in line with text, touching as few as
// possible. Chunks whose text is unchanged keep their HTML; when only their
// start line moved they get a shift. When the chunk count changes, the
// longest unchanged prefix is kept and everything after it is rebuilt.
func (m *Manager) Update(ctx context.Context, text string) (Patch, error) {
	if text == m.text && len(m.containers) > 0 {
		return Patch{}, nil
	}
	if len(m.containers) == 0 {
		return m.Initial(ctx, text)
	}

	m.text = text
	chunks := Split(text, m.opts.Split)
	var patch Patch

	if len(chunks) == len(m.containers) {
		for i, next := range chunks {
			c := m.containers[i]
			if c.chunk.Text == next.Text {
				if delta := next.StartLine - c.chunk.StartLine; delta != 0 {
					c.chunk = next
					c.html = shiftLines(c.html, delta)
					patch.add(Mutation{Op: OpShift, Index: i, ID: ContainerID(i), Delta: delta})
				}
				continue
			}

			c.chunk = next
			if !c.rendered {
				c.html = placeholder(next)
			} else if err := m.renderInto(ctx, &patch, c); err != nil {
				return patch, err
			}
			patch.add(Mutation{Op: OpReplace, Index: i, ID: ContainerID(i), HTML: c.html})
		}
		return patch, nil
	}

	prefix := 0
	for prefix < len(chunks) && prefix < len(m.containers) &&
		chunks[prefix].Text == m.containers[prefix].chunk.Text &&
		chunks[prefix].StartLine == m.containers[prefix].chunk.StartLine {
		prefix++
	}

	patch.add(Mutation{Op: OpTruncate, Index: prefix})
	m.containers = m.containers[:prefix]
	if err := m.rebuild(ctx, &patch, chunks[prefix:], prefix); err != nil {
		return patch, err
	}
	return patch, nil
}

// HTML renders any pending chunks and returns the whole document wrapped in
// its containers, as the preview shows it. The returned patch carries the
// replacements for the chunks it had to render.
func (m *Manager) HTML(ctx context.Context) (string, Patch, error) {
	patch, err := m.RenderPending(ctx, len(m.containers))
	if err != nil {
		return "", patch, err
	}

	var sb strings.Builder
	for i, c := range m.containers {
		fmt.Fprintf(&sb, "<div class=\"chunk\" id=\"%s\">\n", ContainerID(i))
		sb.WriteString(c.html)
		sb.WriteString("</div>\n")
	}
	return sb.String(), patch, nil
}

// Snapshot returns a patch that rebuilds a preview from nothing into the
// current containers, placeholders included. Nothing is rendered.
func (m *Manager) Snapshot() Patch {
	patch := Patch{Mutations: make([]Mutation, 0, len(m.containers)+1)}
	patch.add(Mutation{Op: OpTruncate, Index: 0})
	for i, c := range m.containers {
		patch.add(Mutation{Op: OpInsert, Index: i, ID: ContainerID(i), HTML: c.html})
	}
	return patch
}

// rebuild appends containers for chunks starting at index from, rendering
// the first EagerChunks of them.
func (m *Manager) rebuild(ctx context.Context, patch *Patch, chunks []Chunk, from int) error {
	for i, ch := range chunks {
		c := &container{chunk: ch, html: placeholder(ch)}
		if i < m.opts.EagerChunks {
			if err := m.renderInto(ctx, patch, c); err != nil {
				return err
			}
		}
		m.containers = append(m.containers, c)
		idx := from + i
		patch.add(Mutation{Op: OpInsert, Index: idx, ID: ContainerID(idx), HTML: c.html})
	}
	return nil
}

func (m *Manager) renderInto(ctx context.Context, patch *Patch, c *container) error {
	res, err := m.renderer.Render(ctx, c.chunk.Text, c.chunk.StartLine)
	if err != nil {
		return fmt.Errorf("render chunk at line %d: %w", c.chunk.StartLine, err)
	}
	c.html = res.HTML
	c.rendered = true
	patch.Failures = append(patch.Failures, res.Failures...)
	return nil
}

// placeholder stands in for an unrendered chunk. It is tagged with the
// chunk's first line and sized by its line count so scrolling stays sane.
func placeholder(ch Chunk) string {
	return fmt.Sprintf("<div class=\"chunk-placeholder\" data-line=\"%d\" style=\"min-height:%dem\">%s</div>\n",
		ch.StartLine, ch.Lines(), html.EscapeString(firstLine(ch.Text)))
}

var dataLinePattern = regexp.MustCompile(`data-line="(\d+)"`)

// shiftLines adds delta to every data-line attribute in fragment.
func shiftLines(fragment string, delta int) string {
	return dataLinePattern.ReplaceAllStringFunc(fragment, func(attr string) string {
		n, err := strconv.Atoi(dataLinePattern.FindStringSubmatch(attr)[1])
		if err != nil {
			return attr
		}
		return `data-line="` + strconv.Itoa(n+delta) + `"`
	})
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
