package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Markdown renders assistant replies. The renderer is rebuilt only when the
// wrap width changes. A nil *Markdown returns text unchanged.
type Markdown struct {
	mu    sync.Mutex
	width int
	r     *glamour.TermRenderer
	style string
}

// NewMarkdown creates a renderer wrapping at width columns.
func NewMarkdown(width int) *Markdown {
	return &Markdown{width: width}
}

// NewPlainMarkdown creates a renderer that never emits color, for tests and
// dumb terminals.
func NewPlainMarkdown(width int) *Markdown {
	return &Markdown{width: width, style: "notty"}
}

// SetWidth changes the wrap width.
func (m *Markdown) SetWidth(width int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if width != m.width {
		m.width = width
		m.r = nil
	}
}

// Render returns text rendered as markdown, or text itself when rendering
// fails.
func (m *Markdown) Render(text string) string {
	if m == nil {
		return text
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.r == nil {
		width := m.width
		if width < 20 {
			width = 20
		}
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
		if m.style != "" {
			opts = append(opts, glamour.WithStandardStyle(m.style))
		} else {
			opts = append(opts, glamour.WithAutoStyle())
		}
		r, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return text
		}
		m.r = r
	}

	out, err := m.r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
