package pp

import "strings"

// WrapMode governs how a subtree's line-breaking nodes render.
type WrapMode int

const (
	Detect WrapMode = iota // decide per-Group, based on fit
	Enable                 // render line-breaking nodes as newlines unconditionally
	Force                  // like Enable, but propagates into nested Groups too
	Disable                // never break (inside Unwrapped)
)

// Generator runs phase 2: a single pass over the document tree that
// decides, group by group, whether it fits on the current line.
type Generator struct {
	out     strings.Builder
	column  int
	indent  int
	wrapped map[GroupID]bool
}

func NewGenerator() *Generator {
	return &Generator{wrapped: make(map[GroupID]bool)}
}

// Render lays out d and returns the resulting text. Budget is the fixed
// 80-grapheme column limit (pp.Budget); exposed as a parameter only for
// testing narrower budgets.
func Render(d Doc, budget int) string {
	g := NewGenerator()
	g.render(d, Detect, budget)
	return g.out.String()
}

func (g *Generator) writeString(s string, width int) {
	g.out.WriteString(s)
	g.column += width
}

func (g *Generator) newline() {
	g.out.WriteByte('\n')
	// The new line starts at the current indentation; text already
	// written is left as it is.
	g.column = 0
	g.writeIndent()
}

func (g *Generator) writeIndent() {
	for i := 0; i < g.indent; i++ {
		g.out.WriteByte(' ')
	}
	g.column = g.indent
}

func (g *Generator) render(d Doc, mode WrapMode, budget int) {
	switch n := d.(type) {
	case Text:
		w := textWidth(n.S, budget)
		g.writeString(n.S, w)

	case Unicode:
		g.writeString(n.S, n.Width)

	case SpaceOrLine:
		if mode == Enable || mode == Force {
			g.newline()
		} else {
			g.writeString(" ", 1)
		}

	case Line:
		if mode == Enable || mode == Force {
			g.newline()
		} else {
			g.writeString(" ", 1)
		}

	case HardLine:
		g.newline()

	case EmptyLine:
		g.out.WriteByte('\n')
		g.column = 0

	case WrapParent:
		// Marker only; carries no width and renders nothing itself.

	case Nodes:
		for _, c := range n.Children {
			g.render(c, mode, budget)
		}

	case Group:
		childMode := mode
		if mode == Detect || mode == Enable {
			w := measureWidth(Nodes{Children: n.Children}, budget)
			if g.column+w > budget {
				g.wrapped[n.ID] = true
				childMode = Enable
			} else {
				g.wrapped[n.ID] = false
				childMode = Disable
			}
		} else if mode == Force {
			g.wrapped[n.ID] = true
		}
		for _, c := range n.Children {
			g.render(c, childMode, budget)
		}

	case Fill:
		g.renderFill(n.Children, mode, budget)

	case IfWrap:
		if g.wrapped[n.GroupID] {
			g.render(n.WrapAlt, mode, budget)
		} else {
			g.render(n.FlatAlt, mode, budget)
		}

	case WrapIf:
		childMode := mode
		if g.wrapped[n.GroupID] {
			childMode = Force
		}
		g.render(n.Inner, childMode, budget)

	case Indent:
		// The extra level is always pushed; it only becomes visible
		// when a line break actually fires inside (SpaceOrLine under a
		// wrapped group, or a HardLine).
		g.indent += IndentWidth
		for _, c := range n.Children {
			g.render(c, mode, budget)
		}
		g.indent -= IndentWidth

	case IndentNext:
		// Renders exactly like Indent: the push only affects breaks
		// fired by children, never text already on the current line.
		prevIndent := g.indent
		g.indent += IndentWidth
		for _, c := range n.Children {
			g.render(c, mode, budget)
		}
		g.indent = prevIndent

	case ZeroWidth:
		g.render(n.N, mode, budget)

	case Unwrapped:
		g.render(n.N, Disable, budget)

	case Call:
		childMode := mode
		if mode == Detect {
			headMidWidth := measureWidth(n.Head, budget) + measureWidth(n.Mid, budget)
			if g.column+headMidWidth > budget {
				g.wrapped[n.ID] = true
				childMode = Enable
			} else {
				g.wrapped[n.ID] = false
				childMode = Disable
			}
		}
		g.render(n.Head, childMode, budget)
		g.render(n.Mid, childMode, budget)
		if n.Tail != nil {
			g.render(n.Tail, childMode, budget)
		}
	}
}

// renderFill implements the greedy fill rule: at each separator, if the
// *next* element would exceed the budget, emit a newline; otherwise a
// space.
func (g *Generator) renderFill(children []Doc, mode WrapMode, budget int) {
	for i, c := range children {
		if sep, ok := isSeparator(c); ok {
			next := children[i+1]
			w := measureWidth(next, budget)
			if g.column+1+w > budget {
				g.newline()
			} else {
				g.render(sep, Disable, budget)
			}
			continue
		}
		g.render(c, mode, budget)
	}
}

func isSeparator(d Doc) (Doc, bool) {
	switch d.(type) {
	case SpaceOrLine, Line:
		return d, true
	}
	return nil, false
}

func textWidth(s string, budget int) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return budget + 1 // saturate so the group always wraps
		}
	}
	return len(s)
}
