package pp

// measureWidth computes a node's flat (unwrapped) width for the fit
// test a Group/Call performs on entry: a Text contributes
// its byte length unless it contains a newline, a Unicode contributes
// its pre-computed grapheme count, most separators contribute 1, and a
// Call sums head+mid+tail widths.
func measureWidth(d Doc, budget int) int {
	switch n := d.(type) {
	case Text:
		return textWidth(n.S, budget)
	case Unicode:
		return n.Width
	case SpaceOrLine, Line:
		return 1
	case HardLine, EmptyLine, WrapParent:
		return budget + 1 // a hard break always saturates the enclosing group's fit test
	case Nodes:
		total := 0
		for _, c := range n.Children {
			total += measureWidth(c, budget)
			if total > budget {
				return total
			}
		}
		return total
	case Group:
		total := 0
		for _, c := range n.Children {
			total += measureWidth(c, budget)
		}
		return total
	case Fill:
		total := 0
		for _, c := range n.Children {
			total += measureWidth(c, budget)
		}
		return total
	case IfWrap:
		// Conservatively measure the flat alternative; the wrapped
		// alternative is only selected once the surrounding group's own
		// decision is already known.
		return measureWidth(n.FlatAlt, budget)
	case WrapIf:
		return measureWidth(n.Inner, budget)
	case Indent:
		total := 0
		for _, c := range n.Children {
			total += measureWidth(c, budget)
		}
		return total
	case IndentNext:
		total := 0
		for _, c := range n.Children {
			total += measureWidth(c, budget)
		}
		return total
	case ZeroWidth:
		return 0
	case Unwrapped:
		return measureWidth(n.N, budget)
	case Call:
		total := measureWidth(n.Head, budget) + measureWidth(n.Mid, budget)
		if n.Tail != nil {
			total += measureWidth(n.Tail, budget)
		}
		return total
	}
	return 0
}
