package dtree

import (
	"fmt"
	"sort"
	"strings"
)

// term records one constructor test taken on the way down: which
// variable was switched on, the constructor's display name, and the
// sub-term variables that case bound. The stack of terms at a Fail node
// is enough to rebuild the whole missing pattern, since every arg var
// that was itself tested appears deeper in the same stack.
type term struct {
	v    Var
	name string
	args []Var
}

// MissingPatterns performs the depth-first walk that recovers the
// missing patterns: each case pushes a term onto a stack; at Fail nodes
// the root term is rendered (recursively, through the stack) and
// recorded. The result is returned sorted.
func MissingPatterns(tree Decision) []string {
	set := make(map[string]bool)
	walkMissing(tree, nil, set)
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func walkMissing(d Decision, stack []term, set map[string]bool) {
	switch n := d.(type) {
	case Fail:
		set[renderStack(stack)] = true
	case Success:
		// reached, nothing missing on this path
	case Guard:
		walkMissing(n.Fallback, stack, set)
	case Switch:
		for _, c := range n.Cases {
			walkMissing(c.Tree, append(stack, term{v: n.Var, name: c.Ctor.String(), args: c.Args}), set)
		}
		if n.Fallback != nil {
			walkMissing(n.Fallback, append(stack, term{v: n.Var, name: "_"}), set)
		}
	case SwitchArray:
		for _, c := range n.Cases {
			walkMissing(c.Tree, append(stack, term{v: n.Var, name: fmt.Sprintf("[len=%d]", c.Length), args: c.Elems}), set)
		}
		walkMissing(n.Fallback, append(stack, term{v: n.Var, name: "_"}), set)
	}
}

// renderStack rebuilds the root term's name from the stack: the first
// term is the test on the scrutinee itself, and each of its arg vars
// resolves to the deepest term that tested that var (or "_" when the
// path never constrained it).
func renderStack(stack []term) string {
	if len(stack) == 0 {
		return "_"
	}
	byVar := make(map[int]term, len(stack))
	for _, t := range stack {
		byVar[t.v.ID] = t
	}
	var render func(t term) string
	render = func(t term) string {
		if len(t.args) == 0 {
			return t.name
		}
		parts := make([]string, len(t.args))
		for i, a := range t.args {
			if child, ok := byVar[a.ID]; ok {
				parts[i] = render(child)
			} else {
				parts[i] = "_"
			}
		}
		return fmt.Sprintf("%s(%s)", t.name, strings.Join(parts, ", "))
	}
	return render(stack[0])
}

// containsFail reports whether tree contains any reachable Fail node,
// i.e. whether the match is non-exhaustive. The enum specializer shares
// one subtree between the first-unvisited-variant's case and the
// switch's overall fallback; walking both is harmless (just redundant),
// since this is a pure reachability query, not a mutation.
func containsFail(d Decision) bool {
	switch n := d.(type) {
	case Fail:
		return true
	case Success:
		return false
	case Guard:
		return containsFail(n.Fallback)
	case Switch:
		for _, c := range n.Cases {
			if containsFail(c.Tree) {
				return true
			}
		}
		if n.Fallback != nil && containsFail(n.Fallback) {
			return true
		}
		return false
	case SwitchArray:
		for _, c := range n.Cases {
			if containsFail(c.Tree) {
				return true
			}
		}
		return containsFail(n.Fallback)
	}
	return false
}
