// Package pp implements a two-phase Wadler/Prettier-style pretty
// printer: phase 1 builds a document tree, phase 2 lays
// it out within an 80-grapheme column budget.
package pp

// Doc is a node in the document tree built during phase 1.
type Doc interface {
	isDoc()
}

type GroupID int

// Text is a literal string whose width is its byte length, unless it
// contains a newline (then it saturates to the column budget: a
// multi-line literal always forces a wrap of its enclosing group).
type Text struct{ S string }

// Unicode carries a pre-computed grapheme width, supplied by the
// lexer/AST layer, instead of making the layout engine
// recompute grapheme segmentation on every fit check.
type Unicode struct {
	S     string
	Width int
}

type SpaceOrLine struct{}
type Line struct{}
type HardLine struct{}
type EmptyLine struct{}
type WrapParent struct{}

// Nodes is transparent grouping: it does not itself introduce a
// fit-or-wrap decision, it just sequences children.
type Nodes struct{ Children []Doc }

// Group is one atomic fit-or-wrap decision: either every SpaceOrLine
// inside becomes a space (flat) or every one becomes a newline (wrapped).
type Group struct {
	ID       GroupID
	Children []Doc
}

// Fill wraps its elements greedily, element by element, rather than
// all-or-nothing like Group.
type Fill struct{ Children []Doc }

// IfWrap renders WrapAlt if the referenced group wrapped, FlatAlt
// otherwise.
type IfWrap struct {
	GroupID  GroupID
	WrapAlt  Doc
	FlatAlt  Doc
}

// WrapIf forces Inner to wrap if the referenced group wrapped.
type WrapIf struct {
	GroupID GroupID
	Inner   Doc
}

// Indent adds two spaces to every line started by a break inside its
// children; the current line is not re-indented.
type Indent struct{ Children []Doc }

// IndentNext renders the same as Indent: two extra spaces on lines
// started inside its children, none on the current line. The layout
// engine makes no distinction between the two.
type IndentNext struct{ Children []Doc }

// ZeroWidth discounts N's width in ancestor fit computations, used for
// markers that render something but shouldn't count against the budget.
type ZeroWidth struct{ N Doc }

// Unwrapped vetoes wrapping anywhere within its subtree.
type Unwrapped struct{ N Doc }

// Call is the specialised `recv.a.b.c(args)` node: the decision to wrap
// depends on the combined width of Head+Mid, ignoring Tail for that
// test.
type Call struct {
	ID   GroupID
	Head Doc
	Mid  Doc
	Tail Doc // optional; nil if absent
}

func (Text) isDoc()        {}
func (Unicode) isDoc()     {}
func (SpaceOrLine) isDoc() {}
func (Line) isDoc()        {}
func (HardLine) isDoc()    {}
func (EmptyLine) isDoc()   {}
func (WrapParent) isDoc()  {}
func (Nodes) isDoc()       {}
func (Group) isDoc()       {}
func (Fill) isDoc()        {}
func (IfWrap) isDoc()      {}
func (WrapIf) isDoc()      {}
func (Indent) isDoc()      {}
func (IndentNext) isDoc()  {}
func (ZeroWidth) isDoc()   {}
func (Unwrapped) isDoc()   {}
func (Call) isDoc()        {}

// Budget is the fixed column width a line may not exceed.
const Budget = 80

// IndentWidth is the number of spaces one indent level adds.
const IndentWidth = 2
