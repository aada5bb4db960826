package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/pp"
)

// builder turns AST nodes into pp documents, handing out unique group
// ids as it goes.
type builder struct {
	nextGroup pp.GroupID
}

func newBuilder() *builder { return &builder{} }

func (b *builder) group(children ...pp.Doc) pp.Doc {
	b.nextGroup++
	return pp.Group{ID: b.nextGroup, Children: children}
}

func (b *builder) call(head, mid, tail pp.Doc) pp.Doc {
	b.nextGroup++
	return pp.Call{ID: b.nextGroup, Head: head, Mid: mid, Tail: tail}
}

func text(s string) pp.Doc      { return pp.Text{S: s} }
func nodes(ds ...pp.Doc) pp.Doc { return pp.Nodes{Children: ds} }

// file lays out a whole source file: module declaration first, then
// the import block sorted by path, then the top-level items with the
// blank-line rules applied.
func (b *builder) file(f *ast.File) pp.Doc {
	var docs []pp.Doc
	wroteAny := false

	if f.Module != nil {
		docs = append(docs, text("module "+f.Module.Path))
		wroteAny = true
	}

	if len(f.Imports) > 0 {
		if wroteAny {
			docs = append(docs, pp.EmptyLine{}, pp.HardLine{})
		}
		docs = append(docs, b.imports(f.Imports))
		wroteAny = true
	}

	items := topLevelItems(f)
	prevKind := pp.ItemOther
	prevEnd := 0
	for i, item := range items {
		kind := itemKind(item)
		if wroteAny {
			blanks := 1
			if i > 0 {
				// A gap of two or more source lines compresses to one
				// blank line; adjacent items stay adjacent, except that
				// conditionals are always set off by a blank line.
				blanks = pp.CompressBlankLines(item.Position().Line - prevEnd - 1)
				if prevKind == pp.ItemConditional || kind == pp.ItemConditional {
					blanks = 1
				}
			}
			if blanks > 0 {
				docs = append(docs, pp.EmptyLine{}, pp.HardLine{})
			} else {
				docs = append(docs, pp.HardLine{})
			}
		}
		docs = append(docs, b.topLevel(item))
		prevKind = kind
		prevEnd = endLine(item)
		wroteAny = true
	}

	return nodes(docs...)
}

// endLine approximates where an item's text ends: function
// declarations carry an exact span, everything else is assumed to fit
// on its starting line.
func endLine(n ast.Node) int {
	if fn, ok := n.(*ast.FuncDecl); ok && fn.Span.End.Line > 0 {
		return fn.Span.End.Line
	}
	return n.Position().Line
}

// topLevelItems merges the file's declaration lists back into source
// order.
func topLevelItems(f *ast.File) []ast.Node {
	var items []ast.Node
	items = append(items, f.Decls...)
	for _, fn := range f.Funcs {
		items = append(items, fn)
	}
	items = append(items, f.Statements...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position().Line < items[j].Position().Line
	})
	return items
}

// imports renders the import block: paths sorted alphabetically, the
// symbol list of each import sorted with self first.
func (b *builder) imports(imports []*ast.ImportDecl) pp.Doc {
	sorted := append([]*ast.ImportDecl(nil), imports...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	var docs []pp.Doc
	for i, imp := range sorted {
		if i > 0 {
			docs = append(docs, pp.HardLine{})
		}
		line := "import " + imp.Path
		if len(imp.Symbols) > 0 {
			symbols := pp.SortImportSymbols(imp.Symbols)
			line += " (" + strings.Join(symbols, ", ") + ")"
		}
		docs = append(docs, text(line))
	}
	return nodes(docs...)
}

func (b *builder) topLevel(n ast.Node) pp.Doc {
	switch item := n.(type) {
	case *ast.FuncDecl:
		return b.funcDecl(item)
	case ast.Expr:
		return b.expr(item)
	default:
		// Unknown declarations round-trip through their own renderer.
		return text(n.String())
	}
}

func (b *builder) funcDecl(fn *ast.FuncDecl) pp.Doc {
	var sig strings.Builder
	if fn.IsExport {
		sig.WriteString("export ")
	}
	if fn.IsPure {
		sig.WriteString("pure ")
	}
	sig.WriteString("func ")
	sig.WriteString(fn.Name)
	if len(fn.TypeParams) > 0 {
		sig.WriteString("[" + strings.Join(fn.TypeParams, ", ") + "]")
	}

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		if p.Type != nil {
			params[i] = p.Name + ": " + typeText(p.Type)
		} else {
			params[i] = p.Name
		}
	}
	sig.WriteString("(" + strings.Join(params, ", ") + ")")

	if fn.ReturnType != nil {
		sig.WriteString(" -> " + typeText(fn.ReturnType))
	}
	if len(fn.Effects) > 0 {
		sig.WriteString(" ! {" + strings.Join(fn.Effects, ", ") + "}")
	}

	body := b.blockBody(fn.Body)
	return nodes(text(sig.String()+" {"), pp.Indent{Children: []pp.Doc{pp.HardLine{}, body}}, pp.HardLine{}, text("}"))
}

// blockBody renders a function body: a Block's expressions one per
// line with the let-run spacing rules, any other expression as-is.
func (b *builder) blockBody(e ast.Expr) pp.Doc {
	block, ok := e.(*ast.Block)
	if !ok {
		return b.expr(e)
	}
	var docs []pp.Doc
	prevKind := pp.ItemOther
	for i, inner := range block.Exprs {
		kind := itemKind(inner)
		if i > 0 {
			if pp.NeedsBlankLineBetween(prevKind, kind) {
				docs = append(docs, text(";"), pp.EmptyLine{}, pp.HardLine{})
			} else {
				docs = append(docs, text(";"), pp.HardLine{})
			}
		}
		docs = append(docs, b.expr(inner))
		prevKind = kind
	}
	return nodes(docs...)
}

func (b *builder) expr(e ast.Expr) pp.Doc {
	switch n := e.(type) {
	case *ast.Identifier:
		return text(n.Name)

	case *ast.Literal:
		return text(literalText(n))

	case *ast.BinaryOp:
		return b.group(b.expr(n.Left), text(" "+n.Op), pp.IndentNext{Children: []pp.Doc{pp.SpaceOrLine{}, b.expr(n.Right)}})

	case *ast.UnaryOp:
		if isWordOp(n.Op) {
			return nodes(text(n.Op+" "), b.expr(n.Expr))
		}
		return nodes(text(n.Op), b.expr(n.Expr))

	case *ast.FuncCall:
		return b.funcCall(n)

	case *ast.Let:
		return b.letDoc("let", n.Name, n.Type, n.Value, n.Body)

	case *ast.LetRec:
		return b.letDoc("letrec", n.Name, n.Type, n.Value, n.Body)

	case *ast.If:
		return b.group(
			text("if "), b.expr(n.Condition),
			text(" then"), pp.IndentNext{Children: []pp.Doc{pp.SpaceOrLine{}, b.expr(n.Then)}},
			text(" else"), pp.IndentNext{Children: []pp.Doc{pp.SpaceOrLine{}, b.expr(n.Else)}},
		)

	case *ast.Match:
		return b.match(n)

	case *ast.Lambda:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Name
		}
		return nodes(text("\\"+strings.Join(params, " ")+". "), b.expr(n.Body))

	case *ast.FuncLit:
		return b.funcLit(n)

	case *ast.Block:
		return b.inlineBlock(n)

	case *ast.List:
		return b.elements("[", "]", exprDocs(b, n.Elements))

	case *ast.Tuple:
		return b.elements("(", ")", exprDocs(b, n.Elements))

	case *ast.Record:
		return b.record(n.Fields, nil)

	case *ast.RecordUpdate:
		return b.record(n.Fields, n.Base)

	case *ast.RecordAccess:
		return nodes(b.expr(n.Record), text("."+n.Field))

	case *ast.Send:
		return nodes(b.expr(n.Channel), text(" <- "), b.expr(n.Value))

	case *ast.Recv:
		return nodes(text("<- "), b.expr(n.Channel))

	case *ast.QuasiQuote:
		return text(fmt.Sprintf("%s\"\"\"%s\"\"\"", n.Kind, n.Template))

	default:
		return text(e.String())
	}
}

func exprDocs(b *builder, exprs []ast.Expr) []pp.Doc {
	docs := make([]pp.Doc, len(exprs))
	for i, e := range exprs {
		docs[i] = b.expr(e)
	}
	return docs
}

// elements renders a bracketed, comma-separated sequence that wraps as
// a greedy fill.
func (b *builder) elements(open, close string, items []pp.Doc) pp.Doc {
	if len(items) == 0 {
		return text(open + close)
	}
	var fill []pp.Doc
	for i, item := range items {
		if i > 0 {
			fill = append(fill, text(","), pp.SpaceOrLine{})
		}
		fill = append(fill, item)
	}
	return b.group(text(open), pp.IndentNext{Children: []pp.Doc{pp.Fill{Children: fill}}}, text(close))
}

func (b *builder) funcCall(n *ast.FuncCall) pp.Doc {
	args := b.elements("(", ")", exprDocs(b, n.Args))

	// recv.a.b(args): the wrap decision weighs the receiver chain and
	// the final selector, ignoring the argument list.
	if access, ok := n.Func.(*ast.RecordAccess); ok {
		head := b.expr(access.Record)
		return b.call(head, text("."+access.Field), args)
	}
	return nodes(b.expr(n.Func), args)
}

func (b *builder) letDoc(keyword, name string, typ ast.Type, value, body ast.Expr) pp.Doc {
	head := keyword + " " + name
	if typ != nil {
		head += ": " + typeText(typ)
	}
	head += " ="
	docs := []pp.Doc{text(head), pp.IndentNext{Children: []pp.Doc{pp.SpaceOrLine{}, b.expr(value)}}}
	if body != nil {
		docs = append(docs, text(" in"), pp.IndentNext{Children: []pp.Doc{pp.SpaceOrLine{}, b.expr(body)}})
	}
	return b.group(docs...)
}

func (b *builder) match(n *ast.Match) pp.Doc {
	var cases []pp.Doc
	for i, c := range n.Cases {
		if i > 0 {
			cases = append(cases, text(","), pp.HardLine{})
		}
		caseDoc := []pp.Doc{text(patternText(c.Pattern))}
		if c.Guard != nil {
			caseDoc = append(caseDoc, text(" if "), b.expr(c.Guard))
		}
		caseDoc = append(caseDoc, text(" => "), b.expr(c.Body))
		cases = append(cases, nodes(caseDoc...))
	}
	return nodes(
		text("match "), b.expr(n.Expr), text(" {"),
		pp.Indent{Children: append([]pp.Doc{pp.HardLine{}}, cases...)},
		pp.HardLine{}, text("}"),
	)
}

func (b *builder) funcLit(n *ast.FuncLit) pp.Doc {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		if p.Type != nil {
			params[i] = p.Name + ": " + typeText(p.Type)
		} else {
			params[i] = p.Name
		}
	}
	head := "func(" + strings.Join(params, ", ") + ")"
	if n.ReturnType != nil {
		head += " -> " + typeText(n.ReturnType)
	}
	if len(n.Effects) > 0 {
		head += " ! {" + strings.Join(n.Effects, ", ") + "}"
	}
	return nodes(text(head+" { "), b.expr(n.Body), text(" }"))
}

func (b *builder) inlineBlock(n *ast.Block) pp.Doc {
	var docs []pp.Doc
	docs = append(docs, text("{ "))
	for i, e := range n.Exprs {
		if i > 0 {
			docs = append(docs, text("; "))
		}
		docs = append(docs, b.expr(e))
	}
	docs = append(docs, text(" }"))
	return nodes(docs...)
}

func (b *builder) record(fields []*ast.Field, base ast.Expr) pp.Doc {
	var items []pp.Doc
	for _, f := range fields {
		items = append(items, nodes(text(f.Name+": "), b.expr(f.Value)))
	}
	if base != nil {
		return b.group(text("{ "), b.expr(base), text(" | "), pp.Fill{Children: joinDocs(items)}, text(" }"))
	}
	if len(items) == 0 {
		return text("{}")
	}
	return b.group(text("{ "), pp.Fill{Children: joinDocs(items)}, text(" }"))
}

func joinDocs(items []pp.Doc) []pp.Doc {
	var out []pp.Doc
	for i, item := range items {
		if i > 0 {
			out = append(out, text(","), pp.SpaceOrLine{})
		}
		out = append(out, item)
	}
	return out
}

// literalText renders a literal the way the lexer accepts it back:
// double-quoted strings with the standard escapes.
func literalText(n *ast.Literal) string {
	switch n.Kind {
	case ast.StringLit:
		if s, ok := n.Value.(string); ok {
			return quoteDouble(s)
		}
	case ast.UnitLit:
		return "()"
	case ast.BoolLit:
		if v, ok := n.Value.(bool); ok {
			if v {
				return "true"
			}
			return "false"
		}
	}
	return fmt.Sprintf("%v", n.Value)
}

func quoteDouble(s string) string {
	var out strings.Builder
	out.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\t':
			out.WriteString(`\t`)
		case '\r':
			out.WriteString(`\r`)
		case '\n':
			out.WriteString(`\n`)
		case '\\':
			out.WriteString(`\\`)
		case '"':
			out.WriteString(`\"`)
		default:
			out.WriteRune(r)
		}
	}
	out.WriteByte('"')
	return out.String()
}

func isWordOp(op string) bool {
	for _, r := range op {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(op) > 0
}

// typeText renders type annotations; types never wrap on their own.
func typeText(t ast.Type) string {
	switch n := t.(type) {
	case *ast.SimpleType:
		return n.Name
	case *ast.TypeVar:
		return n.Name
	case *ast.ListType:
		return "[" + typeText(n.Element) + "]"
	case *ast.TupleType:
		parts := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = typeText(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.FuncType:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = typeText(p)
		}
		out := "(" + strings.Join(params, ", ") + ") -> " + typeText(n.Return)
		if len(n.Effects) > 0 {
			out += " ! {" + strings.Join(n.Effects, ", ") + "}"
		}
		return out
	case *ast.RecordType:
		parts := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			parts[i] = f.Name + ": " + typeText(f.Type)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return t.String()
	}
}

// patternText renders match patterns; string-literal patterns reuse
// the literal quoting rules.
func patternText(p ast.Pattern) string {
	switch n := p.(type) {
	case *ast.WildcardPattern:
		return "_"
	case *ast.Identifier:
		return n.Name
	case *ast.Literal:
		return literalText(n)
	case *ast.TuplePattern:
		parts := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = patternText(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.ListPattern:
		parts := make([]string, 0, len(n.Elements)+1)
		for _, el := range n.Elements {
			parts = append(parts, patternText(el))
		}
		if n.Rest != nil {
			parts = append(parts, "..."+patternText(n.Rest))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.ConsPattern:
		return "[" + patternText(n.Head) + ", ..." + patternText(n.Tail) + "]"
	case *ast.ConstructorPattern:
		if len(n.Patterns) == 0 {
			return n.Name
		}
		parts := make([]string, len(n.Patterns))
		for i, sub := range n.Patterns {
			parts[i] = patternText(sub)
		}
		return n.Name + "(" + strings.Join(parts, ", ") + ")"
	case *ast.RecordPattern:
		parts := make([]string, 0, len(n.Fields)+1)
		for _, f := range n.Fields {
			parts = append(parts, f.Name+": "+patternText(f.Pattern))
		}
		if n.Rest {
			parts = append(parts, "...")
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return p.String()
	}
}
