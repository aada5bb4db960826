// Package format renders parsed source files back to text through the
// pretty printer in internal/pp: phase 1 builds the document tree from
// the AST, phase 2 lays it out within the 80-grapheme budget. Output
// is deterministic; formatting a formatted file is a no-op.
package format

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/lexer"
	"github.com/sunholo/ailang/internal/parser"
	"github.com/sunholo/ailang/internal/pp"
)

// Source parses src and renders the formatted text. Parse errors abort
// formatting: a formatter must never rewrite a file it cannot fully
// understand.
func Source(filename, src string) (string, error) {
	p := parser.New(lexer.New(src, filename))
	file := p.ParseFile()
	if errs := p.Errors(); len(errs) > 0 {
		return "", fmt.Errorf("%s: %w", filename, errs[0])
	}
	return File(file), nil
}

// File renders an already parsed file.
func File(f *ast.File) string {
	b := newBuilder()
	doc := b.file(f)
	out := pp.Render(doc, pp.Budget)
	out = strings.TrimRight(out, "\n") + "\n"
	return out
}

// Paths rewrites each named file in place, reporting the first error.
func Paths(paths []string) error {
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		formatted, err := Source(path, string(src))
		if err != nil {
			return err
		}
		if formatted == string(src) {
			continue
		}
		if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
			return err
		}
	}
	return nil
}

// Stdin formats one source file read from r and writes the result to w.
func Stdin(r io.Reader, w io.Writer) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	formatted, err := Source("<stdin>", string(src))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, formatted)
	return err
}

// itemKind classifies a top-level item for the blank-line rules.
func itemKind(n ast.Node) pp.ItemKind {
	switch n.(type) {
	case *ast.Let, *ast.LetRec:
		return pp.ItemLet
	case *ast.If:
		return pp.ItemConditional
	default:
		return pp.ItemOther
	}
}
