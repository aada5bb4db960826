package pp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupFitsOnOneLine(t *testing.T) {
	g := Group{ID: 1, Children: []Doc{
		Text{"foo("}, Text{"a"}, SpaceOrLine{}, Text{"b"}, Text{")"},
	}}
	out := Render(g, Budget)
	require.Equal(t, "foo(a b)", out)
}

func TestGroupWrapsWhenTooWide(t *testing.T) {
	long := strings.Repeat("x", 90)
	g := Group{ID: 1, Children: []Doc{
		Text{"foo("}, Indent{Children: []Doc{SpaceOrLine{}, Text{long}}}, SpaceOrLine{}, Text{")"},
	}}
	out := Render(g, Budget)
	require.Contains(t, out, "\n")
	lines := strings.Split(out, "\n")
	for _, l := range lines {
		if l == "  "+long {
			continue // the one line allowed to exceed budget: a single long token
		}
		require.LessOrEqual(t, len(l), Budget)
	}
}

func TestIdempotence(t *testing.T) {
	g := Group{ID: 1, Children: []Doc{
		Text{"let"}, SpaceOrLine{}, Text{"x"}, SpaceOrLine{}, Text{"="}, SpaceOrLine{}, Text{"1"},
	}}
	out1 := Render(g, Budget)
	out2 := Render(g, Budget)
	require.Equal(t, out1, out2)
}

func TestFillGreedyWrap(t *testing.T) {
	f := Fill{Children: []Doc{
		Text{"aaaaaaaaaa"}, SpaceOrLine{},
		Text{"bbbbbbbbbb"}, SpaceOrLine{},
		Text{"cccccccccc"},
	}}
	out := Render(f, 15)
	require.Equal(t, "aaaaaaaaaa\nbbbbbbbbbb\ncccccccccc", out)
}

func TestImportSorting(t *testing.T) {
	got := SortImports([]string{"std.b", "std.a", "std.c"})
	require.Equal(t, []string{"std.a", "std.b", "std.c"}, got)
}

func TestImportSymbolSelfFirst(t *testing.T) {
	got := SortImportSymbols([]string{"zeta", "self", "alpha"})
	require.Equal(t, []string{"self", "alpha", "zeta"}, got)
}

func TestQuoteStringPrefersSingle(t *testing.T) {
	require.Equal(t, "'hello'", QuoteString("hello"))
	require.Equal(t, `"it's"`, QuoteString("it's"))
	require.Equal(t, `'a\nb'`, QuoteString("a\nb"))
}
