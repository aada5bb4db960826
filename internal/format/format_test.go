package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/ailang/internal/pp"
	"github.com/sunholo/ailang/testutil"
)

const sample = `module demo

import std/c (cee)
import std/b (bee)
import std/a (zeta, self, alpha)

export func add(x: int,    y: int) -> int { x + y }

func compare(x: int) -> bool {
  if x > 1 then true else false
}

func classify(x: int) -> int {
  match x { 0 => 0, _ => 1 }
}
`

func TestFormatIdempotent(t *testing.T) {
	once, err := Source("sample.ail", sample)
	require.NoError(t, err)
	twice, err := Source("sample.ail", once)
	require.NoError(t, err)
	require.Equal(t, once, twice, "format(format(src)) must equal format(src)")
}

func TestFormatImportOrdering(t *testing.T) {
	out, err := Source("sample.ail", sample)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	var importLines []string
	for _, l := range lines {
		if strings.HasPrefix(l, "import ") {
			importLines = append(importLines, l)
		}
	}
	require.Equal(t, []string{
		"import std/a (self, alpha, zeta)",
		"import std/b (bee)",
		"import std/c (cee)",
	}, importLines)
}

func TestFormatLineWidth(t *testing.T) {
	out, err := Source("sample.ail", sample)
	require.NoError(t, err)
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, " ") || len(line) <= pp.Budget {
			// Multi-token lines must fit; a lone over-long token is the
			// only exception the budget allows.
			require.LessOrEqual(t, pp.GraphemeWidth(line), pp.Budget, "line %q exceeds the budget", line)
		}
	}
}

func TestFormatFuncBodyLayout(t *testing.T) {
	out, err := Source("sample.ail", sample)
	require.NoError(t, err)
	require.Contains(t, out, "export func add(x: int, y: int) -> int {\n  x + y\n}")
}

func TestFormatBlankLineCompression(t *testing.T) {
	src := "module demo\n\nfunc a() -> int { 1 }\n\n\n\n\nfunc b() -> int { 2 }\n"
	out, err := Source("gap.ail", src)
	require.NoError(t, err)
	require.NotContains(t, out, "\n\n\n", "runs of blank lines must compress to one")
	require.Contains(t, out, "}\n\nfunc b", "one blank line must survive between items")
}

func TestFormatStdinToStdout(t *testing.T) {
	var out bytes.Buffer
	err := Stdin(strings.NewReader(sample), &out)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out.String(), "module demo\n"))
}

func TestFormatRejectsBrokenSource(t *testing.T) {
	_, err := Source("broken.ail", "func ( { nope")
	require.Error(t, err)
}

func TestFormatGolden(t *testing.T) {
	out, err := Source("sample.ail", sample)
	require.NoError(t, err)
	testutil.CompareWithGolden(t, "format", "sample", out)
}
