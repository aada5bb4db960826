package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleExecutedOnce(t *testing.T) {
	m := NewModule("app", "app.own", &CompiledCode{}, NewConstantCache())

	require.True(t, m.MarkExecuted(), "first load runs the initializer")
	require.True(t, m.Executed())
	require.False(t, m.MarkExecuted(), "second load must not re-run it")
}

func TestConstantCacheDedupes(t *testing.T) {
	c := NewConstantCache()
	a := c.Int(42)
	b := c.Int(42)
	require.Equal(t, a, b)
	require.Equal(t, int64(42), c.IntAt(a))
}

func TestCatchTableCovers(t *testing.T) {
	code := &CompiledCode{
		CatchTable: []CatchEntry{{Start: 5, End: 10, JumpTo: 20, Register: 1}},
	}
	_, ok := code.HandlerFor(7)
	require.True(t, ok)
	_, ok = code.HandlerFor(11)
	require.False(t, ok)
}
