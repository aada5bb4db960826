package dtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type staticOracle struct {
	kind     VarKind
	arity    int
	variants []VariantInfo
}

func (o staticOracle) KindOf(v Var) VarKind         { return o.kind }
func (o staticOracle) Arity(v Var) int              { return o.arity }
func (o staticOracle) Variants(v Var) []VariantInfo { return o.variants }
func (o staticOracle) FieldName(v Var, i int) string { return "_" }

func boolRow(value bool, block interface{}) Row {
	ctor := Ctor{Kind: CtorFalse}
	if value {
		ctor = Ctor{Kind: CtorTrue}
	}
	return Row{
		Columns: []Column{{Var: Var{ID: 0}, Pattern: PConstructor{Ctor: ctor}}},
		Body:    Body{Block: block},
	}
}

func TestBooleanExhaustive(t *testing.T) {
	rows := []Row{boolRow(true, "A"), boolRow(false, "B")}
	c := NewCompiler(staticOracle{kind: KindBool}, 1)
	m := c.Compile(rows)

	sw, ok := m.Tree.(Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 2)
	require.Nil(t, sw.Fallback)
	require.False(t, m.Missing)
	require.Empty(t, MissingPatterns(m.Tree))
}

func TestOpenIntSingleCase(t *testing.T) {
	rows := []Row{
		{Columns: []Column{{Var: Var{ID: 0}, Pattern: PInt{Value: 4}}}, Body: Body{Block: "A"}},
	}
	c := NewCompiler(staticOracle{kind: KindIntOpen}, 1)
	m := c.Compile(rows)

	sw, ok := m.Tree.(Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 1)
	require.Equal(t, int64(4), sw.Cases[0].Ctor.IntValue)
	require.NotNil(t, sw.Fallback)
	require.IsType(t, Fail{}, sw.Fallback)
	require.True(t, m.Missing)
	require.Equal(t, []string{"_"}, MissingPatterns(m.Tree))
}

func TestRedundantWildcardCollapse(t *testing.T) {
	rows := []Row{
		{Columns: []Column{{Var: Var{ID: 0}, Pattern: PInt{Value: 4}}}, Body: Body{Block: "A"}},
		{Columns: []Column{{Var: Var{ID: 0}, Pattern: PWildcard{}}}, Body: Body{Block: "B"}},
		{Columns: []Column{{Var: Var{ID: 0}, Pattern: PInt{Value: 5}}}, Body: Body{Block: "C"}},
	}
	c := NewCompiler(staticOracle{kind: KindIntOpen}, 1)
	m := c.Compile(rows)

	sw, ok := m.Tree.(Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 2)

	case4 := sw.Cases[0]
	require.Equal(t, int64(4), case4.Ctor.IntValue)
	succ, ok := case4.Tree.(Success)
	require.True(t, ok)
	require.Equal(t, "A", succ.Body.Block)

	case5 := sw.Cases[1]
	require.Equal(t, int64(5), case5.Ctor.IntValue)
	succ5, ok := case5.Tree.(Success)
	require.True(t, ok)
	require.Equal(t, "C", succ5.Body.Block)

	fbSucc, ok := sw.Fallback.(Success)
	require.True(t, ok)
	require.Equal(t, "B", fbSucc.Body.Block)
	require.False(t, m.Missing)
}

func TestOrPatternWithGuard(t *testing.T) {
	v := Var{ID: 0}
	g := "G"
	rows := []Row{
		{Columns: []Column{{Var: v, Pattern: POr{Alts: []Pattern{PInt{Value: 4}, PInt{Value: 5}}}}}, Guard: g, Body: Body{Block: "B1"}},
		{Columns: []Column{{Var: v, Pattern: PInt{Value: 4}}}, Body: Body{Block: "B2"}},
		{Columns: []Column{{Var: v, Pattern: PInt{Value: 5}}}, Body: Body{Block: "B3"}},
		{Columns: []Column{{Var: v, Pattern: PWildcard{}}}, Body: Body{Block: "B4"}},
	}
	c := NewCompiler(staticOracle{kind: KindIntOpen}, 1)
	m := c.Compile(rows)

	sw, ok := m.Tree.(Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 2)

	for _, cs := range sw.Cases {
		guard, ok := cs.Tree.(Guard)
		require.True(t, ok)
		require.Equal(t, g, guard.Expr)
		require.Equal(t, "B1", guard.Body.Block)
		succ, ok := guard.Fallback.(Success)
		require.True(t, ok)
		if cs.Ctor.IntValue == 4 {
			require.Equal(t, "B2", succ.Body.Block)
		} else {
			require.Equal(t, "B3", succ.Body.Block)
		}
	}

	fbSucc, ok := sw.Fallback.(Success)
	require.True(t, ok)
	require.Equal(t, "B4", fbSucc.Body.Block)
}

// mapOracle resolves specialization kinds per variable id, for matches
// whose branch variable and synthesized sub-terms have different types.
type mapOracle struct {
	kinds    map[int]VarKind
	def      VarKind
	arity    int
	variants []VariantInfo
}

func (o mapOracle) KindOf(v Var) VarKind {
	if k, ok := o.kinds[v.ID]; ok {
		return k
	}
	return o.def
}
func (o mapOracle) Arity(v Var) int               { return o.arity }
func (o mapOracle) Variants(v Var) []VariantInfo  { return o.variants }
func (o mapOracle) FieldName(v Var, i int) string { return "field" }

// TestEnumVariantSharesSubVars compiles
// `match opt { Some(1) -> A, Some(2) -> B, None -> C }` and checks that
// both Some rows zip onto one shared payload variable, which is also
// what the emitted case declares in Args: the sub-tree must branch on
// exactly that variable.
func TestEnumVariantSharesSubVars(t *testing.T) {
	scrutinee := Var{ID: 0}
	someCtor := Ctor{Kind: CtorVariant, VariantName: "Some", VariantTag: 0, Arity: 1}
	noneCtor := Ctor{Kind: CtorVariant, VariantName: "None", VariantTag: 1}

	rows := []Row{
		{Columns: []Column{{Var: scrutinee, Pattern: PConstructor{Ctor: someCtor, Args: []Pattern{PInt{Value: 1}}}}}, Body: Body{Block: "A"}},
		{Columns: []Column{{Var: scrutinee, Pattern: PConstructor{Ctor: someCtor, Args: []Pattern{PInt{Value: 2}}}}}, Body: Body{Block: "B"}},
		{Columns: []Column{{Var: scrutinee, Pattern: PConstructor{Ctor: noneCtor}}}, Body: Body{Block: "C"}},
	}
	oracle := mapOracle{
		kinds: map[int]VarKind{0: KindEnum},
		def:   KindIntOpen, // the Some payload
		variants: []VariantInfo{
			{Name: "Some", Tag: 0, Arity: 1},
			{Name: "None", Tag: 1, Arity: 0},
		},
	}
	m := NewCompiler(oracle, 1).Compile(rows)

	sw, ok := m.Tree.(Switch)
	require.True(t, ok)
	require.Equal(t, 0, sw.Var.ID)
	require.Len(t, sw.Cases, 2)
	require.Nil(t, sw.Fallback, "every variant is matched, no fallback")

	someCase := sw.Cases[0]
	require.Equal(t, "Some", someCase.Ctor.VariantName)
	require.Len(t, someCase.Args, 1)
	payload := someCase.Args[0]

	inner, ok := someCase.Tree.(Switch)
	require.True(t, ok, "the Some sub-tree must switch on the payload")
	require.Equal(t, payload.ID, inner.Var.ID,
		"the sub-tree must branch on the variable the case declares in Args")
	require.Len(t, inner.Cases, 2)
	require.Equal(t, int64(1), inner.Cases[0].Ctor.IntValue)
	a, ok := inner.Cases[0].Tree.(Success)
	require.True(t, ok)
	require.Equal(t, "A", a.Body.Block)
	require.Equal(t, int64(2), inner.Cases[1].Ctor.IntValue)
	b, ok := inner.Cases[1].Tree.(Success)
	require.True(t, ok)
	require.Equal(t, "B", b.Body.Block)

	noneCase := sw.Cases[1]
	require.Equal(t, "None", noneCase.Ctor.VariantName)
	require.Empty(t, noneCase.Args)
	cSucc, ok := noneCase.Tree.(Success)
	require.True(t, ok)
	require.Equal(t, "C", cSucc.Body.Block)

	// The payload int is an open set, so the match is non-exhaustive
	// exactly in the Some arm.
	require.True(t, m.Missing)
	require.Equal(t, []string{"Some(_)"}, MissingPatterns(m.Tree))
}

// TestArraySpecializationSharesElems compiles
// `match a { [1, x] -> A, [2, y] -> B, [] -> C, _ -> D }` and checks
// that same-length rows bind to one shared slot set recorded in
// ArrayCase.Elems, with the nested switch testing the first slot.
func TestArraySpecializationSharesElems(t *testing.T) {
	scrutinee := Var{ID: 0}
	rows := []Row{
		{Columns: []Column{{Var: scrutinee, Pattern: PArray{Elems: []Pattern{PInt{Value: 1}, PVariable{Binding: "x"}}}}}, Body: Body{Block: "A"}},
		{Columns: []Column{{Var: scrutinee, Pattern: PArray{Elems: []Pattern{PInt{Value: 2}, PVariable{Binding: "y"}}}}}, Body: Body{Block: "B"}},
		{Columns: []Column{{Var: scrutinee, Pattern: PArray{}}}, Body: Body{Block: "C"}},
		{Columns: []Column{{Var: scrutinee, Pattern: PWildcard{}}}, Body: Body{Block: "D"}},
	}
	oracle := mapOracle{
		kinds: map[int]VarKind{0: KindArray},
		def:   KindIntOpen, // the element slots
	}
	m := NewCompiler(oracle, 1).Compile(rows)

	sa, ok := m.Tree.(SwitchArray)
	require.True(t, ok)
	require.Len(t, sa.Cases, 2)

	empty := sa.Cases[0]
	require.Equal(t, 0, empty.Length)
	require.Empty(t, empty.Elems)
	cSucc, ok := empty.Tree.(Success)
	require.True(t, ok)
	require.Equal(t, "C", cSucc.Body.Block)

	pair := sa.Cases[1]
	require.Equal(t, 2, pair.Length)
	require.Len(t, pair.Elems, 2)

	inner, ok := pair.Tree.(Switch)
	require.True(t, ok, "the length-2 sub-tree must switch on a slot")
	require.Equal(t, pair.Elems[0].ID, inner.Var.ID,
		"the sub-tree must branch on the first declared slot variable")
	require.Len(t, inner.Cases, 2)

	a, ok := inner.Cases[0].Tree.(Success)
	require.True(t, ok)
	require.Equal(t, "A", a.Body.Block)
	require.Contains(t, a.Body.Bindings, Binding{Named: true, Name: "x", Var: pair.Elems[1]},
		"the second slot binds through the shared element variable")

	b, ok := inner.Cases[1].Tree.(Success)
	require.True(t, ok)
	require.Equal(t, "B", b.Body.Block)
	require.Contains(t, b.Body.Bindings, Binding{Named: true, Name: "y", Var: pair.Elems[1]})

	fb, ok := inner.Fallback.(Success)
	require.True(t, ok)
	require.Equal(t, "D", fb.Body.Block)

	outerFb, ok := sa.Fallback.(Success)
	require.True(t, ok)
	require.Equal(t, "D", outerFb.Body.Block)
}

// TestTupleSpecializationBranchesOnCaseArgs compiles
// `match t { (1, a) -> A, (_, b) -> B }`: the single exhaustive tuple
// case must declare the shared field vars in Args and branch on them.
func TestTupleSpecializationBranchesOnCaseArgs(t *testing.T) {
	scrutinee := Var{ID: 0}
	tuple := Ctor{Kind: CtorTuple, Arity: 2}
	rows := []Row{
		{Columns: []Column{{Var: scrutinee, Pattern: PConstructor{Ctor: tuple, Args: []Pattern{PInt{Value: 1}, PVariable{Binding: "a"}}}}}, Body: Body{Block: "A"}},
		{Columns: []Column{{Var: scrutinee, Pattern: PConstructor{Ctor: tuple, Args: []Pattern{PWildcard{}, PVariable{Binding: "b"}}}}}, Body: Body{Block: "B"}},
	}
	oracle := mapOracle{
		kinds: map[int]VarKind{0: KindTuple},
		def:   KindIntOpen,
		arity: 2,
	}
	m := NewCompiler(oracle, 1).Compile(rows)

	sw, ok := m.Tree.(Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 1)
	tupleCase := sw.Cases[0]
	require.Equal(t, CtorTuple, tupleCase.Ctor.Kind)
	require.Len(t, tupleCase.Args, 2)

	inner, ok := tupleCase.Tree.(Switch)
	require.True(t, ok)
	require.Equal(t, tupleCase.Args[0].ID, inner.Var.ID,
		"the sub-tree must branch on the first declared field variable")
	require.Len(t, inner.Cases, 1)
	require.Equal(t, int64(1), inner.Cases[0].Ctor.IntValue)

	a, ok := inner.Cases[0].Tree.(Success)
	require.True(t, ok)
	require.Equal(t, "A", a.Body.Block)
	require.Contains(t, a.Body.Bindings, Binding{Named: true, Name: "a", Var: tupleCase.Args[1]})

	fb, ok := inner.Fallback.(Success)
	require.True(t, ok)
	require.Equal(t, "B", fb.Body.Block)
	require.Contains(t, fb.Body.Bindings, Binding{Named: true, Name: "b", Var: tupleCase.Args[1]})
}
