package dtree

import "sort"

// specialize dispatches on the branch
// variable's static kind.
func (c *Compiler) specialize(rows []Row, branch Var) Decision {
	kind := c.oracle.KindOf(branch)
	switch kind {
	case KindBool:
		return c.specializeBool(rows, branch)
	case KindIntOpen:
		return c.specializeOpenInt(rows, branch)
	case KindStringOpen:
		return c.specializeOpenString(rows, branch)
	case KindArray:
		return c.specializeArray(rows, branch)
	case KindTuple, KindClass:
		return c.specializeExhaustiveCtor(rows, branch, kind)
	case KindEnum:
		return c.specializeEnum(rows, branch)
	}
	return Fail{}
}

// extractColumn returns the pattern in row matching branch, if present,
// plus the row with that column removed. Sub-patterns are not inserted
// here; callers prepend them with prependColumns.
func extractColumn(row Row, branch Var) (Pattern, Row, bool) {
	for i, col := range row.Columns {
		if col.Var.ID == branch.ID {
			rest := append([]Column(nil), row.Columns[:i]...)
			rest = append(rest, row.Columns[i+1:]...)
			return col.Pattern, Row{Columns: rest, Guard: row.Guard, Body: row.Body}, true
		}
	}
	return nil, row, false
}

func prependColumns(row Row, cols []Column) Row {
	row.Columns = append(append([]Column(nil), cols...), row.Columns...)
	return row
}

func (c *Compiler) specializeBool(rows []Row, branch Var) Decision {
	var trueRows, falseRows []Row
	for _, row := range rows {
		pat, rest, ok := extractColumn(row, branch)
		if !ok {
			trueRows = append(trueRows, row)
			falseRows = append(falseRows, row)
			continue
		}
		ctor, isCtor := pat.(PConstructor)
		if !isCtor {
			trueRows = append(trueRows, rest)
			falseRows = append(falseRows, rest)
			continue
		}
		if ctor.Ctor.Kind == CtorTrue {
			trueRows = append(trueRows, rest)
		} else {
			falseRows = append(falseRows, rest)
		}
	}
	return Switch{
		Var: branch,
		Cases: []Case{
			{Ctor: Ctor{Kind: CtorTrue}, Tree: c.compile(trueRows)},
			{Ctor: Ctor{Kind: CtorFalse}, Tree: c.compile(falseRows)},
		},
	}
}

// specializeOpenInt/String implement: split rows by constructor literal,
// cases append the literal row, uncovered literals go to a fallback
// rowset inherited by every case's tail. Produces Switch(var, cases,
// Some(fallback)).
func (c *Compiler) specializeOpenInt(rows []Row, branch Var) Decision {
	return c.specializeOpenLiteral(rows, branch, func(p Pattern) (Ctor, bool) {
		if lit, ok := p.(PInt); ok {
			return Ctor{Kind: CtorInt, IntValue: lit.Value}, true
		}
		return Ctor{}, false
	})
}

func (c *Compiler) specializeOpenString(rows []Row, branch Var) Decision {
	return c.specializeOpenLiteral(rows, branch, func(p Pattern) (Ctor, bool) {
		if lit, ok := p.(PString); ok {
			return Ctor{Kind: CtorString, StringValue: lit.Value}, true
		}
		return Ctor{}, false
	})
}

func (c *Compiler) specializeOpenLiteral(rows []Row, branch Var, asLit func(Pattern) (Ctor, bool)) Decision {
	type bucket struct {
		ctor Ctor
		rows []Row
	}
	var order []interface{}
	buckets := make(map[interface{}]*bucket)
	var fallback []Row

	for _, row := range rows {
		pat, rest, ok := extractColumn(row, branch)
		if !ok {
			fallback = append(fallback, row)
			continue
		}
		lit, isLit := asLit(pat)
		if !isLit {
			fallback = append(fallback, row)
			continue
		}
		key := lit.key()
		b, exists := buckets[key]
		if !exists {
			b = &bucket{ctor: lit}
			buckets[key] = b
			order = append(order, key)
		}
		b.rows = append(b.rows, rest)
	}

	var cases []Case
	for _, key := range order {
		b := buckets[key]
		// Uncovered literals still fall through to the fallback set,
		// which every case's tail inherits.
		caseRows := append(append([]Row(nil), b.rows...), fallback...)
		cases = append(cases, Case{Ctor: b.ctor, Tree: c.compile(caseRows)})
	}

	return Switch{Var: branch, Cases: cases, Fallback: c.compile(fallback)}
}

// specializeExhaustiveCtor handles Regular type / tuple: one exhaustive
// case per constructor, generating a Column for every member.
func (c *Compiler) specializeExhaustiveCtor(rows []Row, branch Var, kind VarKind) Decision {
	arity := c.oracle.Arity(branch)
	subVars := make([]Var, arity)
	for i := 0; i < arity; i++ {
		subVars[i] = c.freshVar(c.oracle.FieldName(branch, i))
	}

	var caseRows []Row
	for _, row := range rows {
		pat, rest, ok := extractColumn(row, branch)
		if !ok {
			caseRows = append(caseRows, expandDefaultForFields(rest, subVars))
			continue
		}
		ctorPat, isCtor := pat.(PConstructor)
		if !isCtor {
			caseRows = append(caseRows, expandDefaultForFields(rest, subVars))
			continue
		}
		cols := make([]Column, arity)
		for i := 0; i < arity; i++ {
			var p Pattern = PWildcard{}
			if i < len(ctorPat.Args) {
				p = ctorPat.Args[i]
			}
			cols[i] = Column{Var: subVars[i], Pattern: p}
		}
		caseRows = append(caseRows, prependColumns(rest, cols))
	}

	ctorKind := CtorClass
	if kind == KindTuple {
		ctorKind = CtorTuple
	}
	return Switch{
		Var: branch,
		Cases: []Case{
			{Ctor: Ctor{Kind: ctorKind, Arity: arity}, Args: subVars, Tree: c.compile(caseRows)},
		},
	}
}

func expandDefaultForFields(row Row, subVars []Var) Row {
	cols := make([]Column, len(subVars))
	for i, v := range subVars {
		cols[i] = Column{Var: v, Pattern: PWildcard{}}
	}
	return prependColumns(row, cols)
}

// specializeEnum: one case per declared variant; rows not mentioning a
// variant propagate into every case; the first unvisited variant's
// sub-tree is shared as the fallback. Each variant gets exactly one set
// of sub-term variables, allocated up front: every row matching that
// variant zips its sub-patterns onto those shared vars, and the same
// vars become the emitted Case.Args, so the compiled sub-tree branches
// on the variables the case actually binds.
func (c *Compiler) specializeEnum(rows []Row, branch Var) Decision {
	variants := c.oracle.Variants(branch)

	type variantState struct {
		info    VariantInfo
		subVars []Var
		rows    []Row
		seen    bool
	}
	byTag := make(map[int]*variantState)
	ordered := make([]*variantState, 0, len(variants))
	for _, v := range variants {
		vs := &variantState{info: v, subVars: make([]Var, v.Arity)}
		for i := range vs.subVars {
			vs.subVars[i] = c.freshVar(c.oracle.FieldName(branch, i))
		}
		byTag[v.Tag] = vs
		ordered = append(ordered, vs)
	}

	var untested []Row // rows with no constructor test on branch (var/wildcard already sunk, so only happens if column absent)
	for _, row := range rows {
		pat, rest, ok := extractColumn(row, branch)
		if !ok {
			untested = append(untested, row)
			continue
		}
		ctorPat, isCtor := pat.(PConstructor)
		if !isCtor || ctorPat.Ctor.Kind != CtorVariant {
			untested = append(untested, row)
			continue
		}
		vs := byTag[ctorPat.Ctor.VariantTag]
		if vs == nil {
			continue // unknown variant tag; ignore defensively
		}
		vs.seen = true
		cols := make([]Column, len(vs.subVars))
		for i, sv := range vs.subVars {
			var p Pattern = PWildcard{}
			if i < len(ctorPat.Args) {
				p = ctorPat.Args[i]
			}
			cols[i] = Column{Var: sv, Pattern: p}
		}
		vs.rows = append(vs.rows, prependColumns(rest, cols))
	}

	var cases []Case
	var fallback Decision

	for _, vs := range ordered {
		rowsForCase := append([]Row(nil), vs.rows...)
		for _, row := range untested {
			rowsForCase = append(rowsForCase, expandDefaultForFields(row, vs.subVars))
		}
		tree := c.compile(rowsForCase)
		if !vs.seen && fallback == nil {
			fallback = tree
		}
		cases = append(cases, Case{
			Ctor: Ctor{Kind: CtorVariant, VariantName: vs.info.Name, VariantTag: vs.info.Tag, Arity: len(vs.subVars)},
			Args: vs.subVars,
			Tree: tree,
		})
	}

	return Switch{Var: branch, Cases: cases, Fallback: fallback}
}

// specializeArray: group rows by element count; every length bucket
// allocates its slot variables once and shares them across all rows of
// that length, recording them in ArrayCase.Elems so the emitted case
// declares the variables its sub-tree branches on. Uncovered sizes
// share a single fallback.
func (c *Compiler) specializeArray(rows []Row, branch Var) Decision {
	type lengthBucket struct {
		elems []Var
		rows  []Row
	}
	byLen := make(map[int]*lengthBucket)
	var lens []int
	var fallback []Row

	bucketFor := func(n int) *lengthBucket {
		b, ok := byLen[n]
		if !ok {
			b = &lengthBucket{elems: make([]Var, n)}
			for i := range b.elems {
				b.elems[i] = c.freshVar("elem")
			}
			byLen[n] = b
			lens = append(lens, n)
		}
		return b
	}

	for _, row := range rows {
		pat, rest, ok := extractColumn(row, branch)
		if !ok {
			fallback = append(fallback, row)
			continue
		}
		arr, isArr := pat.(PArray)
		if !isArr {
			fallback = append(fallback, row)
			continue
		}
		b := bucketFor(len(arr.Elems))
		cols := make([]Column, len(arr.Elems))
		for i, p := range arr.Elems {
			cols[i] = Column{Var: b.elems[i], Pattern: p}
		}
		b.rows = append(b.rows, prependColumns(rest, cols))
	}
	sort.Ints(lens)

	var cases []ArrayCase
	for _, n := range lens {
		b := byLen[n]
		caseRows := append(append([]Row(nil), b.rows...), expandArrayDefaults(fallback, b.elems)...)
		cases = append(cases, ArrayCase{Length: n, Elems: b.elems, Tree: c.compile(caseRows)})
	}

	return SwitchArray{Var: branch, Cases: cases, Fallback: c.compile(fallback)}
}

func expandArrayDefaults(rows []Row, elems []Var) []Row {
	var out []Row
	for _, row := range rows {
		cols := make([]Column, len(elems))
		for i, v := range elems {
			cols[i] = Column{Var: v, Pattern: PWildcard{}}
		}
		out = append(out, prependColumns(row, cols))
	}
	return out
}
