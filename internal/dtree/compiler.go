package dtree

import "sort"

// Compiler lowers match rows into a Decision tree.
type Compiler struct {
	oracle  TypeOracle
	nextVar int
	vars    map[int]bool
}

// NewCompiler creates a compiler. oracle resolves branch-variable
// specialization kinds; varSeed should be one greater than the highest
// Var.ID already in use by the input rows (0 is fine when the rows come
// straight from the scrutinee).
func NewCompiler(oracle TypeOracle, varSeed int) *Compiler {
	return &Compiler{oracle: oracle, nextVar: varSeed, vars: make(map[int]bool)}
}

func (c *Compiler) freshVar(name string) Var {
	v := Var{ID: c.nextVar, Name: name}
	c.nextVar++
	c.vars[v.ID] = true
	return v
}

// Compile lowers rows (already non-empty, one column per scrutinee) into
// a Match. Rows must be given in arm-priority order: earlier rows win
// ties.
func (c *Compiler) Compile(rows []Row) Match {
	for _, r := range rows {
		for _, col := range r.Columns {
			c.vars[col.Var.ID] = true
		}
	}
	tree := c.compile(rows)
	missing := containsFail(tree)

	var varList []Var
	ids := make([]int, 0, len(c.vars))
	for id := range c.vars {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		varList = append(varList, Var{ID: id})
	}

	return Match{Tree: tree, Missing: missing, Variables: varList}
}

func (c *Compiler) compile(rows []Row) Decision {
	rows = c.expandOrs(rows)

	if len(rows) == 0 {
		return Fail{}
	}

	rows = c.sinkVarsAndWildcards(rows)

	first := rows[0]
	if len(first.Columns) == 0 {
		if first.Guard != nil {
			return Guard{Expr: first.Guard, Body: first.Body, Fallback: c.compile(rows[1:])}
		}
		return Success{Body: first.Body}
	}

	branchVar := c.selectBranchVariable(rows)
	return c.specialize(rows, branchVar)
}

// expandOrs expands rows containing Or patterns
// are expanded column by column, one sub-pattern per new row, iterated
// until no Or patterns remain. Terminates because each expansion strictly
// reduces the number of Or-nodes summed across all columns of all rows.
func (c *Compiler) expandOrs(rows []Row) []Row {
	changed := true
	for changed {
		changed = false
		var next []Row
		for _, row := range rows {
			idx, or := findOr(row)
			if or == nil {
				next = append(next, row)
				continue
			}
			changed = true
			for _, alt := range or.Alts {
				cols := append([]Column(nil), row.Columns...)
				cols[idx] = Column{Var: row.Columns[idx].Var, Pattern: alt}
				next = append(next, Row{Columns: cols, Guard: row.Guard, Body: row.Body})
			}
		}
		rows = next
	}
	return rows
}

func findOr(row Row) (int, *POr) {
	for i, col := range row.Columns {
		if or, ok := col.Pattern.(POr); ok {
			return i, &or
		}
	}
	return -1, nil
}

// sinkVarsAndWildcards removes columns
// whose pattern is Variable(v) (records a Named binding) or Wildcard
// (records an Ignored binding).
func (c *Compiler) sinkVarsAndWildcards(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		var cols []Column
		bindings := append([]Binding(nil), row.Body.Bindings...)
		for _, col := range row.Columns {
			switch p := col.Pattern.(type) {
			case PVariable:
				bindings = append(bindings, Binding{Named: true, Name: p.Binding, Var: col.Var})
			case PWildcard:
				bindings = append(bindings, Binding{Named: false, Var: col.Var})
			default:
				cols = append(cols, col)
			}
		}
		out[i] = Row{Columns: cols, Guard: row.Guard, Body: Body{Block: row.Body.Block, Bindings: bindings}}
	}
	return out
}

// selectBranchVariable picks the branch variable (the classic
// "heuristic counting" algorithm): pick the variable referenced by the
// most remaining columns across all rows, ties broken by the order the
// variable first appears in the first row that mentions it.
func (c *Compiler) selectBranchVariable(rows []Row) Var {
	counts := make(map[int]int)
	firstSeenOrder := make(map[int]int)
	order := 0
	for _, row := range rows {
		for _, col := range row.Columns {
			if _, ok := firstSeenOrder[col.Var.ID]; !ok {
				firstSeenOrder[col.Var.ID] = order
				order++
			}
			counts[col.Var.ID]++
		}
	}
	best := rows[0].Columns[0].Var
	bestCount := -1
	bestOrder := 1 << 30
	for id, cnt := range counts {
		ord := firstSeenOrder[id]
		if cnt > bestCount || (cnt == bestCount && ord < bestOrder) {
			bestCount = cnt
			bestOrder = ord
			for _, row := range rows {
				for _, col := range row.Columns {
					if col.Var.ID == id {
						best = col.Var
						break
					}
				}
			}
		}
	}
	return best
}
