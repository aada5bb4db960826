package hir

// Pass is one stage of the fixed pipeline. Each pass iterates every
// module in prog before the next pass begins; a pass
// returns false ("halt") only by the pipeline observing
// state.Diags.HasErrors() after it runs; passes themselves just report.
type Pass interface {
	Name() string
	Run(s *State, prog *Program)
}

// Passes lists the fixed pipeline in mandated order.
func Passes() []Pass {
	return []Pass{
		&DefineTypes{},
		&DefineTypeParameters{},
		&ImplementTraits{},
		&DefineRequirementsAndBounds{},
		&CheckTypeParameters{},
		&DefineFieldsAndVariants{},
		&CheckTraitImplementations{},
		&InsertPrelude{},
	}
}

// Run executes the pipeline, halting at the first pass that produced
// errors. Returns true if every pass completed without error.
func Run(s *State, prog *Program) bool {
	for _, p := range Passes() {
		p.Run(s, prog)
		if s.Diags.HasErrors() {
			return false
		}
	}
	return true
}
