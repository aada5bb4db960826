package hir

import "github.com/sunholo/ailang/internal/diag"

// CheckTraitImplementations: for each `impl T for C`, confirm all
// required-super-traits of T are already implemented for C.
type CheckTraitImplementations struct{}

func (CheckTraitImplementations) Name() string { return "check-trait-implementations" }

func (CheckTraitImplementations) Run(s *State, prog *Program) {
	for _, mod := range prog.Modules {
		for i := range mod.Types {
			decl := &mod.Types[i]
			typeID, ok := s.resolveType(mod.Name, decl.Name)
			if !ok {
				continue
			}
			for _, impl := range s.DB.ImplementationsFor(typeID) {
				traitDef := s.DB.TraitDefOf(impl.Instance.Enum.TraitID)
				if traitDef == nil {
					continue
				}
				for _, superID := range traitDef.RequiredSuper {
					if _, has := s.DB.ImplementationOf(typeID, superID); !has {
						s.Diags.Errorf(diag.MissingTrait, decl.Location,
							"'%s' implements '%s' but not its required super-trait '%s'",
							decl.Name, traitDef.Name, s.DB.TraitName(superID))
					}
				}
			}
		}
	}
}
