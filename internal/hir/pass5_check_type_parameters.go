package hir

import "github.com/sunholo/ailang/internal/diag"

// CheckTypeParameters verifies that parameters referenced by
// requirements are themselves well-formed: every requirement trait a
// parameter names must resolve to a trait definition. Unknown names
// were already reported in pass 4 as InvalidSymbol; this pass catches
// requirement handles whose definitions went missing in between.
type CheckTypeParameters struct{}

func (CheckTypeParameters) Name() string { return "check-type-parameters" }

func (CheckTypeParameters) Run(s *State, prog *Program) {
	for _, mod := range prog.Modules {
		for i := range mod.Types {
			decl := &mod.Types[i]
			scope := scopeKey("type", mod.Name, decl.Name)
			s.checkParamScope(scope, decl.Location)
		}
	}
	for _, mt := range prog.Traits {
		for i := range mt.Traits {
			decl := &mt.Traits[i]
			scope := scopeKey("trait", mt.Module, decl.Name)
			s.checkParamScope(scope, decl.Location)
		}
	}
}

func (s *State) checkParamScope(scope string, loc diag.Location) {
	for _, paramID := range s.paramIDs[scope] {
		param := s.DB.Parameter(paramID)
		for _, traitID := range param.Requirements {
			if s.DB.TraitDefOf(traitID) == nil {
				s.Diags.Errorf(diag.InvalidType, loc, "parameter '%s' requires an unresolved trait", param.Name)
			}
		}
	}
}
