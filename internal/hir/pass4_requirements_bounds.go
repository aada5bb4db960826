package hir

import "github.com/sunholo/ailang/internal/diag"

// DefineRequirementsAndBounds resolves each parameter's requirement
// trait references; the bounds themselves were
// recorded as a parameter->parameter map by ImplementTraits; this pass
// resolves the *requirement list* each generic parameter declares
// (`T: ToString`) into trait handles on the Parameter record.
type DefineRequirementsAndBounds struct{}

func (DefineRequirementsAndBounds) Name() string { return "define-requirements-and-bounds" }

func (DefineRequirementsAndBounds) Run(s *State, prog *Program) {
	for _, mod := range prog.Modules {
		for i := range mod.Types {
			decl := &mod.Types[i]
			scope := scopeKey("type", mod.Name, decl.Name)
			s.resolveRequirements(mod.Name, scope, decl.Params, decl.Location)
		}
	}
	for _, mt := range prog.Traits {
		for i := range mt.Traits {
			decl := &mt.Traits[i]
			scope := scopeKey("trait", mt.Module, decl.Name)
			s.resolveRequirements(mt.Module, scope, decl.Params, decl.Location)

			traitID, ok := s.resolveTrait(mt.Module, decl.Name)
			if !ok {
				continue
			}
			def := s.DB.TraitDefOf(traitID)
			for _, superName := range decl.RequiredSuper {
				superID, ok := s.resolveTrait(mt.Module, superName)
				if !ok {
					superID, ok = s.resolveTraitAnyModule(superName)
				}
				if !ok {
					s.Diags.Errorf(diag.InvalidSymbol, decl.Location, "unknown required trait '%s'", superName)
					continue
				}
				def.RequiredSuper = append(def.RequiredSuper, superID)
			}
		}
	}
}

func (s *State) resolveRequirements(module, scope string, params []ParamDeclInput, loc diag.Location) {
	for _, p := range params {
		paramID, ok := s.paramIDs[scope][p.Name]
		if !ok {
			continue
		}
		param := s.DB.Parameter(paramID)
		for _, reqName := range p.Requirements {
			traitID, ok := s.resolveTrait(module, reqName)
			if !ok {
				traitID, ok = s.resolveTraitAnyModule(reqName)
			}
			if !ok {
				s.Diags.Errorf(diag.InvalidSymbol, loc, "unknown requirement trait '%s' on parameter '%s'", reqName, p.Name)
				continue
			}
			param.Requirements = append(param.Requirements, traitID)
		}
	}
}
