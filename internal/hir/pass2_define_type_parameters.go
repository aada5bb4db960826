package hir

import (
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/typeuniverse"
)

// DefineTypeParameters adds each type/trait's declared parameters and
// their mutability flag, rejecting duplicate parameter names within one
// declaration.
type DefineTypeParameters struct{}

func (DefineTypeParameters) Name() string { return "define-type-parameters" }

func (DefineTypeParameters) Run(s *State, prog *Program) {
	for _, mod := range prog.Modules {
		for i := range mod.Types {
			decl := &mod.Types[i]
			id, ok := s.resolveType(mod.Name, decl.Name)
			if !ok {
				continue
			}
			scope := scopeKey("type", mod.Name, decl.Name)
			s.defineParams(scope, decl.Params, decl.Location)
			def := s.DB.TypeDef(id)
			for _, p := range decl.Params {
				def.Params = append(def.Params, s.paramIDs[scope][p.Name])
			}
		}
	}

	for _, mt := range prog.Traits {
		for i := range mt.Traits {
			decl := &mt.Traits[i]
			id, ok := s.resolveTrait(mt.Module, decl.Name)
			if !ok {
				continue
			}
			scope := scopeKey("trait", mt.Module, decl.Name)
			s.defineParams(scope, decl.Params, decl.Location)
			def := s.DB.TraitDefOf(id)
			for _, p := range decl.Params {
				def.Params = append(def.Params, s.paramIDs[scope][p.Name])
			}
		}
	}
}

func scopeKey(kind, module, name string) string { return kind + ":" + module + ":" + name }

func (s *State) defineParams(scope string, params []ParamDeclInput, loc diag.Location) {
	if s.paramIDs[scope] == nil {
		s.paramIDs[scope] = make(map[string]typeuniverse.ParameterID)
	}
	for _, p := range params {
		if _, exists := s.paramIDs[scope][p.Name]; exists {
			s.Diags.Errorf(diag.DuplicateSymbol, loc, "a type parameter named '%s' is already defined here", p.Name)
			continue
		}
		s.paramIDs[scope][p.Name] = s.DB.DefineParameter(p.Name, p.Mutable)
	}
}
