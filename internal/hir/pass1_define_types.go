package hir

import (
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/typeuniverse"
)

// DefineTypes allocates types and traits and records visibility,
// rejecting duplicate symbols. The input has no constant declarations,
// so no constants are defined. It only defines the *names*; parameters,
// fields, and trait impls are left to later passes.
type DefineTypes struct{}

func (DefineTypes) Name() string { return "define-types" }

func (DefineTypes) Run(s *State, prog *Program) {
	for _, mod := range prog.Modules {
		modID := s.moduleID(mod.Name)
		if s.typeIDs[mod.Name] == nil {
			s.typeIDs[mod.Name] = make(map[string]typeuniverse.TypeID)
		}
		for i := range mod.Types {
			decl := &mod.Types[i]
			id, ok := s.DB.DefineType(modID, decl.Name, decl.Visibility)
			if !ok {
				s.Diags.Errorf(diag.DuplicateSymbol, decl.Location, "a type named '%s' is already defined in this module", decl.Name)
				continue
			}
			s.typeIDs[mod.Name][decl.Name] = id
			s.typeOf[id] = decl
			def := s.DB.TypeDef(id)
			if decl.Kind == KindEnum {
				def.IsEnum = true
			}
		}
	}

	for _, mt := range prog.Traits {
		modID := s.moduleID(mt.Module)
		if s.traitIDs[mt.Module] == nil {
			s.traitIDs[mt.Module] = make(map[string]typeuniverse.TraitID)
		}
		for i := range mt.Traits {
			decl := &mt.Traits[i]
			id, ok := s.DB.DefineTrait(modID, decl.Name, decl.Visibility)
			if !ok {
				s.Diags.Errorf(diag.DuplicateSymbol, decl.Location, "a trait named '%s' is already defined in this module", decl.Name)
				continue
			}
			s.traitIDs[mt.Module][decl.Name] = id
			s.traitOf[id] = decl
		}
	}
}
