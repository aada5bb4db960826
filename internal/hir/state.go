package hir

import (
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/typeuniverse"
)

// State threads the Database, diagnostics sink, and the symbol tables
// the passes build up incrementally across module and module-id lookups.
type State struct {
	DB    *typeuniverse.Database
	Diags *diag.Sink

	moduleIDs map[string]typeuniverse.ModuleID
	typeIDs   map[string]map[string]typeuniverse.TypeID     // module -> type name -> id
	traitIDs  map[string]map[string]typeuniverse.TraitID    // module -> trait name -> id
	paramIDs  map[string]map[string]typeuniverse.ParameterID // scope key -> param name -> id
	typeOf    map[typeuniverse.TypeID]*TypeDeclInput
	traitOf   map[typeuniverse.TraitID]*TraitDeclInput
}

func NewState(db *typeuniverse.Database) *State {
	return &State{
		DB:        db,
		Diags:     diag.NewSink(),
		moduleIDs: make(map[string]typeuniverse.ModuleID),
		typeIDs:   make(map[string]map[string]typeuniverse.TypeID),
		traitIDs:  make(map[string]map[string]typeuniverse.TraitID),
		paramIDs:  make(map[string]map[string]typeuniverse.ParameterID),
		typeOf:    make(map[typeuniverse.TypeID]*TypeDeclInput),
		traitOf:   make(map[typeuniverse.TraitID]*TraitDeclInput),
	}
}

func (s *State) moduleID(name string) typeuniverse.ModuleID {
	if id, ok := s.moduleIDs[name]; ok {
		return id
	}
	id := s.DB.NewModule(name)
	s.moduleIDs[name] = id
	return id
}

// ResolveType looks up a type previously defined in module by name, for
// callers (the driver CLI, tests) that need a handle after Run succeeds.
func (s *State) ResolveType(module, name string) (typeuniverse.TypeID, bool) {
	return s.resolveType(module, name)
}

func (s *State) resolveType(module, name string) (typeuniverse.TypeID, bool) {
	m, ok := s.typeIDs[module]
	if !ok {
		return typeuniverse.NoType, false
	}
	id, ok := m[name]
	return id, ok
}

func (s *State) resolveTrait(module, name string) (typeuniverse.TraitID, bool) {
	m, ok := s.traitIDs[module]
	if !ok {
		return typeuniverse.NoTrait, false
	}
	id, ok := m[name]
	return id, ok
}

func (s *State) resolveTraitAnyModule(name string) (typeuniverse.TraitID, bool) {
	for _, m := range s.traitIDs {
		if id, ok := m[name]; ok {
			return id, true
		}
	}
	return typeuniverse.NoTrait, false
}
