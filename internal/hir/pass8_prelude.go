package hir

import "github.com/sunholo/ailang/internal/typeuniverse"

// PreludeTypes are the well-known standard-library types every module
// gets for free, regardless of its own imports.
var PreludeTypes = []string{"Int", "Float", "String", "Bool", "Nil", "Array", "ToString", "Equal"}

// InsertPrelude registers PreludeTypes into every module's symbol table
// if not already shadowed by a module-local definition. The types
// themselves are defined once, in a synthetic "prelude" module, and
// every other module's symbol table gets an alias entry pointing at the
// same handle. This is how the implementation avoids
// re-defining Int per module while still letting every module say `Int`
// unqualified.
type InsertPrelude struct{}

func (InsertPrelude) Name() string { return "insert-prelude" }

func (InsertPrelude) Run(s *State, prog *Program) {
	preludeMod := s.moduleID("prelude")
	if s.typeIDs["prelude"] == nil {
		s.typeIDs["prelude"] = make(map[string]typeuniverse.TypeID)
	}
	for _, name := range PreludeTypes {
		if _, exists := s.typeIDs["prelude"][name]; exists {
			continue
		}
		id, ok := s.DB.DefineType(preludeMod, name, typeuniverse.VisPublic)
		if ok {
			s.typeIDs["prelude"][name] = id
		}
	}

	for _, mod := range prog.Modules {
		if mod.Name == "prelude" {
			continue
		}
		if s.typeIDs[mod.Name] == nil {
			s.typeIDs[mod.Name] = make(map[string]typeuniverse.TypeID)
		}
		for name, id := range s.typeIDs["prelude"] {
			if _, shadowed := s.typeIDs[mod.Name][name]; shadowed {
				continue
			}
			s.typeIDs[mod.Name][name] = id
		}
	}
}
