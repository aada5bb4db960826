package hir

import (
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/typeuniverse"
)

// ImplementTraits resolves `impl Trait for Type if bounds`, records a
// TraitImplementation on the type, rejects duplicates, forbids Drop
// from carrying parameter bounds, and marks types with an explicit
// destructor.
type ImplementTraits struct{}

func (ImplementTraits) Name() string { return "implement-traits" }

func (ImplementTraits) Run(s *State, prog *Program) {
	for _, mod := range prog.Modules {
		for i := range mod.Types {
			decl := &mod.Types[i]
			typeID, ok := s.resolveType(mod.Name, decl.Name)
			if !ok {
				continue
			}
			for _, impl := range decl.Impls {
				s.implementOne(mod.Name, typeID, impl)
			}
		}
	}
}

func (s *State) implementOne(module string, typeID typeuniverse.TypeID, impl ImplDeclInput) {
	traitID, ok := s.resolveTrait(module, impl.TraitName)
	if !ok {
		if id, ok2 := s.resolveTraitAnyModule(impl.TraitName); ok2 {
			traitID = id
		} else {
			s.Diags.Errorf(diag.InvalidImplementation, impl.Location, "unknown trait '%s'", impl.TraitName)
			return
		}
	}

	if impl.TraitName == "Drop" && len(impl.Bounds) > 0 {
		s.Diags.Errorf(diag.InvalidImplementation, impl.Location, "'Drop' implementations cannot declare parameter bounds")
		return
	}

	args := typeuniverse.NewTypeArguments()
	traitDef := s.DB.TraitDefOf(traitID)
	for i, a := range impl.TraitArgs {
		if i < len(traitDef.Params) {
			args.Set(traitDef.Params[i], a)
		}
	}

	bounds := make(map[typeuniverse.ParameterID]typeuniverse.ParameterID)
	typeScope := scopeKey("type", module, s.DB.TypeDef(typeID).Name)
	for implParamName, boundParamName := range impl.Bounds {
		implParam, ok1 := s.paramIDs[typeScope][implParamName]
		boundParam, ok2 := s.paramIDs[typeScope][boundParamName]
		if !ok1 || !ok2 {
			s.Diags.Errorf(diag.InvalidImplementation, impl.Location, "unknown type parameter in bound for '%s'", impl.TraitName)
			continue
		}
		bounds[implParam] = boundParam
	}

	ok = s.DB.AddImplementation(typeID, &typeuniverse.TraitImplementation{
		Instance: typeuniverse.TraitInstance(typeuniverse.Owned, traitID, args, false),
		Bounds:   bounds,
	})
	if !ok {
		s.Diags.Errorf(diag.DuplicateSymbol, impl.Location, "'%s' already implements '%s'", s.DB.TypeName(typeID), impl.TraitName)
		return
	}

	if impl.TraitName == "Drop" {
		s.DB.TypeDef(typeID).HasDestructor = true
	}
}
