package typecheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/ailang/internal/typeuniverse"
)

func TestOwnershipValueType(t *testing.T) {
	db := typeuniverse.NewDatabase()
	mod := db.NewModule("prelude")
	intID, _ := db.DefineType(mod, "Int", typeuniverse.VisPublic)

	intType := typeuniverse.TypeValue(typeuniverse.Owned, intID)
	refInt := typeuniverse.TypeValue(typeuniverse.Ref, intID)
	uniInt := typeuniverse.TypeValue(typeuniverse.Uni, intID)

	c := New(db)
	require.True(t, c.Check(NewEnv(), refInt, intType, DefaultRules()), "Int <: ref Int")
	c = New(db)
	require.True(t, c.Check(NewEnv(), uniInt, intType, DefaultRules()), "Int <: uni Int")
	c = New(db)
	require.True(t, c.Check(NewEnv(), intType, refInt, DefaultRules()), "ref Int <: Int (value type)")
}

func TestOwnershipHeapClassImplicitRootRef(t *testing.T) {
	db := typeuniverse.NewDatabase()
	mod := db.NewModule("app")
	thingID, _ := db.DefineType(mod, "Thing", typeuniverse.VisPublic)

	thing := typeuniverse.TypeValue(typeuniverse.Owned, thingID)
	refThing := typeuniverse.TypeValue(typeuniverse.Ref, thingID)

	c := New(db)
	require.True(t, c.CheckArgument(NewEnv(), refThing, thing), "Thing <: ref Thing at argument position")

	c = New(db)
	require.False(t, c.Check(NewEnv(), refThing, thing, DefaultRules()), "Thing <: ref Thing without implicit_root_ref")

	c = New(db)
	require.False(t, c.Check(NewEnv(), thing, refThing, DefaultRules()), "ref Thing <: Thing never holds")
}

func TestTraitBoundsArrayToString(t *testing.T) {
	db := typeuniverse.NewDatabase()
	mod := db.NewModule("app")

	toStringTrait, _ := db.DefineTrait(mod, "ToString", typeuniverse.VisPublic)
	arrayID, _ := db.DefineType(mod, "Array", typeuniverse.VisPublic)
	intID, _ := db.DefineType(mod, "Int", typeuniverse.VisPublic)
	thingID, _ := db.DefineType(mod, "Thing", typeuniverse.VisPublic)

	elemParam := db.DefineParameter("T", false)
	implParam := db.DefineParameter("ArrayT", false)
	db.Parameter(elemParam).Requirements = []typeuniverse.TraitID{toStringTrait}

	db.AddImplementation(arrayID, &typeuniverse.TraitImplementation{
		Instance: typeuniverse.TraitInstance(typeuniverse.Owned, toStringTrait, nil, false),
		Bounds:   map[typeuniverse.ParameterID]typeuniverse.ParameterID{implParam: elemParam},
	})
	// Int implements ToString.
	db.AddImplementation(intID, &typeuniverse.TraitImplementation{
		Instance: typeuniverse.TraitInstance(typeuniverse.Owned, toStringTrait, nil, false),
	})

	args := typeuniverse.NewTypeArguments()
	args.Set(implParam, typeuniverse.TypeValue(typeuniverse.Owned, intID))
	arrayInt := typeuniverse.TypeInstance(typeuniverse.Owned, arrayID, args)

	c := New(db)
	require.True(t, c.TypeImplementsTrait(NewEnv(), arrayInt, toStringTrait), "Array[Int] implements ToString")

	argsThing := typeuniverse.NewTypeArguments()
	argsThing.Set(implParam, typeuniverse.TypeValue(typeuniverse.Owned, thingID))
	arrayThing := typeuniverse.TypeInstance(typeuniverse.Owned, arrayID, argsThing)

	c = New(db)
	require.False(t, c.TypeImplementsTrait(NewEnv(), arrayThing, toStringTrait), "Array[Thing] does not implement ToString")
}

func TestPlaceholderAssignmentReverts(t *testing.T) {
	db := typeuniverse.NewDatabase()
	mod := db.NewModule("app")
	thingID, _ := db.DefineType(mod, "Thing", typeuniverse.VisPublic)

	ph := db.NewPlaceholder(typeuniverse.Owned)
	phType := typeuniverse.PlaceholderType(ph)
	refThing := typeuniverse.TypeValue(typeuniverse.Ref, thingID)

	c := New(db)
	ok := c.Check(NewEnv(), phType, refThing, DefaultRules())
	require.False(t, ok)

	p := db.Placeholder(ph)
	require.False(t, p.Resolved, "failed assignment must leave the placeholder unresolved")
}

func TestTraitUpcastNeedsSubtyping(t *testing.T) {
	db := typeuniverse.NewDatabase()
	mod := db.NewModule("app")
	toString, _ := db.DefineTrait(mod, "ToString", typeuniverse.VisPublic)
	intID, _ := db.DefineType(mod, "Int", typeuniverse.VisPublic)
	db.AddImplementation(intID, &typeuniverse.TraitImplementation{
		Instance: typeuniverse.TraitInstance(typeuniverse.Owned, toString, nil, false),
	})

	traitType := typeuniverse.TraitInstance(typeuniverse.Owned, toString, nil, false)
	intType := typeuniverse.TypeValue(typeuniverse.Owned, intID)

	c := New(db)
	require.False(t, c.Check(NewEnv(), traitType, intType, DefaultRules()),
		"upcast must be rejected without a subtyping rule")

	relaxed := DefaultRules()
	relaxed.Subtyping = SubtypingRelaxed
	c = New(db)
	require.True(t, c.Check(NewEnv(), traitType, intType, relaxed),
		"relaxed subtyping allows the one-step upcast")
}

func TestStrictSubtypingRequiresSuperTraits(t *testing.T) {
	db := typeuniverse.NewDatabase()
	mod := db.NewModule("app")
	equal, _ := db.DefineTrait(mod, "Equal", typeuniverse.VisPublic)
	hash, _ := db.DefineTrait(mod, "Hash", typeuniverse.VisPublic)
	db.TraitDefOf(hash).RequiredSuper = []typeuniverse.TraitID{equal}

	thingID, _ := db.DefineType(mod, "Thing", typeuniverse.VisPublic)
	db.AddImplementation(thingID, &typeuniverse.TraitImplementation{
		Instance: typeuniverse.TraitInstance(typeuniverse.Owned, hash, nil, false),
	})

	hashType := typeuniverse.TraitInstance(typeuniverse.Owned, hash, nil, false)
	thing := typeuniverse.TypeValue(typeuniverse.Owned, thingID)

	strict := DefaultRules()
	strict.Subtyping = SubtypingStrict
	c := New(db)
	require.False(t, c.Check(NewEnv(), hashType, thing, strict),
		"strict subtyping rejects an upcast when a required super-trait is unimplemented")

	db.AddImplementation(thingID, &typeuniverse.TraitImplementation{
		Instance: typeuniverse.TraitInstance(typeuniverse.Owned, equal, nil, false),
	})
	c = New(db)
	require.True(t, c.Check(NewEnv(), hashType, thing, strict))
}

func TestBoundsRejectNeverAndUni(t *testing.T) {
	db := typeuniverse.NewDatabase()
	mod := db.NewModule("app")
	toString, _ := db.DefineTrait(mod, "ToString", typeuniverse.VisPublic)
	intID, _ := db.DefineType(mod, "Int", typeuniverse.VisPublic)
	db.AddImplementation(intID, &typeuniverse.TraitImplementation{
		Instance: typeuniverse.TraitInstance(typeuniverse.Owned, toString, nil, false),
	})
	implParam := db.DefineParameter("A", false)
	boundParam := db.DefineParameter("T", false)
	db.Parameter(boundParam).Requirements = []typeuniverse.TraitID{toString}

	c := New(db)
	require.False(t, c.CheckBounds(NewEnv(), implParam, boundParam, typeuniverse.NeverType()),
		"Never is not an acceptable type-argument value")

	uniThing := typeuniverse.TypeValue(typeuniverse.Uni, intID)
	c = New(db)
	require.False(t, c.CheckBounds(NewEnv(), implParam, boundParam, uniThing),
		"uni values do not flow into trait-implementation parameters")
}

func TestRigidParameterComparesOnlyToItself(t *testing.T) {
	db := typeuniverse.NewDatabase()
	p1 := db.DefineParameter("T", false)
	p2 := db.DefineParameter("U", false)

	r1 := typeuniverse.RigidTypeParameter(typeuniverse.Owned, p1)
	r2 := typeuniverse.RigidTypeParameter(typeuniverse.Owned, p2)

	c := New(db)
	require.True(t, c.Check(NewEnv(), r1, r1, DefaultRules()))
	c = New(db)
	require.False(t, c.Check(NewEnv(), r1, r2, DefaultRules()))
}

func TestNeverAllowedOnlyWhenRulesSaySo(t *testing.T) {
	db := typeuniverse.NewDatabase()
	mod := db.NewModule("app")
	intID, _ := db.DefineType(mod, "Int", typeuniverse.VisPublic)
	intType := typeuniverse.TypeValue(typeuniverse.Owned, intID)

	c := New(db)
	require.True(t, c.Check(NewEnv(), intType, typeuniverse.NeverType(), DefaultRules()))

	noNever := DefaultRules()
	noNever.AllowNever = false
	c = New(db)
	require.False(t, c.Check(NewEnv(), intType, typeuniverse.NeverType(), noNever))
}
