package typecheck

import "github.com/sunholo/ailang/internal/typeuniverse"

// Checker holds the Database it checks against and the per-run visited
// set that prevents infinite recursion on cyclic type graphs (e.g.
// `impl Equal[Array[T]] for Array if T: Equal[T]`).
type Checker struct {
	DB *typeuniverse.Database

	checked map[pairKey]bool
}

type pairKey struct {
	Left  typeuniverse.TypeRef
	Right typeuniverse.TypeRef
}

func New(db *typeuniverse.Database) *Checker {
	return &Checker{DB: db, checked: make(map[pairKey]bool)}
}

// Check is the general entry point: check(env, left, right, rules) -> bool.
func (c *Checker) Check(env *Env, left, right typeuniverse.TypeRef, rules Rules) bool {
	return c.check(env, left, right, rules, true)
}

// CheckArgument checks that a call-site value (right) may be passed where
// a parameter of type left is declared, applying the implicit root-ref
// widening at the outermost position.
func (c *Checker) CheckArgument(env *Env, paramType, argType typeuniverse.TypeRef) bool {
	return c.check(env, paramType, argType, ArgumentRules(), true)
}

// CheckReturn checks that value is an acceptable return for declared.
func (c *Checker) CheckReturn(env *Env, declared, value typeuniverse.TypeRef) bool {
	return c.check(env, declared, value, ReturnRules(), true)
}

// CheckCast checks whether value may be explicitly cast to target.
func (c *Checker) CheckCast(env *Env, target, value typeuniverse.TypeRef) bool {
	return c.check(env, target, value, CastRules(), true)
}

// CheckMethod checks a method's declared parameter/return type against
// the call-site type under the receiver's Self substitution.
func (c *Checker) CheckMethod(env *Env, declared, actual typeuniverse.TypeRef) bool {
	return c.check(env, declared, actual, ArgumentRules(), true)
}

// CheckBounds verifies that typeArg satisfies the extra requirement
// parameter `bound` records for a trait implementation: every trait the
// bound parameter requires must be implemented by typeArg. The left
// side's current assignment for the implementation's own parameter is
// copied into the right side first so subsequent checks see the
// concrete substitution.
func (c *Checker) CheckBounds(env *Env, implParam typeuniverse.ParameterID, bound typeuniverse.ParameterID, typeArg typeuniverse.TypeRef) bool {
	env.copyBoundIntoRight(implParam)
	rules := BoundsRules()

	param := c.DB.Parameter(bound)
	if param == nil {
		return false
	}

	resolved := c.resolveSide(typeArg, env.RightArgs, env.RightSelf)
	if resolved.Ownership == typeuniverse.Never {
		// A type-argument value may not be Never even though plain
		// checks accept the bottom type.
		return false
	}
	if resolved.Ownership == typeuniverse.ErrorKind || resolved.Ownership == typeuniverse.Unknown {
		return true
	}
	if !rules.UniCompatibleWithOwned && resolved.Ownership.IsUnique() {
		return false
	}

	for _, req := range param.Requirements {
		if !c.TypeImplementsTrait(env, resolved, req) {
			return false
		}
	}
	if param.Bound != typeuniverse.NoTrait && !c.TypeImplementsTrait(env, resolved, param.Bound) {
		return false
	}
	return true
}

// TypeImplementsTrait reports whether concrete type t has a
// TraitImplementation of trait, recursively checking the implementation's
// bounds against t's own type arguments.
func (c *Checker) TypeImplementsTrait(env *Env, t typeuniverse.TypeRef, trait typeuniverse.TraitID) bool {
	resolved := c.DB.Resolve(t)

	// A (rigid) type parameter satisfies a trait through its own
	// declared requirements, since no concrete implementation exists to
	// look up inside a generic scope.
	switch resolved.Enum.Kind {
	case typeuniverse.EnumTypeParameter, typeuniverse.EnumRigidTypeParameter, typeuniverse.EnumAtomicTypeParameter:
		param := c.DB.Parameter(resolved.Enum.ParamID)
		if param == nil {
			return false
		}
		for _, req := range param.Requirements {
			if req == trait || c.traitRequires(req, trait) {
				return true
			}
		}
		return false
	}

	if resolved.Enum.Kind != typeuniverse.EnumTypeInstance && resolved.Enum.Kind != typeuniverse.EnumType {
		return false
	}
	impl, ok := c.DB.ImplementationOf(resolved.Enum.TypeID, trait)
	if !ok {
		return false
	}
	if resolved.Enum.TypeArgs == nil {
		return len(impl.Bounds) == 0
	}
	for implParam, boundParam := range impl.Bounds {
		arg, ok := resolved.Enum.TypeArgs.Get(implParam)
		if !ok {
			return false
		}
		if !c.CheckBounds(env, implParam, boundParam, arg) {
			return false
		}
	}
	return true
}

// traitRequires reports whether trait `req` transitively names `want`
// among its required super-traits.
func (c *Checker) traitRequires(req, want typeuniverse.TraitID) bool {
	def := c.DB.TraitDefOf(req)
	if def == nil {
		return false
	}
	for _, super := range def.RequiredSuper {
		if super == want || c.traitRequires(super, want) {
			return true
		}
	}
	return false
}

// check is the recursive workhorse. `outer` is true only for the
// outermost call in a Check/CheckArgument/etc invocation; it gates
// ImplicitRootRef, which only applies at the top level.
func (c *Checker) check(env *Env, left, right typeuniverse.TypeRef, rules Rules, outer bool) bool {
	left = c.resolveSide(left, env.LeftArgs, env.LeftSelf)
	right = c.resolveSide(right, env.RightArgs, env.RightSelf)

	key := pairKey{left, right}
	if c.checked[key] {
		return true // already validated on this run; break the cycle positively
	}
	c.checked[key] = true
	defer delete(c.checked, key)

	if right.Ownership == typeuniverse.Never {
		return rules.AllowNever
	}
	if left.Ownership == typeuniverse.ErrorKind || right.Ownership == typeuniverse.ErrorKind {
		return true // error already reported upstream; don't cascade
	}
	if left.Ownership == typeuniverse.Unknown || right.Ownership == typeuniverse.Unknown {
		return true
	}

	if right.Ownership == typeuniverse.PlaceholderKind {
		return c.checkAgainstPlaceholder(env, left, right, rules)
	}
	if left.Ownership == typeuniverse.PlaceholderKind {
		return c.assignPlaceholder(env, left, right, rules)
	}

	if ok, handled := c.checkOwnership(left, right, rules, outer); handled {
		if !ok {
			return false
		}
	}

	return c.checkShape(env, left, right, rules)
}

// resolveSide substitutes type parameters through args/self and follows
// placeholder indirection transitively.
func (c *Checker) resolveSide(t typeuniverse.TypeRef, args *typeuniverse.TypeArguments, self *typeuniverse.TypeRef) typeuniverse.TypeRef {
	t = c.DB.Resolve(t)
	switch t.Enum.Kind {
	case typeuniverse.EnumTypeParameter, typeuniverse.EnumAtomicTypeParameter:
		if args != nil {
			if v, ok := args.Get(t.Enum.ParamID); ok {
				return c.DB.Resolve(v).WithOwnership(combineOwnership(t.Ownership, v.Ownership))
			}
		}
	case typeuniverse.EnumTraitInstance:
		if t.Enum.SelfTypeFlag && self != nil {
			return c.DB.Resolve(*self).WithOwnership(combineOwnership(t.Ownership, self.Ownership))
		}
	}
	return t
}

// combineOwnership applies an outer ownership qualifier (from a
// parameter reference like `ref T`) on top of the substituted type's own
// qualifier. Borrows never widen into Owned; Owned narrows into whatever
// the reference site asked for.
func combineOwnership(outer, inner typeuniverse.Ownership) typeuniverse.Ownership {
	if outer == typeuniverse.Owned {
		return inner
	}
	return outer
}
