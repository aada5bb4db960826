package typecheck

import "github.com/sunholo/ailang/internal/typeuniverse"

// assignPlaceholder handles the left side being an unresolved
// Placeholder: if the right side satisfies the placeholder's declared
// ownership requirement, it is assigned (preserving that requirement:
// an Any(Parameter) assignment never narrows an owned placeholder to a
// borrowed one); on failure the placeholder is restored to its previous
// state, so it stays unresolved.
func (c *Checker) assignPlaceholder(env *Env, left, right typeuniverse.TypeRef, rules Rules) bool {
	ph := c.DB.Placeholder(left.Placeholder)
	if ph.Resolved {
		return c.check(env, ph.Value, right, rules, false)
	}

	if rules.Kind == Return && right.Enum.Kind != typeuniverse.EnumTypeParameter {
		// A returned Any(P) cannot be satisfied by an owned concrete
		// value.
		if ph.Requirement == typeuniverse.Any && right.Ownership == typeuniverse.Owned {
			return false
		}
	}

	if !c.satisfiesRequirement(ph.Requirement, right.Ownership) {
		prevResolved, prevValue := c.DB.AssignPlaceholder(left.Placeholder, typeuniverse.UnknownType())
		c.DB.RevertPlaceholder(left.Placeholder, prevResolved, prevValue)
		return false
	}

	assigned := right
	if ph.Requirement != typeuniverse.Any {
		assigned = right.WithOwnership(ph.Requirement)
	}
	prevResolved, prevValue := c.DB.AssignPlaceholder(left.Placeholder, assigned)
	_ = prevResolved
	_ = prevValue
	return true
}

// checkAgainstPlaceholder handles the right side being an unresolved
// Placeholder in a position where the left side is concrete: this
// happens when the caller passes a not-yet-inferred value where a
// concrete parameter type is declared. Treated symmetrically to
// assignPlaceholder with sides swapped, but the placeholder is assigned
// the left type since the left is what the right must conform to.
func (c *Checker) checkAgainstPlaceholder(env *Env, left, right typeuniverse.TypeRef, rules Rules) bool {
	ph := c.DB.Placeholder(right.Placeholder)
	if ph.Resolved {
		return c.check(env, left, ph.Value, rules, false)
	}
	if !c.satisfiesRequirement(ph.Requirement, left.Ownership) {
		return false
	}
	assigned := left
	if ph.Requirement != typeuniverse.Any {
		assigned = left.WithOwnership(ph.Requirement)
	}
	c.DB.AssignPlaceholder(right.Placeholder, assigned)
	return true
}

// satisfiesRequirement reports whether an ownership found on the other
// side of the check can satisfy a placeholder's declared requirement.
func (c *Checker) satisfiesRequirement(requirement, found typeuniverse.Ownership) bool {
	switch requirement {
	case typeuniverse.Any:
		return true
	case typeuniverse.Owned:
		return found == typeuniverse.Owned
	case typeuniverse.Uni:
		return found == typeuniverse.Uni || found == typeuniverse.Owned
	case typeuniverse.Ref, typeuniverse.Mut, typeuniverse.UniRef, typeuniverse.UniMut:
		return true // a borrow requirement is satisfied by any ownership; the
		// borrow itself is taken at the use site, not at assignment time.
	default:
		return true
	}
}
