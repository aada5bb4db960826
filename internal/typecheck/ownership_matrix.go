package typecheck

import "github.com/sunholo/ailang/internal/typeuniverse"

// checkOwnership implements the `(left_kind, right_kind)` compatibility
// ownership compatibility matrix. Returns (result, handled); handled is
// false only when the pair needs no ownership gate at all (both Owned),
// in which case the caller proceeds straight to shape comparison.
func (c *Checker) checkOwnership(left, right typeuniverse.TypeRef, rules Rules, outer bool) (ok bool, handled bool) {
	lo, ro := left.Ownership, right.Ownership

	if lo == typeuniverse.Owned && ro == typeuniverse.Owned {
		return true, false
	}

	valueType := c.DB.IsValueType(left)

	// Value types collapse all borrow distinctions: Int <: ref Int,
	// Int <: uni Int, ref Int <: Int all hold unconditionally.
	if valueType {
		return true, true
	}

	switch lo {
	case typeuniverse.Owned:
		switch ro {
		case typeuniverse.Ref, typeuniverse.Mut, typeuniverse.UniRef, typeuniverse.UniMut:
			// ref T / mut T is never assignable to a plain owned T.
			return false, true
		case typeuniverse.Uni:
			return rules.UniCompatibleWithOwned, true
		default:
			return true, true
		}

	case typeuniverse.Ref:
		switch ro {
		case typeuniverse.Owned:
			// T -> ref T only holds via the implicit-root-ref widening,
			// and only at the outermost argument position.
			return rules.ImplicitRootRef && outer, true
		case typeuniverse.Ref, typeuniverse.UniRef:
			return true, true
		case typeuniverse.Mut, typeuniverse.UniMut:
			return true, true // mut T is a stricter capability than ref T
		case typeuniverse.Uni:
			return rules.UniCompatibleWithOwned, true
		default:
			return true, true
		}

	case typeuniverse.Mut:
		switch ro {
		case typeuniverse.Owned:
			return rules.ImplicitRootRef && outer, true
		case typeuniverse.Mut, typeuniverse.UniMut:
			return true, true
		case typeuniverse.Ref, typeuniverse.UniRef:
			return false, true // cannot widen an immutable borrow into mut
		default:
			return true, true
		}

	case typeuniverse.Uni:
		switch ro {
		case typeuniverse.Owned, typeuniverse.Uni:
			return true, true
		default:
			return false, true
		}

	case typeuniverse.UniRef:
		switch ro {
		case typeuniverse.UniRef, typeuniverse.Uni:
			return true, true
		case typeuniverse.Ref:
			return false, true
		default:
			return true, true
		}

	case typeuniverse.UniMut:
		switch ro {
		case typeuniverse.UniMut, typeuniverse.Uni:
			return true, true
		default:
			return false, true
		}

	case typeuniverse.Any, typeuniverse.Pointer:
		return true, true
	}

	return true, false
}
