// Package typecheck implements the assignability/subtype/cast checker
// described by the type universe in internal/typeuniverse: check(env, left,
// right, rules) -> bool, plus the specialised entry points check_cast,
// check_return, check_argument, check_method, check_bounds, and
// type_implements_trait.
package typecheck

// Subtyping controls how much slack the checker gives trait upcasts.
type Subtyping int

const (
	SubtypingNo Subtyping = iota
	SubtypingRelaxed
	SubtypingStrict
)

// Kind selects the overall checking mode, affecting how a returned
// Any(Parameter) or a numeric conversion is treated.
type Kind int

const (
	Regular Kind = iota
	Cast
	Return
)

// Rules mirrors the reference checker's rule record.
type Rules struct {
	// Subtyping: Relaxed allows a one-step trait upcast and is consumed
	// on first use; Strict additionally requires every super-trait the
	// target trait names to be implemented on the concrete type.
	Subtyping Subtyping

	// ImplicitRootRef: at the outermost check, T is assignable to ref T
	// / mut T. Used at argument positions; disabled for nested checks.
	ImplicitRootRef bool

	// UniCompatibleWithOwned: whether uni T may flow into a position
	// expecting an owned T. Disabled when checking trait-implementation
	// parameters.
	UniCompatibleWithOwned bool

	// RigidParameters: compare type parameters as rigid ones. checkShape
	// treats a type parameter on the left the same whether or not it is
	// set (it matches only the same parameter), so the flag changes no
	// result; unresolved Any(Parameter) positions are not turned into
	// rigid parameters.
	RigidParameters bool

	// AllowNever: whether the bottom type Never is an acceptable right
	// side. Disabled when checking a type-argument value.
	AllowNever bool

	Kind Kind
}

// DefaultRules is what bare `check` uses unless a caller overrides it.
func DefaultRules() Rules {
	return Rules{
		Subtyping:              SubtypingNo,
		ImplicitRootRef:        false,
		UniCompatibleWithOwned: true,
		RigidParameters:        false,
		AllowNever:             true,
		Kind:                   Regular,
	}
}

// ArgumentRules is used by check_argument: the outermost position allows
// the implicit T -> ref T / mut T widening.
func ArgumentRules() Rules {
	r := DefaultRules()
	r.ImplicitRootRef = true
	return r
}

// BoundsRules is used by check_bounds when verifying a trait
// implementation's parameter bounds: uni-compatible-with-owned is
// switched off here, per the reference's empirical rule table.
func BoundsRules() Rules {
	r := DefaultRules()
	r.UniCompatibleWithOwned = false
	return r
}

// CastRules is used by check_cast.
func CastRules() Rules {
	r := DefaultRules()
	r.Kind = Cast
	r.Subtyping = SubtypingStrict
	return r
}

// ReturnRules is used by check_return: a returned Any(P) cannot be
// satisfied by an owned concrete value.
func ReturnRules() Rules {
	r := DefaultRules()
	r.Kind = Return
	return r
}

// consumeSubtyping implements Relaxed's consumed-on-first-use rule: once
// one trait upcast has been taken, nested checks compare exactly.
func (r Rules) consumeSubtyping() Rules {
	r.Subtyping = SubtypingNo
	return r
}
