package typecheck

import "github.com/sunholo/ailang/internal/typeuniverse"

// Env is the checker's environment: two TypeArguments maps (one per side
// being compared) plus optional Self substitutions, as
// 4.1 describes. A nil *TypeArguments behaves as an empty map.
type Env struct {
	LeftArgs  *typeuniverse.TypeArguments
	RightArgs *typeuniverse.TypeArguments
	LeftSelf  *typeuniverse.TypeRef
	RightSelf *typeuniverse.TypeRef
}

func NewEnv() *Env {
	return &Env{LeftArgs: typeuniverse.NewTypeArguments(), RightArgs: typeuniverse.NewTypeArguments()}
}

// copyBoundIntoRight implements the bounds-checking mutation rule: when
// checking bounds, the current assignment of a parameter on the left is
// copied into the right side so subsequent checks see the concrete
// substitution.
func (e *Env) copyBoundIntoRight(param typeuniverse.ParameterID) {
	if v, ok := e.LeftArgs.Get(param); ok {
		e.RightArgs.Set(param, v)
	}
}
