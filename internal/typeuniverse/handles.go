package typeuniverse

// Handles are opaque, stable, cheap-to-copy integer references into the
// Database. A zero value is never a valid handle; the Database reserves
// index 0 as a sentinel.

type TypeID int
type TraitID int
type ParameterID int
type FieldID int
type VariantID int
type ModuleID int
type ClosureID int

const (
	NoType      TypeID      = 0
	NoTrait     TraitID     = 0
	NoParameter ParameterID = 0
	NoField     FieldID     = 0
	NoVariant   VariantID   = 0
	NoModule    ModuleID    = 0
)

// PlaceholderID identifies an inference hole. Distinct from the other
// handle kinds because placeholders are created and discarded far more
// often, by the checker rather than by HIR passes.
type PlaceholderID int
