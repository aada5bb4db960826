package typeuniverse

import (
	"fmt"
	"strings"
)

// ForeignKind enumerates the FFI-facing primitive numeric representations.
type ForeignKind int

const (
	ForeignNone ForeignKind = iota
	ForeignInt8
	ForeignInt16
	ForeignInt32
	ForeignInt64
	ForeignUInt8
	ForeignUInt16
	ForeignUInt32
	ForeignUInt64
	ForeignFloat32
	ForeignFloat64
)

func (f ForeignKind) String() string {
	switch f {
	case ForeignInt8:
		return "Int8"
	case ForeignInt16:
		return "Int16"
	case ForeignInt32:
		return "Int32"
	case ForeignInt64:
		return "Int64"
	case ForeignUInt8:
		return "UInt8"
	case ForeignUInt16:
		return "UInt16"
	case ForeignUInt32:
		return "UInt32"
	case ForeignUInt64:
		return "UInt64"
	case ForeignFloat32:
		return "Float32"
	case ForeignFloat64:
		return "Float64"
	default:
		return "none"
	}
}

// EnumKind tags which sum-type variant a TypeEnum value holds. Kept as an
// explicit tag (rather than relying purely on a type switch) because the
// checker dispatches on it in the hot assignability loop.
type EnumKind int

const (
	EnumTypeInstance EnumKind = iota
	EnumTraitInstance
	EnumTypeParameter
	EnumRigidTypeParameter
	EnumAtomicTypeParameter
	EnumClosure
	EnumForeign
	EnumType
	EnumTrait
	EnumModule
)

// TypeEnum is the tagged sum of everything a TypeRef can wrap, excluding
// the ownership qualifier and the top-level sentinels (those live on
// TypeRef directly since they have no inner payload).
type TypeEnum struct {
	Kind EnumKind

	// EnumTypeInstance / EnumType
	TypeID    TypeID
	TypeArgs  *TypeArguments

	// EnumTraitInstance / EnumTrait
	TraitID       TraitID
	SelfTypeFlag  bool // this TraitInstance stands for Self in its own impl

	// EnumTypeParameter / EnumRigidTypeParameter / EnumAtomicTypeParameter
	ParamID ParameterID

	// EnumClosure
	ClosureID ClosureID

	// EnumForeign
	Foreign ForeignKind

	// EnumModule
	ModuleID ModuleID
}

// TypeRef is a tagged sum over ownership kinds applied to a TypeEnum. The
// sentinel Ownership values (Never, ErrorKind, Unknown, PlaceholderKind)
// carry no TypeEnum payload; Placeholder additionally carries a
// PlaceholderID resolved through the owning Database.
type TypeRef struct {
	Ownership     Ownership
	Enum          TypeEnum
	Placeholder   PlaceholderID // valid iff Ownership == PlaceholderKind
}

// IsSentinel reports whether t is one of Never/Error/Unknown/Placeholder,
// i.e. carries no TypeEnum payload.
func (t TypeRef) IsSentinel() bool {
	switch t.Ownership {
	case Never, ErrorKind, Unknown, PlaceholderKind:
		return true
	default:
		return false
	}
}

// WithOwnership returns a copy of t with its ownership qualifier replaced.
// Sentinels are returned unchanged: you cannot re-qualify Never/Error/etc.
func (t TypeRef) WithOwnership(o Ownership) TypeRef {
	if t.IsSentinel() {
		return t
	}
	t.Ownership = o
	return t
}

// TypeArguments maps generic parameters to the concrete TypeRef assigned
// to them within one side of a check. Mutable: the checker copies an
// assignment from the left side into the right side when checking bounds.
type TypeArguments struct {
	byParam map[ParameterID]TypeRef
	order   []ParameterID // insertion order, for deterministic rendering
}

func NewTypeArguments() *TypeArguments {
	return &TypeArguments{byParam: make(map[ParameterID]TypeRef)}
}

func (a *TypeArguments) Get(p ParameterID) (TypeRef, bool) {
	if a == nil {
		return TypeRef{}, false
	}
	v, ok := a.byParam[p]
	return v, ok
}

func (a *TypeArguments) Set(p ParameterID, t TypeRef) {
	if _, exists := a.byParam[p]; !exists {
		a.order = append(a.order, p)
	}
	a.byParam[p] = t
}

func (a *TypeArguments) Params() []ParameterID {
	if a == nil {
		return nil
	}
	return append([]ParameterID(nil), a.order...)
}

// Clone returns a shallow independent copy so a bounds-check can mutate a
// scratch copy of the right side's arguments without touching the caller's.
func (a *TypeArguments) Clone() *TypeArguments {
	c := NewTypeArguments()
	for _, p := range a.order {
		c.Set(p, a.byParam[p])
	}
	return c
}

// String renders a TypeRef using the Database to look up human-readable
// names for handles. Used only for diagnostics; never for equality.
func (db *Database) String(t TypeRef) string {
	switch t.Ownership {
	case Never:
		return "Never"
	case ErrorKind:
		return "<error>"
	case Unknown:
		return "?"
	case PlaceholderKind:
		ph := db.Placeholder(t.Placeholder)
		if ph != nil && ph.Resolved {
			return db.String(ph.Value)
		}
		return fmt.Sprintf("%%%d", t.Placeholder)
	}

	prefix := t.Ownership.String()
	switch t.Enum.Kind {
	case EnumTypeInstance, EnumType:
		name := db.TypeName(t.Enum.TypeID)
		if t.Enum.TypeArgs != nil && len(t.Enum.TypeArgs.Params()) > 0 {
			var parts []string
			for _, p := range t.Enum.TypeArgs.Params() {
				v, _ := t.Enum.TypeArgs.Get(p)
				parts = append(parts, db.String(v))
			}
			return fmt.Sprintf("%s%s[%s]", prefix, name, strings.Join(parts, ", "))
		}
		return prefix + name
	case EnumTraitInstance, EnumTrait:
		name := db.TraitName(t.Enum.TraitID)
		if t.Enum.SelfTypeFlag {
			name = "Self(" + name + ")"
		}
		return prefix + name
	case EnumTypeParameter:
		return prefix + db.ParameterName(t.Enum.ParamID)
	case EnumRigidTypeParameter:
		return prefix + "rigid " + db.ParameterName(t.Enum.ParamID)
	case EnumAtomicTypeParameter:
		return prefix + "atomic " + db.ParameterName(t.Enum.ParamID)
	case EnumClosure:
		return fmt.Sprintf("%sClosure(%d)", prefix, t.Enum.ClosureID)
	case EnumForeign:
		return prefix + t.Enum.Foreign.String()
	case EnumModule:
		return prefix + "module:" + db.ModuleName(t.Enum.ModuleID)
	}
	return prefix + "<?>"
}
