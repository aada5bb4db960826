package typeuniverse

// Convenience constructors. Kept separate from typeref.go so the tagged
// union definition stays readable on its own.

func TypeInstance(o Ownership, id TypeID, args *TypeArguments) TypeRef {
	return TypeRef{Ownership: o, Enum: TypeEnum{Kind: EnumTypeInstance, TypeID: id, TypeArgs: args}}
}

func TraitInstance(o Ownership, id TraitID, args *TypeArguments, selfFlag bool) TypeRef {
	return TypeRef{Ownership: o, Enum: TypeEnum{Kind: EnumTraitInstance, TraitID: id, TypeArgs: args, SelfTypeFlag: selfFlag}}
}

func TypeParameter(o Ownership, id ParameterID) TypeRef {
	return TypeRef{Ownership: o, Enum: TypeEnum{Kind: EnumTypeParameter, ParamID: id}}
}

func RigidTypeParameter(o Ownership, id ParameterID) TypeRef {
	return TypeRef{Ownership: o, Enum: TypeEnum{Kind: EnumRigidTypeParameter, ParamID: id}}
}

func AtomicTypeParameter(o Ownership, id ParameterID) TypeRef {
	return TypeRef{Ownership: o, Enum: TypeEnum{Kind: EnumAtomicTypeParameter, ParamID: id}}
}

func ClosureType(o Ownership, id ClosureID) TypeRef {
	return TypeRef{Ownership: o, Enum: TypeEnum{Kind: EnumClosure, ClosureID: id}}
}

func ForeignType(kind ForeignKind) TypeRef {
	return TypeRef{Ownership: Owned, Enum: TypeEnum{Kind: EnumForeign, Foreign: kind}}
}

func TypeValue(o Ownership, id TypeID) TypeRef {
	return TypeRef{Ownership: o, Enum: TypeEnum{Kind: EnumType, TypeID: id}}
}

func TraitValue(o Ownership, id TraitID) TypeRef {
	return TypeRef{Ownership: o, Enum: TypeEnum{Kind: EnumTrait, TraitID: id}}
}

func ModuleType(o Ownership, id ModuleID) TypeRef {
	return TypeRef{Ownership: o, Enum: TypeEnum{Kind: EnumModule, ModuleID: id}}
}

func NeverType() TypeRef         { return TypeRef{Ownership: Never} }
func ErrorType() TypeRef         { return TypeRef{Ownership: ErrorKind} }
func UnknownType() TypeRef       { return TypeRef{Ownership: Unknown} }
func PlaceholderType(id PlaceholderID) TypeRef {
	return TypeRef{Ownership: PlaceholderKind, Placeholder: id}
}

// IsValueType reports whether t's concrete type is one of the small
// immutable value types (Int, Float, Bool, Nil, String, or any Foreign
// type) for which ownership
// qualifiers collapse: Int <: ref Int holds unconditionally because an
// Int value IS its own borrow.
func (db *Database) IsValueType(t TypeRef) bool {
	r := db.Resolve(t)
	if r.Enum.Kind == EnumForeign {
		return true
	}
	if r.Enum.Kind == EnumTypeInstance || r.Enum.Kind == EnumType {
		switch db.TypeName(r.Enum.TypeID) {
		case "Int", "Float", "Bool", "Nil", "String":
			return true
		}
	}
	return false
}
