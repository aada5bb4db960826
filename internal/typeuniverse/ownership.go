// Package typeuniverse implements the central type database for the language
// core: ownership-qualified types, generic parameters, trait instances,
// placeholders, and the bounds a trait implementation attaches to its
// parameters.
//
// Every entity (type definition, trait, field, variant, type parameter,
// module, placeholder) lives in a Database and is referenced from
// everywhere else by an opaque, cheap-to-copy handle. The database is
// the single owner of the underlying records. Methods and constructors
// have no records or handles in it.
package typeuniverse

// Ownership is the qualifier a TypeRef applies to its underlying type.
type Ownership int

const (
	Owned Ownership = iota
	Uni             // unique/sendable
	Ref             // immutable borrow
	Mut             // mutable borrow
	UniRef
	UniMut
	Any // generic / unconstrained
	Pointer
	// Sentinels
	Never
	ErrorKind
	Unknown
	PlaceholderKind
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return ""
	case Uni:
		return "uni "
	case Ref:
		return "ref "
	case Mut:
		return "mut "
	case UniRef:
		return "uni ref "
	case UniMut:
		return "uni mut "
	case Any:
		return "any "
	case Pointer:
		return "*"
	case Never:
		return "Never"
	case ErrorKind:
		return "Error"
	case Unknown:
		return "Unknown"
	case PlaceholderKind:
		return "Placeholder"
	default:
		return "?"
	}
}

// IsBorrow reports whether o denotes an immutable or mutable borrow,
// with or without uniqueness.
func (o Ownership) IsBorrow() bool {
	switch o {
	case Ref, Mut, UniRef, UniMut:
		return true
	default:
		return false
	}
}

// AllowsMutation reports whether values of this ownership may be
// mutated through the reference.
func (o Ownership) AllowsMutation() bool {
	return o == Mut || o == UniMut
}

// IsUnique reports whether o carries the "uni" (sendable) qualifier.
func (o Ownership) IsUnique() bool {
	switch o {
	case Uni, UniRef, UniMut:
		return true
	default:
		return false
	}
}
