package hir

import (
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/typeuniverse"
)

// DefineFieldsAndVariants assigns field indices, enforces the global
// field-count ceiling, disallows fields on enum/extern/main classes,
// enforces the per-variant member ceiling and the per-enum variant
// ceiling, and reserves an integer tag field for enum classes.
type DefineFieldsAndVariants struct{}

func (DefineFieldsAndVariants) Name() string { return "define-fields-and-variants" }

const enumTagFieldName = "@tag"

func (DefineFieldsAndVariants) Run(s *State, prog *Program) {
	for _, mod := range prog.Modules {
		for i := range mod.Types {
			decl := &mod.Types[i]
			typeID, ok := s.resolveType(mod.Name, decl.Name)
			if !ok {
				continue
			}

			switch decl.Kind {
			case KindEnum:
				if len(decl.Fields) > 0 {
					s.Diags.Errorf(diag.InvalidType, decl.Location, "enum classes cannot declare fields directly")
				}
				if len(decl.Variants) > VariantsLimit {
					s.Diags.Errorf(diag.InvalidType, decl.Location, "'%s' declares more than %d variants", decl.Name, VariantsLimit)
				}
				// Reserve the tag field first so it always occupies index 0.
				s.DB.DefineField(typeID, enumTagFieldName, 0, intTagType())
				for vi, v := range decl.Variants {
					if len(v.Members) > MaxMembers {
						s.Diags.Errorf(diag.InvalidType, decl.Location, "variant '%s' of '%s' declares more than %d members", v.Name, decl.Name, MaxMembers)
						continue
					}
					var ids []typeuniverse.FieldID
					for mi, m := range v.Members {
						ids = append(ids, s.DB.DefineField(typeID, m.Name, mi+1, m.Type))
					}
					s.DB.DefineVariant(typeID, v.Name, vi, ids)
				}

			case KindExtern, KindMain:
				if len(decl.Fields) > 0 {
					s.Diags.Errorf(diag.InvalidType, decl.Location, "'%s' classes cannot declare fields", kindName(decl.Kind))
				}

			default:
				if len(decl.Fields) > FieldsLimit {
					s.Diags.Errorf(diag.InvalidType, decl.Location, "'%s' declares more than %d fields", decl.Name, FieldsLimit)
					continue
				}
				for idx, f := range decl.Fields {
					s.DB.DefineField(typeID, f.Name, idx, f.Type)
				}
			}
		}
	}
}

// intTagType is the type given to the reserved enum discriminant field:
// a raw machine integer, never surfaced to user code.
func intTagType() typeuniverse.TypeRef {
	return typeuniverse.ForeignType(typeuniverse.ForeignInt64)
}

func kindName(k TypeKind) string {
	switch k {
	case KindExtern:
		return "extern"
	case KindMain:
		return "main"
	default:
		return "regular"
	}
}
