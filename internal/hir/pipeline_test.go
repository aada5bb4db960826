package hir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/ailang/internal/typeuniverse"
)

func TestPipelineDefinesAndImplementsTraits(t *testing.T) {
	db := typeuniverse.NewDatabase()
	s := NewState(db)

	prog := &Program{
		Traits: []ModuleTraits{
			{Module: "app", Traits: []TraitDeclInput{
				{Name: "ToString", Visibility: typeuniverse.VisPublic},
			}},
		},
		Modules: []*ModuleInput{
			{Name: "app", Types: []TypeDeclInput{
				{
					Name:       "Point",
					Kind:       KindRegular,
					Visibility: typeuniverse.VisPublic,
					Fields: []FieldDeclInput{
						{Name: "x", Type: typeuniverse.ForeignType(typeuniverse.ForeignInt64)},
						{Name: "y", Type: typeuniverse.ForeignType(typeuniverse.ForeignInt64)},
					},
					Impls: []ImplDeclInput{
						{TraitName: "ToString"},
					},
				},
			}},
		},
	}

	ok := Run(s, prog)
	require.True(t, ok, "%v", s.Diags.All())

	pointID, found := s.resolveType("app", "Point")
	require.True(t, found)
	def := s.DB.TypeDef(pointID)
	require.Len(t, def.Fields, 2)

	toStringID, found := s.resolveTrait("app", "ToString")
	require.True(t, found)
	_, implemented := s.DB.ImplementationOf(pointID, toStringID)
	require.True(t, implemented)

	// prelude symbols are visible even though "app" never imported them
	_, hasInt := s.resolveType("app", "Int")
	require.True(t, hasInt)
}

func TestPipelineRejectsDuplicateType(t *testing.T) {
	db := typeuniverse.NewDatabase()
	s := NewState(db)
	prog := &Program{
		Modules: []*ModuleInput{
			{Name: "app", Types: []TypeDeclInput{
				{Name: "Dup", Kind: KindRegular},
				{Name: "Dup", Kind: KindRegular},
			}},
		},
	}
	ok := Run(s, prog)
	require.False(t, ok)
	require.True(t, s.Diags.HasErrors())
}

func TestEnumReservesTagField(t *testing.T) {
	db := typeuniverse.NewDatabase()
	s := NewState(db)
	prog := &Program{
		Modules: []*ModuleInput{
			{Name: "app", Types: []TypeDeclInput{
				{
					Name: "Option",
					Kind: KindEnum,
					Variants: []VariantDeclInput{
						{Name: "Some", Members: []FieldDeclInput{{Name: "value", Type: typeuniverse.ForeignType(typeuniverse.ForeignInt64)}}},
						{Name: "None"},
					},
				},
			}},
		},
	}
	ok := Run(s, prog)
	require.True(t, ok, "%v", s.Diags.All())

	id, _ := s.resolveType("app", "Option")
	def := s.DB.TypeDef(id)
	require.True(t, def.IsEnum)
	require.Len(t, def.Variants, 2)
	require.Equal(t, enumTagFieldName, s.DB.Field(def.Fields[0]).Name)
}
