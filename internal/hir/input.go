// Package hir runs the fixed pipeline of type-definition passes over
// parsed modules: each pass iterates every module before
// the next pass begins, writing to a shared diag.Sink and halting the
// pipeline at the first pass that produced errors.
//
// The lexer/parser are out of scope; this package consumes
// a minimal declarative input shape a parser would produce: just
// enough structure (type/trait/impl/field/variant declarations) for the
// passes below to populate internal/typeuniverse.Database.
package hir

import (
	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/typeuniverse"
)

// Hard ceilings on type shape: a global per-type field count
// ceiling, a members-per-variant ceiling derived from it (fields minus
// the reserved tag slot), and a variants-per-enum ceiling.
const (
	FieldsLimit   = 127
	MaxMembers    = FieldsLimit - 1
	VariantsLimit = 127
)

type ModuleInput struct {
	Name  string
	Types []TypeDeclInput
}

type TypeKind int

const (
	KindRegular TypeKind = iota
	KindEnum
	KindExtern
	KindMain
)

type TypeDeclInput struct {
	Name       string
	Kind       TypeKind
	Visibility typeuniverse.Visibility
	Location   diag.Location

	Params   []ParamDeclInput
	Fields   []FieldDeclInput   // only meaningful for non-enum kinds
	Variants []VariantDeclInput // only meaningful for KindEnum

	Impls []ImplDeclInput
}

type ParamDeclInput struct {
	Name         string
	Mutable      bool
	Requirements []string // trait names this parameter must satisfy
}

type FieldDeclInput struct {
	Name string
	Type typeuniverse.TypeRef
}

type VariantDeclInput struct {
	Name    string
	Members []FieldDeclInput
}

type ImplDeclInput struct {
	TraitName string
	TraitArgs []typeuniverse.TypeRef
	Bounds    map[string]string // impl parameter name -> extra requirement param name
	Location  diag.Location
}

type TraitDeclInput struct {
	Name          string
	Visibility    typeuniverse.Visibility
	Params        []ParamDeclInput
	RequiredSuper []string
	Location      diag.Location
}

// Program is the full input to the pipeline: one ModuleInput per module
// plus the trait declarations (kept separate from TypeDeclInput because
// traits and types share a namespace but not a definition shape).
type Program struct {
	Modules []*ModuleInput
	Traits  []ModuleTraits
}

type ModuleTraits struct {
	Module string
	Traits []TraitDeclInput
}
