package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sunholo/ailang/internal/diag"
	"github.com/sunholo/ailang/internal/hir"
	"github.com/sunholo/ailang/internal/typecheck"
	"github.com/sunholo/ailang/internal/typeuniverse"
)

// demoProgram builds a small fixture module: a Point type implementing
// ToString, standing in for what a parser's output would otherwise
// supply to the HIR passes.
func demoProgram() *hir.Program {
	return &hir.Program{
		Traits: []hir.ModuleTraits{
			{Module: "app", Traits: []hir.TraitDeclInput{
				{Name: "ToString", Visibility: typeuniverse.VisPublic},
			}},
		},
		Modules: []*hir.ModuleInput{
			{Name: "app", Types: []hir.TypeDeclInput{
				{
					Name:       "Point",
					Kind:       hir.KindRegular,
					Visibility: typeuniverse.VisPublic,
					Fields: []hir.FieldDeclInput{
						{Name: "x", Type: typeuniverse.ForeignType(typeuniverse.ForeignInt64)},
						{Name: "y", Type: typeuniverse.ForeignType(typeuniverse.ForeignInt64)},
					},
					Impls: []hir.ImplDeclInput{
						{TraitName: "ToString"},
					},
				},
			}},
		},
	}
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "run the HIR definition passes and the assignability checker over a fixture module",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := typeuniverse.NewDatabase()
			state := hir.NewState(db)
			prog := demoProgram()

			ok := hir.Run(state, prog)
			presenter := diag.NewPresenter(os.Stdout)
			presenter.PresentAll(state.Diags.All())
			if !ok {
				os.Exit(diag.ExitCode(state.Diags.All()))
			}

			pointID, found := state.ResolveType("app", "Point")
			if !found {
				return fmt.Errorf("internal error: Point not registered")
			}
			point := db.TypeDef(pointID)

			checker := typecheck.New(db)
			env := typecheck.NewEnv()
			self := typeuniverse.TypeRef{
				Ownership: typeuniverse.Owned,
				Enum:      typeuniverse.TypeEnum{Kind: typeuniverse.EnumType, TypeID: pointID},
			}
			assignable := checker.Check(env, self, self, typecheck.DefaultRules())
			fmt.Printf("module app: type %s (%d fields) assignable to itself: %v\n", point.Name, len(point.Fields), assignable)
			return nil
		},
	}
}
