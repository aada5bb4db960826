package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sunholo/ailang/internal/format"
)

func newFmtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt [files...]",
		Short: "format source files in place, or STDIN to STDOUT",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return format.Stdin(os.Stdin, os.Stdout)
			}
			return format.Paths(args)
		},
	}
}
