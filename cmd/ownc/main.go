// Command ownc is the driver CLI: compile, run, fmt, gc-stats.
//
// Concrete source syntax (the lexer/parser) and the driver CLI itself are
// both treated as external collaborators by the core this binary wires
// together; compile, run and gc-stats exercise that core directly against
// small fixture programs built in Go rather than against parsed source
// files. fmt parses the source files it formats, and run --repl parses
// each expression it is given.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "ownc",
		Short: "ownc drives the type checker, pattern-match compiler, and VM",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML runtime config file")

	root.AddCommand(newCompileCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newFmtCmd())
	root.AddCommand(newGCStatsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
