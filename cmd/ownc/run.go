package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sunholo/ailang/internal/bytecode"
	"github.com/sunholo/ailang/internal/config"
	"github.com/sunholo/ailang/internal/vm"
)

func loadConfig() config.Config {
	if cfgPath == "" {
		return config.Default()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; using defaults\n", err)
		return config.Default()
	}
	return cfg
}

// demoModule builds a small program exercising the VM end to end: it
// computes a value, writes it to STDOUT, and terminates the main
// process cleanly. This stands in for the out-of-scope bytecode file
// reader.
func demoModule() *bytecode.Module {
	lits := bytecode.NewConstantCache()
	greeting := lits.String("ownc virtual machine\n")

	code := &bytecode.CompiledCode{
		Name:           "main",
		File:           "demo.own",
		RegistersCount: 4,
		Literals:       lits,
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpSetString, Arg0: 0, Arg1: greeting},
			{Op: bytecode.OpStdoutWrite, Arg0: 1, Arg1: 0},
			{Op: bytecode.OpSetInt, Arg0: 2, Arg1: 0},
			{Op: bytecode.OpReturn, Arg0: 0, Arg1: 2},
		},
	}
	return bytecode.NewModule("demo", "demo.own", code, lits)
}

func newRunCmd() *cobra.Command {
	var repl bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the demo program on the VM, or start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if repl {
				return runRepl(cfg)
			}
			machine := vm.New(cfg)
			mod := demoModule()
			machine.Modules.Register(mod)
			os.Exit(machine.RunMain(mod))
			return nil
		},
	}
	cmd.Flags().BoolVar(&repl, "repl", false, "start an interactive expression session")
	return cmd
}
