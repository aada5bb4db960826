package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sunholo/ailang/internal/gc"
	"github.com/sunholo/ailang/internal/heap"
	"github.com/sunholo/ailang/internal/vm"
)

// newGCStatsCmd allocates a synthetic object graph in a scratch
// process and reports what young and mature cycles do with it.
func newGCStatsCmd() *cobra.Command {
	var objects int
	cmd := &cobra.Command{
		Use:   "gc-stats",
		Short: "run collection cycles over a synthetic heap and print statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			machine := vm.New(cfg)
			proc := machine.Spawn("primary")

			// A reachable chain plus an equal amount of garbage.
			root := proc.Allocator.NewYoung("root")
			prev := root
			for i := 0; i < objects; i++ {
				obj := proc.Allocator.NewYoung(i)
				prev.Attrs[fmt.Sprintf("n%d", i)] = heap.FromObject(obj)
				prev = obj
				proc.Allocator.NewYoung(i) // unreachable
			}
			proc.SetGlobal(0, heap.FromObject(root))

			heading := color.New(color.Bold)
			for cycle := 0; cycle < heap.YoungBuckets+1; cycle++ {
				result := machine.CollectYoung(proc)
				heading.Fprintf(os.Stdout, "young cycle %d\n", cycle+1)
				printResult(result)
			}
			result := machine.CollectMature(proc)
			heading.Fprintln(os.Stdout, "mature cycle")
			printResult(result)

			var frag float64
			blocks := 0
			for _, bk := range proc.Allocator.Generation().Young() {
				for _, b := range bk.Blocks() {
					frag += b.Fragmentation()
					blocks++
				}
			}
			if blocks > 0 {
				fmt.Printf("young fragmentation=%.2f over %d blocks\n", frag/float64(blocks), blocks)
			}
			fmt.Printf("blocks issued=%d free=%d recyclable=%d\n",
				machine.Global.Issued(), machine.Global.FreeBlocks(), machine.Global.RecyclableBlocks())
			return nil
		},
	}
	cmd.Flags().IntVar(&objects, "objects", 1000, "number of reachable objects to allocate")
	return cmd
}

func printResult(result gc.Result) {
	fmt.Printf("  marked=%d promoted=%d evacuated=%d freed_blocks=%d duration=%s\n",
		result.Stats.Marked, result.Stats.Promoted, result.Stats.Evacuated,
		result.Freed, result.Duration)
}
