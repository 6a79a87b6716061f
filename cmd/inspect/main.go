// Command inspect builds runtime values from a small literal syntax,
// prints their canonical rendering, and dumps allocator state. It is the
// development harness for the managed runtime.
//
// Usage:
//
//	inspect -expr '(1, "two", [> 1, 2])'
//	inspect -expr 'Some(Err(42))' -stats
//	inspect -i
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	grainruntime "github.com/wippyai/grain-runtime"
	"github.com/wippyai/grain-runtime/runtime"
)

func main() {
	var (
		expr        = flag.String("expr", "", "Value literal to build and print")
		stats       = flag.Bool("stats", false, "Dump allocator state after evaluation")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *interactive {
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *expr == "" && !*stats {
		fmt.Fprintln(os.Stderr, "Usage: inspect -expr '<literal>' [-stats]")
		fmt.Fprintln(os.Stderr, "       inspect -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(*expr, *stats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(expr string, stats bool) error {
	mem := grainruntime.NewArrayMemory(2)
	rt, err := runtime.New(runtime.Config{Memory: mem, Grower: mem})
	if err != nil {
		return err
	}

	if expr != "" {
		v, err := parseValue(rt, expr)
		if err != nil {
			return err
		}
		out, err := rt.ToString(v)
		if err != nil {
			return err
		}
		fmt.Println(clampToTerminal(out))
	}

	if stats {
		st := rt.Allocator().Stats()
		fmt.Printf("heap units:   %d\n", st.HeapUnits)
		fmt.Printf("in use:       %d\n", st.InUseUnits())
		fmt.Printf("free units:   %d (%d small blocks, %d large blocks)\n",
			st.FreeUnits, st.SmallBlocks, st.LargeBlocks)
		fmt.Printf("grows:        %d\n", st.Grows)
	}
	return nil
}

// clampToTerminal truncates single-line output to the terminal width so
// giant arrays stay readable in a pipeline-free shell.
func clampToTerminal(s string) string {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 4 {
		return s
	}
	if len(s) <= width {
		return s
	}
	for _, r := range s {
		if r == '\n' {
			return s // multi-line renderings stay intact
		}
	}
	return s[:width-4] + " ..."
}
