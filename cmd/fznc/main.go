// Command fznc is the FlatZinc front-end's CLI surface (§6.3): it parses a
// .fzn file, runs the presolver and extraction scheduler, hands the
// schedule to a back-end adapter, and drives the reference search package
// to print a FlatZinc-conformant solution stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"

	"fzncore/internal/backend"
	"fzncore/internal/search"
	"fzncore/pkg/fzn"
	"fzncore/pkg/fznparse"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		color.Red("fznc: %s", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("fznc", flag.ContinueOnError)
	presolve := fs.Bool("presolve", true, "run the presolve fix-point before extraction")
	noPresolve := fs.Bool("no-presolve", false, "disable presolve (overrides --presolve)")
	workers := fs.Int("workers", 1, "number of parallel search workers (>1 switches to the parallel driver)")
	useSAT := fs.Bool("use_sat", false, "set Config.UseSAT (no pipeline stage reads it)")
	timeout := fs.Duration("timeout", 0, "wall-clock deadline for presolve and search (0 disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: fznc [flags] <model.fzn>")
	}
	path := fs.Arg(0)

	cfg := fzn.DefaultConfig()
	cfg.Presolve = *presolve && !*noPresolve
	cfg.Workers = *workers
	cfg.UseSAT = *useSAT
	if *timeout > 0 {
		cfg.Deadline = time.Now().Add(*timeout)
	}

	m, _, err := fznparse.ParseFile(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if *timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	if cfg.Presolve {
		if err := fzn.NewPresolver(m, cfg).Run(); err != nil {
			if errors.Is(err, fzn.ErrEmptyDomain) {
				fmt.Println("=====UNSATISFIABLE=====")
				return nil
			}
			return err
		}
	}

	fzn.Cleanup(m)

	schedule, err := fzn.NewSchedule(m)
	if err != nil {
		return err
	}

	adapter := backend.NewAdapter(backend.NewMemSolver())
	if err := adapter.Extract(schedule); err != nil {
		return err
	}

	var result search.Result
	if cfg.Workers > 1 {
		result = search.RunParallel(ctx, m, cfg.Workers)
	} else {
		result = search.Run(ctx, m)
	}

	printResult(m, result)
	return nil
}

// printResult renders a search.Result as a FlatZinc-conformant output
// stream (§6.3): a solution body followed by ten dashes, then the
// session-ending marker.
func printResult(m *fzn.Model, result search.Result) {
	if result.Feasible {
		printSolution(m, result.Assignment)
		fmt.Println("----------")
	}

	switch {
	case result.TimedOut:
		fmt.Println("%% TIMEOUT")
	case !result.Feasible && result.Complete:
		fmt.Println("=====UNSATISFIABLE=====")
	case result.Complete:
		fmt.Println("==========")
	}
}

// printSolution prints one line per output item, in declaration order, per
// §6.1's output_var/output_array grammar.
func printSolution(m *fzn.Model, assignment map[*fzn.Variable]int64) {
	for _, out := range m.Outputs {
		if len(out.Dims) == 0 {
			fmt.Printf("%s = %d;\n", out.Name, assignment[out.Vars[0]])
			continue
		}
		values := make([]string, len(out.Vars))
		for i, v := range out.Vars {
			values[i] = fmt.Sprintf("%d", assignment[v])
		}
		fmt.Printf("%s = array1d(%d..%d, %s);\n", out.Name, out.Dims[0].Lo, out.Dims[0].Hi, joinBracketed(values))
	}
}

func joinBracketed(values []string) string {
	out := "["
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out + "]"
}

// sortedVariableNames is used by tests to get a deterministic view over an
// assignment map.
func sortedVariableNames(assignment map[*fzn.Variable]int64) []string {
	names := make([]string, 0, len(assignment))
	for v := range assignment {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}
