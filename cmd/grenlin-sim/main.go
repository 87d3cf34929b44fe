package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grenlab/grenlin/pkg/codec"
	"github.com/grenlab/grenlin/pkg/reports"
	"github.com/grenlab/grenlin/pkg/simulation"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "grenlin-sim: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("grenlin-sim", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	duration := fs.Float64("duration", simulation.DefaultConfig().Duration, "simulated time per input combination")
	step := fs.Float64("step", simulation.DefaultConfig().Step, "integration step size")
	level := fs.Float64("level", 10, "concentration for active inputs")
	format := fs.String("format", "csv", "output format: csv or json")
	output := fs.String("o", "", "output file (default stdout)")
	sequence := fs.Bool("sequence", false, "sweep all input on/off combinations in one run")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(os.Stderr)
			return flag.ErrHelp
		}
		return err
	}
	if fs.NArg() != 1 {
		usage(os.Stderr)
		return fmt.Errorf("expected exactly one network file, got %d arguments", fs.NArg())
	}

	_, model, err := codec.Load(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to load network: %w", err)
	}

	cfg := simulation.Config{Duration: *duration, Step: *step}

	var result *simulation.Result
	if *sequence {
		combinations := simulation.InputCombinations(len(model.InputSpeciesNames), *level)
		result, err = simulation.SimulateSequence(model, combinations, cfg)
	} else {
		inputs := make([]float64, len(model.InputSpeciesNames))
		for i := range inputs {
			inputs[i] = *level
		}
		result, err = simulation.SimulateSingle(model, inputs, cfg)
	}
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	gen, ok := reports.ForFormat(reports.Format(*format))
	if !ok {
		return fmt.Errorf("unknown format %q (want csv or json)", *format)
	}
	r, err := gen.Generate(result)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	w := stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if _, err := io.Copy(w, r); err != nil {
		return err
	}
	return nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: grenlin-sim [flags] network.grn")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -duration t   simulated time per input combination (default 100)")
	fmt.Fprintln(w, "  -step h       integration step size (default 0.1)")
	fmt.Fprintln(w, "  -level c      concentration for active inputs (default 10)")
	fmt.Fprintln(w, "  -format f     output format: csv or json (default csv)")
	fmt.Fprintln(w, "  -o file       write the report to a file instead of stdout")
	fmt.Fprintln(w, "  -sequence     sweep all input on/off combinations in one run")
}
