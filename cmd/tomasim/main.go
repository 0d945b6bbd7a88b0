// Package main provides the entry point for tomasim.
// tomasim runs synthetic instruction traces through a Tomasulo
// dynamic-scheduling timing model and reports cycle counts.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/tomasim/benchmarks"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

var (
	benchName  = flag.String("bench", "all", "Benchmark to run, or \"all\"")
	configPath = flag.String("config", "", "Path to machine configuration JSON file")
	debug      = flag.Bool("debug", false, "Log every pipeline event to stderr")
	dumpConfig = flag.String("dump-config", "", "Write the effective machine configuration to this path and exit")
	useEngine  = flag.Bool("engine", false, "Drive the pipeline with an akita serial engine")
	jsonOutput = flag.Bool("json", false, "Output results as JSON")
	list       = flag.Bool("list", false, "List the available benchmarks and exit")
	verbose    = flag.Bool("v", false, "Print per-instruction stage cycles")
)

func main() {
	flag.Parse()

	if *list {
		listBenchmarks(os.Stdout)
		return
	}

	machine, err := loadMachine(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading machine config: %v\n", err)
		os.Exit(1)
	}

	if *dumpConfig != "" {
		if err := machine.SaveConfig(*dumpConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing machine config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	selected, err := selectBenchmarks(*benchName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run with -list to see the available benchmarks.\n")
		os.Exit(1)
	}

	options := runOptions{
		machine: machine,
		engine:  *useEngine,
		json:    *jsonOutput,
		verbose: *verbose,
	}
	if *debug {
		options.logger = newDebugLogger(os.Stderr)
	}
	if err := runTiming(selected, options, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	machine *latency.Config
	engine  bool
	json    bool
	verbose bool
	logger  *logrus.Logger
}

func newDebugLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logger
}

// loadMachine returns the default machine or the one described by the
// JSON file at path.
func loadMachine(path string) (*latency.Config, error) {
	if path == "" {
		return latency.DefaultConfig(), nil
	}

	machine, err := latency.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := machine.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return machine, nil
}

// selectBenchmarks returns every microbenchmark for "all", or the one
// with the given name.
func selectBenchmarks(name string) ([]benchmarks.Benchmark, error) {
	all := benchmarks.GetMicrobenchmarks()
	if name == "all" {
		return all, nil
	}

	for _, b := range all {
		if b.Name == name {
			return []benchmarks.Benchmark{b}, nil
		}
	}
	return nil, fmt.Errorf("unknown benchmark %q", name)
}

func listBenchmarks(w io.Writer) {
	for _, b := range benchmarks.GetMicrobenchmarks() {
		_, _ = fmt.Fprintf(w, "%-24s %s\n", b.Name, b.Description)
	}
}

// runTiming runs the selected benchmarks and writes the report to w.
func runTiming(selected []benchmarks.Benchmark, options runOptions, w io.Writer) error {
	config := benchmarks.DefaultConfig()
	config.Machine = options.machine
	config.UseEngine = options.engine
	config.Verbose = options.verbose
	config.Output = w
	if options.logger != nil {
		config.Hooks = []sim.Hook{pipeline.NewEventLogger(options.logger)}
	}

	harness := benchmarks.NewHarness(config)
	harness.AddBenchmarks(selected)

	results, err := harness.RunAll()
	if err != nil {
		return err
	}

	if options.json {
		return harness.PrintJSON(results)
	}

	m := options.machine
	_, _ = fmt.Fprintf(w, "Machine: queue=%d int_rs=%d fp_rs=%d int_fu=%dx%d fp_fu=%dx%d\n\n",
		m.InstrQueueSize, m.IntRSSize, m.FPRSSize,
		m.IntFUCount, m.IntFULatency, m.FPFUCount, m.FPFULatency)
	harness.PrintResults(results)
	return nil
}
