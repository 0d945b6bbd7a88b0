// Package benchmarks provides synthetic trace kernels and a harness that
// runs them through the Tomasulo engine and reports timing results.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// RunID tells apart repeated runs of the same benchmark
	RunID string `json:"run_id"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count returned by the engine
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// Instructions is the number of fetched instructions (traps excluded)
	Instructions uint64 `json:"instructions"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// Broadcasts is the number of results put on the CDB
	Broadcasts uint64 `json:"broadcasts"`

	// StoresRetired is the number of stores retired at execute completion
	StoresRetired uint64 `json:"stores_retired"`

	// ControlBypassed counts control-flow instructions and no-ops that
	// never took a reservation station
	ControlBypassed uint64 `json:"control_bypassed"`

	// TrapsSkipped is the number of traps skipped at fetch
	TrapsSkipped uint64 `json:"traps_skipped"`

	// DataHazards is the number of RAW dependencies created by renaming
	DataHazards uint64 `json:"data_hazards"`

	// Structural stalls by stage
	FetchStalls    uint64 `json:"fetch_stalls"`
	DispatchStalls uint64 `json:"dispatch_stalls"`
	IssueStalls    uint64 `json:"issue_stalls"`
	CDBStalls      uint64 `json:"cdb_stalls"`

	// Timings holds per-instruction stage cycles, only in verbose mode
	Timings []pipeline.Timing `json:"timings,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single synthetic kernel.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Build returns a fresh trace of the kernel
	Build func() insts.SliceTrace
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Machine is the engine configuration (default: latency.DefaultConfig)
	Machine *latency.Config

	// UseEngine drives each run with an akita serial engine instead of
	// calling the pipeline directly
	UseEngine bool

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose records and prints per-instruction timings
	Verbose bool

	// Hooks are attached to every pipeline the harness creates
	Hooks []sim.Hook
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Machine: latency.DefaultConfig(),
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Machine == nil {
		config.Machine = latency.DefaultConfig()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results. It fails before
// running anything if the machine configuration is invalid, and stops at
// the first invalid trace.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	if err := h.config.Machine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid machine config: %w", err)
	}

	results := make([]BenchmarkResult, 0, len(h.benchmarks))
	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(bench)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	trace := bench.Build()
	if err := insts.ValidateTrace(trace, h.config.Machine.NumRegs); err != nil {
		return BenchmarkResult{}, fmt.Errorf("benchmark %s: %w", bench.Name, err)
	}

	opts := []pipeline.PipelineOption{
		pipeline.WithConfig(h.config.Machine),
		pipeline.WithName(bench.Name),
	}

	start := time.Now()
	pipe, err := h.simulate(trace, opts)
	wallTime := time.Since(start)
	if err != nil {
		return BenchmarkResult{}, fmt.Errorf("benchmark %s: %w", bench.Name, err)
	}

	stats := pipe.Stats()
	result := BenchmarkResult{
		Name:            bench.Name,
		RunID:           xid.New().String(),
		Description:     bench.Description,
		SimulatedCycles: stats.Cycles,
		Instructions:    stats.Instructions,
		CPI:             stats.CPI(),
		Broadcasts:      stats.Broadcasts,
		StoresRetired:   stats.StoresRetired,
		ControlBypassed: stats.ControlBypassed,
		TrapsSkipped:    stats.TrapsSkipped,
		DataHazards:     stats.DataHazards,
		FetchStalls:     stats.FetchStalls,
		DispatchStalls:  stats.DispatchStalls,
		IssueStalls:     stats.IssueStalls,
		CDBStalls:       stats.CDBStalls,
		WallTime:        wallTime,
	}

	if h.config.Verbose {
		result.Timings = pipe.Timings()
	}

	return result, nil
}

func (h *Harness) simulate(
	trace insts.Trace,
	opts []pipeline.PipelineOption,
) (*pipeline.Pipeline, error) {
	if !h.config.UseEngine {
		pipe := pipeline.NewPipeline(trace, opts...)
		h.attachHooks(pipe)
		pipe.Run()
		return pipe, nil
	}

	engine := sim.NewSerialEngine()
	c := core.NewCore("Core", engine, 1*sim.GHz, trace, opts...)
	h.attachHooks(c.Pipeline())
	c.Start()
	if err := engine.Run(); err != nil {
		return nil, err
	}

	return c.Pipeline(), nil
}

func (h *Harness) attachHooks(pipe *pipeline.Pipeline) {
	for _, hook := range h.config.Hooks {
		pipe.AcceptHook(hook)
	}
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output

	_, _ = fmt.Fprintln(w, "=== Tomasulo Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(w, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "Benchmark: %s (run %s)\n", r.Name, r.RunID)
		_, _ = fmt.Fprintf(w, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintln(w, "  --- Timing ---")
		_, _ = fmt.Fprintf(w, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(w, "  Instructions:         %d\n", r.Instructions)
		_, _ = fmt.Fprintf(w, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(w, "  Broadcasts:           %d\n", r.Broadcasts)
		_, _ = fmt.Fprintf(w, "  Stores Retired:       %d\n", r.StoresRetired)
		_, _ = fmt.Fprintf(w, "  Control Bypassed:     %d\n", r.ControlBypassed)
		if r.TrapsSkipped > 0 {
			_, _ = fmt.Fprintf(w, "  Traps Skipped:        %d\n", r.TrapsSkipped)
		}
		_, _ = fmt.Fprintf(w, "  Data Hazards:         %d\n", r.DataHazards)
		_, _ = fmt.Fprintln(w, "  --- Stalls ---")
		_, _ = fmt.Fprintf(w, "  Fetch (queue full):   %d\n", r.FetchStalls)
		_, _ = fmt.Fprintf(w, "  Dispatch (no RS):     %d\n", r.DispatchStalls)
		_, _ = fmt.Fprintf(w, "  Issue (no FU):        %d\n", r.IssueStalls)
		_, _ = fmt.Fprintf(w, "  CDB (bus busy):       %d\n", r.CDBStalls)

		if len(r.Timings) > 0 {
			_, _ = fmt.Fprintln(w, "  --- Instructions ---")
			_, _ = fmt.Fprintln(w, "  pos  dispatch  issue  execute  cdb")
			for i, t := range r.Timings {
				_, _ = fmt.Fprintf(w, "  %3d  %8d  %5d  %7d  %3d\n",
					i, t.Dispatch, t.Issue, t.Execute, t.CDB)
			}
		}

		_, _ = fmt.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(w, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,broadcasts,stores_retired,control_bypassed,traps_skipped,data_hazards,fetch_stalls,dispatch_stalls,issue_stalls,cdb_stalls")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.Instructions,
			r.CPI,
			r.Broadcasts,
			r.StoresRetired,
			r.ControlBypassed,
			r.TrapsSkipped,
			r.DataHazards,
			r.FetchStalls,
			r.DispatchStalls,
			r.IssueStalls,
			r.CDBStalls,
		)
	}
}

// PrintJSON outputs benchmark results as an indented JSON array.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	enc := json.NewEncoder(h.config.Output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}
