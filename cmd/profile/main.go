// Package main provides a profiling wrapper for tomasim to identify
// performance bottlenecks of the engine on long traces.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

var (
	useEngine  = flag.Bool("engine", false, "Drive the pipeline with an akita serial engine")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	length     = flag.Int("n", 1000000, "number of trace instructions to generate")
	seed       = flag.Int64("seed", 1, "seed of the trace generator")
)

func main() {
	flag.Parse()

	if *length <= 0 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	profiler, err := startCPUProfile(*cpuProfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
		os.Exit(1)
	}
	defer profiler.Stop()

	trace := generateTrace(rand.New(rand.NewSource(*seed)), *length)
	fmt.Printf("Generated: %d instructions (seed %d)\n", trace.Len(), *seed)

	start := time.Now()

	// Set timeout
	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		profiler.exit(2)
	}()

	var cycles uint64
	if *useEngine {
		cycles, err = core.RunOnEngine(trace, latency.DefaultConfig())
	} else {
		cycles, err = pipeline.Simulate(trace, latency.DefaultConfig())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		profiler.exit(1)
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			profiler.exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Simulated cycles: %d\n", cycles)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	fmt.Printf("Cycles/second: %.0f\n", float64(cycles)/elapsed.Seconds())
	fmt.Printf("Instructions/second: %.0f\n", float64(trace.Len())/elapsed.Seconds())
}

// osExit is replaced in tests.
var osExit = os.Exit

// cpuProfiler owns the optional CPU profile. Stop flushes and closes it and
// may be called more than once, from the timeout goroutine or from main.
type cpuProfiler struct {
	mu   sync.Mutex
	file *os.File
}

// startCPUProfile starts profiling into path. An empty path gives a
// profiler that does nothing.
func startCPUProfile(path string) (*cpuProfiler, error) {
	p := &cpuProfiler{}
	if path == "" {
		return p, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	p.file = f
	return p, nil
}

func (p *cpuProfiler) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return
	}
	pprof.StopCPUProfile()
	_ = p.file.Close()
	p.file = nil
}

// exit stops the profile before leaving the process, since os.Exit skips
// deferred calls.
func (p *cpuProfiler) exit(code int) {
	p.Stop()
	osExit(code)
}

// generateTrace builds a mixed workload with short dependency distances,
// roughly one in five instructions being memory and one in ten control.
func generateTrace(rng *rand.Rand, n int) insts.SliceTrace {
	b := insts.NewTraceBuilder()
	intReg := func() insts.Reg { return insts.Reg(1 + rng.Intn(12)) }
	fpReg := func() insts.Reg { return insts.FPReg(rng.Intn(12)) }

	for b.Len() < n {
		switch k := rng.Intn(10); {
		case k < 5:
			b.IntOp(intReg(), intReg(), intReg())
		case k < 6:
			b.FPOp(fpReg(), fpReg(), fpReg())
		case k < 7:
			b.Load(intReg(), 29)
		case k < 8:
			b.Store(intReg(), 29)
		case k < 9:
			b.Branch(intReg())
		default:
			b.IntOp2(insts.RegHI, insts.RegLO, intReg(), intReg())
		}
	}
	return b.Build()
}
