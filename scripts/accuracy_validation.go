// Package main provides accuracy validation for performance optimizations.
// Ensures that optimizations preserve the cycle-level timing of the engine.
package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/tomasim/benchmarks"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

type reference struct {
	name    string
	trace   insts.SliceTrace
	cycles  uint64
	timings []pipeline.Timing
}

// references are timelines worked out by hand for the default machine.
func references() []reference {
	b := func() *insts.TraceBuilder { return insts.NewTraceBuilder() }

	return []reference{
		{
			name:    "single integer op",
			trace:   b().IntOp(1, 2, 3).Build(),
			cycles:  9,
			timings: []pipeline.Timing{{Dispatch: 1, Issue: 2, Execute: 3, CDB: 8}},
		},
		{
			name:   "dependent pair",
			trace:  b().IntOp(1, 2, 3).IntOp(4, 1).Build(),
			cycles: 15,
			timings: []pipeline.Timing{
				{Dispatch: 1, Issue: 2, Execute: 3, CDB: 8},
				{Dispatch: 2, Issue: 3, Execute: 9, CDB: 14},
			},
		},
		{
			name:    "single FP op",
			trace:   b().FPOp(insts.FPReg(1)).Build(),
			cycles:  11,
			timings: []pipeline.Timing{{Dispatch: 1, Issue: 2, Execute: 3, CDB: 10}},
		},
		{
			name:    "store",
			trace:   b().Store(1, 29).Build(),
			cycles:  9,
			timings: []pipeline.Timing{{Dispatch: 1, Issue: 2, Execute: 3}},
		},
		{
			name:    "branch",
			trace:   b().Branch(1).Build(),
			cycles:  3,
			timings: []pipeline.Timing{{Dispatch: 1}},
		},
	}
}

// testReferenceTimelines validates the engine against hand-computed
// timelines.
func testReferenceTimelines() bool {
	fmt.Println("Testing reference timelines...")

	passed := true
	for _, ref := range references() {
		pipe := pipeline.NewPipeline(ref.trace)
		cycles := pipe.Run()

		ok := cycles == ref.cycles
		for i, want := range ref.timings {
			if pipe.Timing(i) != want {
				ok = false
				fmt.Printf("  position %d: expected %+v, got %+v\n", i, want, pipe.Timing(i))
			}
		}

		if !ok {
			fmt.Printf("❌ %s: expected %d cycles, got %d\n", ref.name, ref.cycles, cycles)
			passed = false
			continue
		}
		fmt.Printf("✅ %s: %d cycles\n", ref.name, cycles)
	}

	return passed
}

// testEngineAgreement validates that the akita-driven core reports the
// same cycle count as a direct pipeline run for every microbenchmark.
func testEngineAgreement() bool {
	fmt.Println("\nTesting akita engine agreement...")

	passed := true
	for _, bench := range benchmarks.GetMicrobenchmarks() {
		trace := bench.Build()

		direct, err := pipeline.Simulate(trace, latency.DefaultConfig())
		if err != nil {
			fmt.Printf("❌ %s: %v\n", bench.Name, err)
			passed = false
			continue
		}

		driven, err := core.RunOnEngine(trace, latency.DefaultConfig())
		if err != nil {
			fmt.Printf("❌ %s: %v\n", bench.Name, err)
			passed = false
			continue
		}

		if direct != driven {
			fmt.Printf("❌ %s: direct %d cycles, engine %d cycles\n", bench.Name, direct, driven)
			passed = false
			continue
		}
		fmt.Printf("✅ %s: %d cycles\n", bench.Name, direct)
	}

	return passed
}

// testResetReproducibility validates that a reset pipeline reproduces its
// first run exactly.
func testResetReproducibility() bool {
	fmt.Println("\nTesting reset reproducibility...")

	for _, bench := range benchmarks.GetMicrobenchmarks() {
		pipe := pipeline.NewPipeline(bench.Build())
		first := pipe.Run()
		firstTimings := pipe.Timings()

		pipe.Reset()
		second := pipe.Run()

		if first != second {
			fmt.Printf("❌ %s: %d cycles, then %d after reset\n", bench.Name, first, second)
			return false
		}
		for i, t := range pipe.Timings() {
			if t != firstTimings[i] {
				fmt.Printf("❌ %s: position %d changed after reset\n", bench.Name, i)
				return false
			}
		}
	}

	fmt.Println("✅ Pipeline reset behavior validated")
	return true
}

func main() {
	fmt.Println("Tomasim Accuracy Validation - Performance Optimization")
	fmt.Println("=======================================================")

	allPassed := true

	if !testReferenceTimelines() {
		allPassed = false
	}

	if !testEngineAgreement() {
		allPassed = false
	}

	if !testResetReproducibility() {
		allPassed = false
	}

	fmt.Println("\n=======================================================")
	if allPassed {
		fmt.Println("🎉 ALL ACCURACY TESTS PASSED")
		fmt.Println("✅ Performance optimizations preserve simulation timing")
		os.Exit(0)
	} else {
		fmt.Println("❌ ACCURACY TESTS FAILED")
		fmt.Println("🚨 Performance optimizations may have introduced errors")
		os.Exit(1)
	}
}
