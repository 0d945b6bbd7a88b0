// Package main provides the entry point for tomasim.
// tomasim is a Tomasulo dynamic-scheduling timing simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/tomasim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("tomasim - Tomasulo Dynamic Scheduling Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: tomasim [options]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -bench     Benchmark to run, or \"all\"")
	fmt.Println("  -config    Path to machine configuration JSON file")
	fmt.Println("  -debug     Log every pipeline event to stderr")
	fmt.Println("  -engine    Drive the pipeline with an akita serial engine")
	fmt.Println("  -json      Output results as JSON")
	fmt.Println("  -v         Print per-instruction stage cycles")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomasim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomasim' instead.")
	}
}
