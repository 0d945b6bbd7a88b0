// Package insts provides the decoded instruction model consumed by the
// Tomasulo timing engine.
//
// Instructions arrive already decoded from an external instruction-set
// simulator. The engine only needs to know the operation class of each
// instruction, which registers it reads and writes, and its program-order
// index. The package covers:
//   - Operation classes: integer and floating-point compute, load, store,
//     conditional and unconditional control flow, calls, traps
//   - Register ids with an explicit "unused" marker
//   - The Trace provider interface and a slice-backed implementation
//   - Trace validation ahead of a run
//
// Usage:
//
//	trace := insts.NewTraceBuilder().
//		IntOp(1, 2, 3). // r1 = r2 op r3
//		IntOp(4, 1).    // r4 = op r1
//		Build()
//	if err := insts.ValidateTrace(trace, insts.NumRegs); err != nil {
//		log.Fatal(err)
//	}
package insts
