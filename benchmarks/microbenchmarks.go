package benchmarks

import "github.com/sarchlab/tomasim/insts"

// Register conventions shared by the kernels.
const (
	regBase  insts.Reg = 29 // address base, never written
	regLink  insts.Reg = 31
	regCount insts.Reg = 9 // loop counter
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// kernel stresses one part of the machine. Every kernel ends with a trap,
// the exit system call, which fetch skips.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		fpChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		mixedOperations(),
		matrixMultiply2x2(),
		loopSimulation(),
		queuePressure(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: loop, matrix multiply and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		matrixMultiply2x2(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - integer unit throughput with no dependencies
func arithmeticSequential() Benchmark {
	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent integer operations - measures integer unit and CDB throughput",
		Build: func() insts.SliceTrace {
			b := insts.NewTraceBuilder()
			for i := 0; i < 20; i++ {
				b.IntOp(insts.Reg(1+i%5), regBase)
			}
			return b.Trap().Build()
		},
	}
}

// 2. Dependency Chain - every operation waits for the previous broadcast
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent integer operations (r1 = r1 + 1) - measures wake-up latency",
		Build: func() insts.SliceTrace {
			b := insts.NewTraceBuilder()
			for i := 0; i < 20; i++ {
				b.IntOp(1, 1)
			}
			return b.Trap().Build()
		},
	}
}

// 3. FP Chain - the single floating-point unit with a serial dependency
func fpChain() Benchmark {
	f0 := insts.FPReg(0)
	return Benchmark{
		Name:        "fp_chain",
		Description: "10 dependent floating-point operations - measures FP latency",
		Build: func() insts.SliceTrace {
			b := insts.NewTraceBuilder()
			for i := 0; i < 10; i++ {
				b.FPOp(f0, f0, insts.FPReg(1))
			}
			return b.Trap().Build()
		},
	}
}

// 4. Memory Sequential - store/load pairs through the integer units
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 store/load pairs - stores retire without the CDB, loads reuse the stored register",
		Build: func() insts.SliceTrace {
			b := insts.NewTraceBuilder()
			for i := 0; i < 10; i++ {
				b.Store(1, regBase).Load(1, regBase)
			}
			return b.Trap().Build()
		},
	}
}

// 5. Function Calls - calls and returns leave the queue without stations
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "5 call/return pairs around one operation each - measures control-flow overhead",
		Build: func() insts.SliceTrace {
			b := insts.NewTraceBuilder()
			for i := 0; i < 5; i++ {
				b.Call(regLink).IntOp(1, 1).Jump()
			}
			return b.Trap().Build()
		},
	}
}

// 6. Branch Taken - compare and branch on a loop counter
func branchTaken() Benchmark {
	return Benchmark{
		Name:        "branch_taken",
		Description: "10 compare/branch pairs - branches read registers but never wait",
		Build: func() insts.SliceTrace {
			b := insts.NewTraceBuilder()
			for i := 0; i < 10; i++ {
				b.IntOp(insts.RegFCC, regCount).Branch(insts.RegFCC)
			}
			return b.Trap().Build()
		},
	}
}

// 7. Mixed Operations - a bit of everything
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "Mix of integer, FP, load/store and call - realistic workload characteristics",
		Build: func() insts.SliceTrace {
			b := insts.NewTraceBuilder()
			for i := 0; i < 4; i++ {
				b.Load(2, regBase).
					IntOp(3, 2, 3).
					FPOp(insts.FPReg(2), insts.FPReg(2), insts.FPReg(4)).
					Store(3, regBase).
					Call(regLink).
					IntOp2(insts.RegHI, insts.RegLO, 3, 4).
					IntOp(4, insts.RegLO)
			}
			return b.Trap().Build()
		},
	}
}

// 8. Matrix Multiply 2x2 - load, multiply-accumulate in FP, store
func matrixMultiply2x2() Benchmark {
	return Benchmark{
		Name:        "matrix_operations",
		Description: "2x2 matrix multiply: 8 loads, 8 FP multiplies, 4 FP adds, 4 stores",
		Build: func() insts.SliceTrace {
			b := insts.NewTraceBuilder()
			a := func(i int) insts.Reg { return insts.FPReg(i) }
			m := func(i int) insts.Reg { return insts.FPReg(4 + i) }
			p := func(i int) insts.Reg { return insts.FPReg(8 + i) }
			c := func(i int) insts.Reg { return insts.FPReg(16 + i) }

			for i := 0; i < 4; i++ {
				b.Load(a(i), regBase)
			}
			for i := 0; i < 4; i++ {
				b.Load(m(i), regBase)
			}
			for row := 0; row < 2; row++ {
				for col := 0; col < 2; col++ {
					k := 2*row + col
					b.FPOp(p(2*k), a(2*row), m(col))
					b.FPOp(p(2*k+1), a(2*row+1), m(2+col))
					b.FPOp(c(k), p(2*k), p(2*k+1))
					b.Store(c(k), regBase)
				}
			}
			return b.Trap().Build()
		},
	}
}

// 9. Loop Simulation - an unrolled 10-iteration loop body
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "Simulated 10-iteration loop (unrolled) - tests loop-like patterns",
		Build: func() insts.SliceTrace {
			b := insts.NewTraceBuilder()
			for i := 0; i < 10; i++ {
				b.Load(2, regCount).
					IntOp(2, 2, 3).
					Store(2, regCount).
					IntOp(regCount, regCount).
					Branch(regCount)
			}
			return b.Trap().Build()
		},
	}
}

// 10. Queue Pressure - FP work piles up behind three FP stations
func queuePressure() Benchmark {
	return Benchmark{
		Name:        "queue_pressure",
		Description: "40 independent FP operations - fills the FP stations and the instruction queue",
		Build: func() insts.SliceTrace {
			b := insts.NewTraceBuilder()
			for i := 0; i < 40; i++ {
				b.FPOp(insts.FPReg(i%16), insts.FPReg(31))
			}
			return b.Trap().Build()
		},
	}
}
