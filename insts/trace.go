package insts

import (
	"errors"
	"fmt"
	"log"
)

// Trace is a randomly indexable sequence of decoded instructions supplied
// by the surrounding instruction-set simulator.
type Trace interface {
	// Len returns the total number of instructions in the trace.
	Len() int
	// At returns the instruction at position i (0-based).
	At(i int) *Instruction
}

// SliceTrace is a Trace backed by a slice.
type SliceTrace []*Instruction

// Len returns the number of instructions.
func (t SliceTrace) Len() int {
	return len(t)
}

// At returns the instruction at position i.
func (t SliceTrace) At(i int) *Instruction {
	return t[i]
}

// Trace validation errors.
var (
	ErrNilInstruction      = errors.New("nil instruction")
	ErrUnknownOp           = errors.New("unknown operation class")
	ErrIndexOrder          = errors.New("program-order index does not increase")
	ErrRegisterRange       = errors.New("register id out of range")
	ErrStoreWritesRegister = errors.New("store names a destination register")
)

// ValidateTrace checks that a trace can be simulated by an engine with a
// register file of numRegs registers.
func ValidateTrace(trace Trace, numRegs int) error {
	var prev uint64
	for i := 0; i < trace.Len(); i++ {
		inst := trace.At(i)
		if inst == nil {
			return fmt.Errorf("trace position %d: %w", i, ErrNilInstruction)
		}
		if inst.Op == OpUnknown || inst.Op > OpNop {
			return fmt.Errorf("trace position %d (%v): %w", i, inst.Op, ErrUnknownOp)
		}
		if i > 0 && inst.Index <= prev {
			return fmt.Errorf("trace position %d: index %d after %d: %w",
				i, inst.Index, prev, ErrIndexOrder)
		}
		prev = inst.Index

		for _, r := range inst.Src {
			if r != RegNone && !r.Valid(numRegs) {
				return fmt.Errorf("trace position %d: source %d: %w", i, r, ErrRegisterRange)
			}
		}
		for _, r := range inst.Dst {
			if r == RegNone {
				continue
			}
			if !r.Valid(numRegs) {
				return fmt.Errorf("trace position %d: destination %d: %w", i, r, ErrRegisterRange)
			}
			if inst.IsStore() {
				return fmt.Errorf("trace position %d: %w", i, ErrStoreWritesRegister)
			}
		}
	}
	return nil
}

// Default layout used by TraceBuilder.
const (
	defaultBasePC   = 0x00400000
	instructionSize = 8
)

// TraceBuilder assembles traces with automatically assigned program-order
// indices, starting at 1.
type TraceBuilder struct {
	insts []*Instruction
}

// NewTraceBuilder creates an empty builder.
func NewTraceBuilder() *TraceBuilder {
	return &TraceBuilder{}
}

// Len returns the number of instructions added so far.
func (b *TraceBuilder) Len() int {
	return len(b.insts)
}

func (b *TraceBuilder) add(op Op, dst []Reg, src []Reg) *TraceBuilder {
	if len(dst) > 2 || len(src) > 3 {
		log.Panicf("insts: %v with %d destinations and %d sources", op, len(dst), len(src))
	}

	n := uint64(len(b.insts))
	inst := &Instruction{
		Op:    op,
		Index: n + 1,
		PC:    defaultBasePC + n*instructionSize,
		Src:   [3]Reg{RegNone, RegNone, RegNone},
		Dst:   [2]Reg{RegNone, RegNone},
	}
	copy(inst.Dst[:], dst)
	copy(inst.Src[:], src)

	b.insts = append(b.insts, inst)
	return b
}

// IntOp appends an integer computation writing dst (RegNone for none).
func (b *TraceBuilder) IntOp(dst Reg, srcs ...Reg) *TraceBuilder {
	return b.add(OpIntComp, regs(dst), srcs)
}

// IntOp2 appends an integer computation with two destinations, such as a
// multiply writing HI and LO.
func (b *TraceBuilder) IntOp2(dst0, dst1 Reg, srcs ...Reg) *TraceBuilder {
	return b.add(OpIntComp, []Reg{dst0, dst1}, srcs)
}

// FPOp appends a floating-point computation writing dst.
func (b *TraceBuilder) FPOp(dst Reg, srcs ...Reg) *TraceBuilder {
	return b.add(OpFPComp, regs(dst), srcs)
}

// Load appends a load of dst from an address held in base.
func (b *TraceBuilder) Load(dst, base Reg) *TraceBuilder {
	return b.add(OpLoad, regs(dst), regs(base))
}

// Store appends a store of src to an address held in base.
func (b *TraceBuilder) Store(src, base Reg) *TraceBuilder {
	return b.add(OpStore, nil, []Reg{src, base})
}

// Branch appends a conditional branch reading srcs.
func (b *TraceBuilder) Branch(srcs ...Reg) *TraceBuilder {
	return b.add(OpCondBranch, nil, srcs)
}

// Jump appends an unconditional branch.
func (b *TraceBuilder) Jump() *TraceBuilder {
	return b.add(OpUncondBranch, nil, nil)
}

// Call appends a call writing the link register.
func (b *TraceBuilder) Call(link Reg) *TraceBuilder {
	return b.add(OpCall, regs(link), nil)
}

// Trap appends a trap.
func (b *TraceBuilder) Trap() *TraceBuilder {
	return b.add(OpTrap, nil, nil)
}

// Nop appends a no-op.
func (b *TraceBuilder) Nop() *TraceBuilder {
	return b.add(OpNop, nil, nil)
}

// Build returns the assembled trace. The builder can keep appending
// afterwards; the returned trace is not affected.
func (b *TraceBuilder) Build() SliceTrace {
	out := make(SliceTrace, len(b.insts))
	copy(out, b.insts)
	return out
}

func regs(r Reg) []Reg {
	if r == RegNone {
		return nil
	}
	return []Reg{r}
}
