package insts

import "fmt"

// Op is the operation class of a decoded instruction.
type Op uint8

// Operation classes.
const (
	OpUnknown      Op = iota
	OpIntComp         // Integer computation
	OpFPComp          // Floating-point computation
	OpLoad            // Memory load (integer pipeline)
	OpStore           // Memory store (integer pipeline, never broadcasts)
	OpCondBranch      // Conditional branch
	OpUncondBranch    // Unconditional branch or jump
	OpCall            // Call
	OpTrap            // Trap / system call, skipped at fetch
	OpNop             // No class flags; leaves the queue without a station
)

var opNames = [...]string{
	OpUnknown:      "unknown",
	OpIntComp:      "int",
	OpFPComp:       "fp",
	OpLoad:         "load",
	OpStore:        "store",
	OpCondBranch:   "br",
	OpUncondBranch: "jmp",
	OpCall:         "call",
	OpTrap:         "trap",
	OpNop:          "nop",
}

// String returns the short mnemonic of the operation class.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Reg is a logical register id.
type Reg int16

// RegNone marks an unused register slot.
const RegNone Reg = -1

// Register file layout. Integer registers come first, then floating-point
// registers, then the control registers.
const (
	NumIntRegs  = 32
	NumFPRegs   = 32
	NumCtrlRegs = 8

	// NumRegs is the default size of the logical register file.
	NumRegs = NumIntRegs + NumFPRegs + NumCtrlRegs

	// FPRegBase is the id of the first floating-point register.
	FPRegBase Reg = NumIntRegs
	// RegHI, RegLO and RegFCC are the multiply/divide and fp-condition registers.
	RegHI  Reg = NumIntRegs + NumFPRegs
	RegLO  Reg = RegHI + 1
	RegFCC Reg = RegHI + 2
)

// FPReg returns the register id of floating-point register n.
func FPReg(n int) Reg {
	return FPRegBase + Reg(n)
}

// Valid returns true if the register is used and lies in [0, numRegs).
func (r Reg) Valid(numRegs int) bool {
	return r >= 0 && int(r) < numRegs
}

// String formats the register as r<n>, f<n> or a control-register name.
func (r Reg) String() string {
	switch {
	case r == RegNone:
		return "-"
	case r < FPRegBase:
		return fmt.Sprintf("r%d", r)
	case r < RegHI:
		return fmt.Sprintf("f%d", r-FPRegBase)
	case r == RegHI:
		return "hi"
	case r == RegLO:
		return "lo"
	case r == RegFCC:
		return "fcc"
	default:
		return fmt.Sprintf("c%d", r-RegHI)
	}
}

// Instruction is an immutable decoded operation.
type Instruction struct {
	Op Op // Operation class

	// Index is the program-order index. It strictly increases with fetch
	// order and is used as the instruction's age.
	Index uint64

	// PC is informational only.
	PC uint64

	Src [3]Reg // Source registers (RegNone if unused)
	Dst [2]Reg // Destination registers (RegNone if unused)
}

// IsCondCtrl returns true for conditional branches.
func (i *Instruction) IsCondCtrl() bool {
	return i.Op == OpCondBranch
}

// IsUncondCtrl returns true for unconditional branches, jumps and calls.
func (i *Instruction) IsUncondCtrl() bool {
	return i.Op == OpUncondBranch || i.Op == OpCall
}

// IsCtrl returns true for any control-flow instruction.
func (i *Instruction) IsCtrl() bool {
	return i.IsCondCtrl() || i.IsUncondCtrl()
}

// IsTrap returns true for traps.
func (i *Instruction) IsTrap() bool {
	return i.Op == OpTrap
}

// IsLoad returns true for loads.
func (i *Instruction) IsLoad() bool {
	return i.Op == OpLoad
}

// IsStore returns true for stores.
func (i *Instruction) IsStore() bool {
	return i.Op == OpStore
}

// UsesIntFU returns true if the instruction executes on an integer unit.
func (i *Instruction) UsesIntFU() bool {
	return i.Op == OpIntComp || i.Op == OpLoad || i.Op == OpStore
}

// UsesFPFU returns true if the instruction executes on a floating-point unit.
func (i *Instruction) UsesFPFU() bool {
	return i.Op == OpFPComp
}

// WritesCDB returns true if the instruction broadcasts its result.
func (i *Instruction) WritesCDB() bool {
	return i.Op == OpIntComp || i.Op == OpLoad || i.Op == OpFPComp
}

// String renders the instruction as "#index op dst <- src".
func (i *Instruction) String() string {
	return fmt.Sprintf("#%d %s %s,%s <- %s,%s,%s",
		i.Index, i.Op, i.Dst[0], i.Dst[1], i.Src[0], i.Src[1], i.Src[2])
}
