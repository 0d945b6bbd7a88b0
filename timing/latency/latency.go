// Package latency provides the machine configuration and the instruction
// classification used by the Tomasulo timing engine.
//
// The Table answers which reservation-station/functional-unit pool an
// instruction uses, how long it occupies a unit and whether it broadcasts
// on the common data bus.
package latency

import (
	"github.com/sarchlab/tomasim/insts"
)

const defaultNumRegs = insts.NumRegs

// Pool identifies a reservation-station/functional-unit pool.
type Pool int

// Pools.
const (
	PoolNone Pool = iota // Control flow, traps and no-ops
	PoolInt
	PoolFP
)

// String returns the pool name.
func (p Pool) String() string {
	switch p {
	case PoolInt:
		return "int"
	case PoolFP:
		return "fp"
	default:
		return "none"
	}
}

// Table provides instruction classification and latency lookups.
type Table struct {
	config *Config
}

// NewTable creates a new table with the default configuration.
func NewTable() *Table {
	return &Table{
		config: DefaultConfig(),
	}
}

// NewTableWithConfig creates a new table with a custom configuration.
func NewTableWithConfig(config *Config) *Table {
	return &Table{
		config: config,
	}
}

// PoolFor returns the pool the instruction is dispatched to.
func (t *Table) PoolFor(inst *insts.Instruction) Pool {
	if inst == nil {
		return PoolNone
	}

	switch {
	case inst.UsesIntFU():
		return PoolInt
	case inst.UsesFPFU():
		return PoolFP
	default:
		return PoolNone
	}
}

// GetLatency returns the number of cycles the instruction occupies its
// functional unit. Instructions that do not execute return 0.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	return t.PoolLatency(t.PoolFor(inst))
}

// PoolLatency returns the functional-unit latency of a pool.
func (t *Table) PoolLatency(p Pool) uint64 {
	switch p {
	case PoolInt:
		return t.config.IntFULatency
	case PoolFP:
		return t.config.FPFULatency
	default:
		return 0
	}
}

// IsStoreOp returns true if the instruction retires at execute completion
// without broadcasting.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.IsStore()
}

// IsControlOp returns true if the instruction leaves the instruction queue
// without taking a reservation station.
func (t *Table) IsControlOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return t.PoolFor(inst) == PoolNone
}

// WritesCDB returns true if the instruction broadcasts its result.
func (t *Table) WritesCDB(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.WritesCDB()
}

// Config returns the current configuration.
func (t *Table) Config() *Config {
	return t.config
}
