// Package pipeline provides the Tomasulo out-of-order execution engine for
// timing simulation.
//
// The engine moves decoded trace instructions through an instruction
// queue, register renaming, reservation stations, fixed-latency functional
// units and a single common data bus (CDB). Every cycle the stages run in
// reverse order:
//
//	retire-from-bus -> execute-to-bus -> issue-to-execute -> dispatch -> fetch
//
// so that no instruction advances two stages in one cycle and a broadcast
// wakes its dependents for the following cycle. Whenever instructions
// compete for a unit or the bus, the oldest in program order wins.
package pipeline

import (
	"fmt"
	"log"
	"math"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/latency"
)

// Timing holds the cycles at which an instruction reached each stage.
// Zero means the stage was never reached.
type Timing struct {
	// Dispatch is the cycle the instruction entered the instruction queue.
	Dispatch uint64 `json:"dispatch"`
	// Issue is the cycle the instruction obtained a reservation station.
	Issue uint64 `json:"issue"`
	// Execute is the cycle the instruction obtained a functional unit.
	Execute uint64 `json:"execute"`
	// CDB is the cycle the instruction broadcast its result.
	CDB uint64 `json:"cdb"`
}

// Statistics holds engine performance statistics.
type Statistics struct {
	// Cycles is the total cycle count reported by Run.
	Cycles uint64
	// Instructions is the number of instructions fetched (traps excluded).
	Instructions uint64
	// Dispatched is the number of reservation-station allocations.
	Dispatched uint64
	// ControlBypassed counts control-flow instructions and no-ops that left
	// the queue without a reservation station.
	ControlBypassed uint64
	// TrapsSkipped is the number of traps skipped at fetch.
	TrapsSkipped uint64
	// Broadcasts is the number of CDB broadcasts.
	Broadcasts uint64
	// StoresRetired is the number of stores retired at execute completion.
	StoresRetired uint64
	// DataHazards is the number of RAW dependency edges created by renaming.
	DataHazards uint64
	// FetchStalls counts cycles fetch was blocked by a full queue.
	FetchStalls uint64
	// DispatchStalls counts cycles the queue head found no free station.
	DispatchStalls uint64
	// IssueStalls counts ready instructions left without a functional unit,
	// once per instruction per cycle.
	IssueStalls uint64
	// CDBStalls counts finished instructions that lost the bus, once per
	// instruction per cycle.
	CDBStalls uint64
}

// CPI returns the cycles per fetched instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// IPC returns the fetched instructions per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Instructions) / float64(s.Cycles)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithConfig sets the machine configuration.
func WithConfig(config *latency.Config) PipelineOption {
	return func(p *Pipeline) {
		p.table = latency.NewTableWithConfig(config)
	}
}

// WithLatencyTable sets the classification and latency table.
func WithLatencyTable(table *latency.Table) PipelineOption {
	return func(p *Pipeline) {
		p.table = table
	}
}

// WithName sets the name reported to hooks.
func WithName(name string) PipelineOption {
	return func(p *Pipeline) {
		p.name = name
	}
}

// Pipeline is one Tomasulo engine bound to one trace. All simulation state
// lives here, so independent pipelines can run side by side.
type Pipeline struct {
	*sim.HookableBase

	name  string
	table *latency.Table
	trace insts.Trace

	// Arena of per-instruction records, indexed by trace position.
	entries []entry

	queue    *InstructionQueue
	mapTable *MapTable
	intRS    *SlotPool
	fpRS     *SlotPool
	intFU    *SlotPool
	fpFU     *SlotPool
	cdb      *CommonDataBus

	// fetchIndex counts trace positions consumed by fetch; it runs one past
	// the trace once fetch is exhausted.
	fetchIndex int

	cycle uint64
	done  bool
	stats Statistics

	scratch []Handle
}

// NewPipeline creates a Tomasulo engine for the given trace. The
// configuration must be valid.
func NewPipeline(trace insts.Trace, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		HookableBase: sim.NewHookableBase(),
		name:         "Tomasulo",
		table:        latency.NewTable(),
		trace:        trace,
	}

	for _, opt := range opts {
		opt(p)
	}

	config := p.table.Config()
	if err := config.Validate(); err != nil {
		log.Panicf("pipeline: invalid config: %v", err)
	}
	if trace.Len() > math.MaxInt32 {
		log.Panicf("pipeline: trace of %d instructions exceeds the handle range",
			trace.Len())
	}

	p.queue = NewInstructionQueue(config.InstrQueueSize)
	p.mapTable = NewMapTable(config.NumRegs)
	p.intRS = NewSlotPool("IntRS", config.IntRSSize)
	p.fpRS = NewSlotPool("FPRS", config.FPRSSize)
	p.intFU = NewSlotPool("IntFU", config.IntFUCount)
	p.fpFU = NewSlotPool("FPFU", config.FPFUCount)
	p.cdb = NewCommonDataBus()
	p.entries = make([]entry, trace.Len())
	p.scratch = make([]Handle, 0, config.IntRSSize+config.FPRSSize)

	p.Reset()

	return p
}

// Simulate validates the configuration and the trace, then runs a fresh
// pipeline to completion and returns the total cycle count.
func Simulate(trace insts.Trace, config *latency.Config) (uint64, error) {
	if err := config.Validate(); err != nil {
		return 0, fmt.Errorf("invalid machine config: %w", err)
	}
	if err := insts.ValidateTrace(trace, config.NumRegs); err != nil {
		return 0, fmt.Errorf("invalid trace: %w", err)
	}

	return NewPipeline(trace, WithConfig(config)).Run(), nil
}

// Reset clears all engine state so the trace can be simulated again.
func (p *Pipeline) Reset() {
	p.queue.Reset()
	p.mapTable.Reset()
	p.intRS.Reset()
	p.fpRS.Reset()
	p.intFU.Reset()
	p.fpFU.Reset()
	p.cdb.Clear()

	for i := range p.entries {
		inst := p.trace.At(i)
		p.entries[i] = entry{
			inst:      inst,
			pool:      p.table.PoolFor(inst),
			producers: [3]Handle{NoHandle, NoHandle, NoHandle},
		}
	}

	p.fetchIndex = 0
	p.cycle = 1
	p.done = false
	p.stats = Statistics{}
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// Config returns the machine configuration.
func (p *Pipeline) Config() *latency.Config {
	return p.table.Config()
}

// LatencyTable returns the classification and latency table.
func (p *Pipeline) LatencyTable() *latency.Table {
	return p.table
}

// Cycle returns the cycle that the next Tick simulates. After the run it
// equals the total cycle count.
func (p *Pipeline) Cycle() uint64 {
	return p.cycle
}

// Done returns true once every instruction has left the engine.
func (p *Pipeline) Done() bool {
	return p.done
}

// Stats returns engine statistics.
func (p *Pipeline) Stats() Statistics {
	s := p.stats
	s.Cycles = p.cycle
	return s
}

// Timing returns the stage timestamps of the instruction at trace position
// pos.
func (p *Pipeline) Timing(pos int) Timing {
	return p.entries[pos].timing
}

// Timings returns the stage timestamps of every trace instruction, in trace
// order.
func (p *Pipeline) Timings() []Timing {
	out := make([]Timing, len(p.entries))
	for i := range p.entries {
		out[i] = p.entries[i].timing
	}
	return out
}

// Queue returns the instruction queue.
func (p *Pipeline) Queue() *InstructionQueue {
	return p.queue
}

// MapTable returns the register map table.
func (p *Pipeline) MapTable() *MapTable {
	return p.mapTable
}

// Stations returns the integer and floating-point reservation-station pools.
func (p *Pipeline) Stations() (intRS, fpRS *SlotPool) {
	return p.intRS, p.fpRS
}

// Units returns the integer and floating-point functional-unit pools.
func (p *Pipeline) Units() (intFU, fpFU *SlotPool) {
	return p.intFU, p.fpFU
}

// CDB returns the common data bus.
func (p *Pipeline) CDB() *CommonDataBus {
	return p.cdb
}

// Producers returns the producer references of the instruction at trace
// position pos.
func (p *Pipeline) Producers(pos int) [3]Handle {
	return p.entries[pos].producers
}

// Run ticks the pipeline until it is done and returns the total cycle
// count.
func (p *Pipeline) Run() uint64 {
	for p.Tick() {
	}
	return p.cycle
}

// RunCycles ticks the pipeline at most cycles times.
// Returns true if still running, false if done.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.done; i++ {
		p.Tick()
	}
	return !p.done
}

// Tick simulates one cycle and returns false once the pipeline is done.
//
// The stage order is fixed. Retiring the bus first and fetching last means
// an instruction never moves through two stages in the same cycle, an
// instruction fetched in cycle c dispatches no earlier than c+1 and
// executes no earlier than c+2, and a dependent of an instruction that
// broadcasts in cycle c executes no earlier than c+1.
func (p *Pipeline) Tick() bool {
	if p.done {
		return false
	}

	cycle := p.cycle
	p.retireFromBus(cycle)
	p.executeToBus(cycle)
	p.issueToExecute(cycle)
	p.dispatchToIssue(cycle)
	p.fetchToDispatch(cycle)
	p.cycle++

	if p.drained() {
		p.done = true
		return false
	}
	return true
}

// drained reports whether the queue is empty, fetch has run past the end
// of the trace and no reservation station or functional unit is occupied.
// A broadcast still on the bus does not keep the run alive.
func (p *Pipeline) drained() bool {
	return p.queue.Empty() &&
		p.fetchIndex > p.trace.Len() &&
		p.intRS.Empty() && p.fpRS.Empty() &&
		p.intFU.Empty() && p.fpFU.Empty()
}
