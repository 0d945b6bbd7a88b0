package pipeline

import (
	"log"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/latency"
)

// entryState tracks where an instruction is in its lifetime.
type entryState uint8

const (
	stateUnfetched entryState = iota
	stateQueued               // In the instruction queue
	stateWaiting              // Holds a reservation station, not executing
	stateExecuting            // Holds a reservation station and a functional unit
	stateOnBus                // Broadcasting this cycle
	stateRetired              // Broadcast delivered, or store completed
	stateBypassed             // Control flow or no-op, left the queue
	stateSkipped              // Trap, never queued
)

// entry is the arena record of one trace instruction.
type entry struct {
	inst  *insts.Instruction
	pool  latency.Pool
	state entryState

	// producers holds, per source operand, the instruction that will supply
	// its value. The reference does not own the producer.
	producers [3]Handle

	timing Timing
}

func (e *entry) ready() bool {
	return e.producers[0] == NoHandle &&
		e.producers[1] == NoHandle &&
		e.producers[2] == NoHandle
}

// resident reports whether h may be named by a producer reference: it holds
// a reservation station or functional unit, or is on the bus waiting for its
// wake-up to be delivered.
func (p *Pipeline) resident(h Handle) bool {
	switch p.entries[h].state {
	case stateWaiting, stateExecuting, stateOnBus:
		return true
	default:
		return false
	}
}

func (p *Pipeline) mustBeResident(h Handle, consumer Handle) {
	if !p.resident(h) {
		log.Panicf("pipeline: instruction %d depends on %d, which is not in flight",
			consumer, h)
	}
}

// renameSources records, for every source register with a pending
// producer, a dependency edge from h to that producer.
func (p *Pipeline) renameSources(h Handle) {
	e := &p.entries[h]
	for i, r := range e.inst.Src {
		if r == insts.RegNone {
			continue
		}

		producer := p.mapTable.Lookup(r)
		if producer == NoHandle {
			continue
		}

		p.mustBeResident(producer, h)
		e.producers[i] = producer
		p.stats.DataHazards++
	}
}

// claimDestinations makes h the producer of every register it writes.
func (p *Pipeline) claimDestinations(h Handle) {
	for _, r := range p.entries[h].inst.Dst {
		if r != insts.RegNone {
			p.mapTable.Claim(r, h)
		}
	}
}

// wakeDependents clears every producer reference to h held in either
// reservation-station pool and returns how many operands were released.
func (p *Pipeline) wakeDependents(h Handle) int {
	woken := 0
	for _, pool := range [...]*SlotPool{p.intRS, p.fpRS} {
		for i := 0; i < pool.Size(); i++ {
			occupant := pool.Slot(i)
			if occupant == NoHandle {
				continue
			}

			e := &p.entries[occupant]
			for j := range e.producers {
				if e.producers[j] == h {
					e.producers[j] = NoHandle
					woken++
				}
			}
		}
	}
	return woken
}
