package pipeline

import (
	"cmp"
	"log"
	"slices"

	"github.com/sarchlab/tomasim/timing/latency"
)

// The stage methods below are called once per cycle by Tick, in reverse
// pipeline order.

// retireFromBus delivers the broadcast of the CDB occupant: dependents in
// both reservation-station pools lose their reference to it and the map
// table forgets it. It runs one cycle after the bus was claimed and before
// issue, so a dependent can start executing in the cycle after the
// broadcast, never in the broadcast cycle itself.
func (p *Pipeline) retireFromBus(cycle uint64) {
	h := p.cdb.Occupant()
	if h == NoHandle {
		return
	}

	woken := p.wakeDependents(h)
	p.mapTable.ClearProducer(h)
	p.entries[h].state = stateRetired
	p.cdb.Clear()

	p.invokeHook(HookPosWakeup, h, HookDetail{Cycle: cycle, Woken: woken})
}

// executeToBus finds instructions whose functional-unit latency has
// elapsed. Stores retire in place. Of the rest, only the oldest may claim
// the bus; the others stay parked in their units and compete again next
// cycle.
func (p *Pipeline) executeToBus(cycle uint64) {
	finished := p.scratch[:0]
	for _, fu := range [...]*SlotPool{p.intFU, p.fpFU} {
		for i := 0; i < fu.Size(); i++ {
			h := fu.Slot(i)
			if h == NoHandle {
				continue
			}

			e := &p.entries[h]
			if cycle >= e.timing.Execute+p.table.PoolLatency(e.pool) {
				finished = append(finished, h)
			}
		}
	}
	p.sortByAge(finished)

	for _, h := range finished {
		e := &p.entries[h]

		if p.table.IsStoreOp(e.inst) {
			p.release(h)
			e.state = stateRetired
			p.stats.StoresRetired++
			p.invokeHook(HookPosStoreRetire, h, HookDetail{Cycle: cycle})
			continue
		}

		if !p.cdb.Empty() {
			p.stats.CDBStalls++
			continue
		}

		p.cdb.Claim(h)
		p.release(h)
		e.state = stateOnBus
		e.timing.CDB = cycle
		p.stats.Broadcasts++
		p.invokeHook(HookPosBroadcast, h, HookDetail{Cycle: cycle})
	}

	p.scratch = finished
}

// issueToExecute starts ready instructions, oldest first, on free
// functional units of their pool.
func (p *Pipeline) issueToExecute(cycle uint64) {
	p.issuePool(cycle, p.intRS, p.intFU)
	p.issuePool(cycle, p.fpRS, p.fpFU)
}

func (p *Pipeline) issuePool(cycle uint64, rs, fu *SlotPool) {
	ready := p.scratch[:0]
	for i := 0; i < rs.Size(); i++ {
		h := rs.Slot(i)
		if h == NoHandle {
			continue
		}

		e := &p.entries[h]
		if e.state != stateWaiting {
			continue
		}
		if e.ready() {
			ready = append(ready, h)
			continue
		}
		for _, producer := range e.producers {
			if producer != NoHandle {
				p.mustBeResident(producer, h)
			}
		}
	}
	p.sortByAge(ready)

	for i, h := range ready {
		if _, ok := fu.Claim(h); !ok {
			p.stats.IssueStalls += uint64(len(ready) - i)
			break
		}

		e := &p.entries[h]
		e.state = stateExecuting
		e.timing.Execute = cycle
		p.invokeHook(HookPosExecute, h, HookDetail{Cycle: cycle})
	}

	p.scratch = ready
}

// dispatchToIssue considers the oldest queued instruction only. Control
// flow and no-ops leave the queue directly; everything else needs a free
// reservation station of its pool, and the queue stalls until one is free.
func (p *Pipeline) dispatchToIssue(cycle uint64) {
	h := p.queue.Head()
	if h == NoHandle {
		return
	}

	e := &p.entries[h]
	if e.state != stateQueued {
		log.Panicf("pipeline: queued instruction %d is in state %d", h, e.state)
	}

	if e.pool == latency.PoolNone {
		p.queue.Pop()
		e.state = stateBypassed
		p.stats.ControlBypassed++
		p.invokeHook(HookPosBypass, h, HookDetail{Cycle: cycle})
		return
	}

	if _, ok := p.stations(e.pool).Claim(h); !ok {
		p.stats.DispatchStalls++
		return
	}

	p.queue.Pop()
	e.state = stateWaiting
	e.timing.Issue = cycle
	p.renameSources(h)
	p.claimDestinations(h)
	p.stats.Dispatched++
	p.invokeHook(HookPosDispatch, h, HookDetail{Cycle: cycle})
}

// fetchToDispatch moves the next non-trap trace instruction into the
// instruction queue unless the queue is full.
func (p *Pipeline) fetchToDispatch(cycle uint64) {
	n := p.trace.Len()
	if p.queue.Full() {
		if p.fetchIndex < n {
			p.stats.FetchStalls++
		}
		return
	}

	p.fetchIndex++
	for p.fetchIndex <= n && p.entries[p.fetchIndex-1].inst.IsTrap() {
		p.entries[p.fetchIndex-1].state = stateSkipped
		p.stats.TrapsSkipped++
		p.fetchIndex++
	}
	if p.fetchIndex > n {
		return
	}

	h := Handle(p.fetchIndex - 1)
	e := &p.entries[h]
	e.state = stateQueued
	e.timing.Dispatch = cycle
	p.queue.Push(h)
	p.stats.Instructions++
	p.invokeHook(HookPosFetch, h, HookDetail{Cycle: cycle})
}

// release frees the reservation station and functional unit held by h.
func (p *Pipeline) release(h Handle) {
	pool := p.entries[h].pool
	p.stations(pool).Release(h)
	p.units(pool).Release(h)
}

func (p *Pipeline) stations(pool latency.Pool) *SlotPool {
	switch pool {
	case latency.PoolInt:
		return p.intRS
	case latency.PoolFP:
		return p.fpRS
	default:
		log.Panicf("pipeline: no reservation stations for pool %v", pool)
		return nil
	}
}

func (p *Pipeline) units(pool latency.Pool) *SlotPool {
	switch pool {
	case latency.PoolInt:
		return p.intFU
	case latency.PoolFP:
		return p.fpFU
	default:
		log.Panicf("pipeline: no functional units for pool %v", pool)
		return nil
	}
}

// sortByAge orders handles oldest first by program-order index.
func (p *Pipeline) sortByAge(hs []Handle) {
	slices.SortStableFunc(hs, func(a, b Handle) int {
		return cmp.Compare(p.entries[a].inst.Index, p.entries[b].inst.Index)
	})
}
