package pipeline

import "github.com/sarchlab/akita/v4/sim"

// Hook positions invoked by the pipeline. The hook context carries the
// instruction as Item and a HookDetail as Detail.
var (
	// HookPosFetch marks an instruction entering the instruction queue.
	HookPosFetch = &sim.HookPos{Name: "Fetch"}
	// HookPosDispatch marks an instruction obtaining a reservation station.
	HookPosDispatch = &sim.HookPos{Name: "Dispatch"}
	// HookPosBypass marks a control-flow instruction or no-op leaving the
	// instruction queue without a reservation station.
	HookPosBypass = &sim.HookPos{Name: "Bypass"}
	// HookPosExecute marks an instruction obtaining a functional unit.
	HookPosExecute = &sim.HookPos{Name: "Execute"}
	// HookPosBroadcast marks an instruction claiming the CDB.
	HookPosBroadcast = &sim.HookPos{Name: "Broadcast"}
	// HookPosStoreRetire marks a store retiring at execute completion.
	HookPosStoreRetire = &sim.HookPos{Name: "StoreRetire"}
	// HookPosWakeup marks the CDB occupant waking its dependents.
	HookPosWakeup = &sim.HookPos{Name: "Wakeup"}
)

// HookDetail is attached to every hook invocation.
type HookDetail struct {
	// Cycle is the cycle in which the event happens.
	Cycle uint64
	// Position is the trace position of the instruction.
	Position int
	// Woken is the number of operands released, for HookPosWakeup only.
	Woken int
}

func (p *Pipeline) invokeHook(pos *sim.HookPos, h Handle, detail HookDetail) {
	if p.NumHooks() == 0 {
		return
	}

	detail.Position = int(h)
	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   p.entries[h].inst,
		Detail: detail,
	})
}
