package pipeline

import "log"

// CommonDataBus carries at most one broadcasting instruction for a single
// cycle.
type CommonDataBus struct {
	occupant Handle
}

// NewCommonDataBus creates an empty bus.
func NewCommonDataBus() *CommonDataBus {
	return &CommonDataBus{occupant: NoHandle}
}

// Empty returns true if nothing is broadcasting.
func (b *CommonDataBus) Empty() bool {
	return b.occupant == NoHandle
}

// Occupant returns the broadcasting instruction, or NoHandle.
func (b *CommonDataBus) Occupant() Handle {
	return b.occupant
}

// Claim puts h on the bus. A second claimant in the same cycle is a
// contract violation.
func (b *CommonDataBus) Claim(h Handle) {
	if h == NoHandle {
		log.Panicf("pipeline: claiming the CDB for an empty handle")
	}
	if !b.Empty() {
		log.Panicf("pipeline: instruction %d claims the CDB held by %d", h, b.occupant)
	}
	b.occupant = h
}

// Clear empties the bus.
func (b *CommonDataBus) Clear() {
	b.occupant = NoHandle
}
