package pipeline

import "log"

// SlotPool is a fixed set of single-occupant slots. It models both
// reservation-station pools and functional-unit pools; each slot is
// exclusively owned by at most one in-flight instruction.
type SlotPool struct {
	name  string
	slots []Handle
	used  int
}

// NewSlotPool creates a pool of size empty slots.
func NewSlotPool(name string, size int) *SlotPool {
	p := &SlotPool{name: name, slots: make([]Handle, size)}
	p.Reset()
	return p
}

// Reset empties every slot.
func (p *SlotPool) Reset() {
	for i := range p.slots {
		p.slots[i] = NoHandle
	}
	p.used = 0
}

// Name returns the pool name.
func (p *SlotPool) Name() string {
	return p.name
}

// Size returns the number of slots.
func (p *SlotPool) Size() int {
	return len(p.slots)
}

// Used returns the number of occupied slots.
func (p *SlotPool) Used() int {
	return p.used
}

// Free returns the number of empty slots.
func (p *SlotPool) Free() int {
	return len(p.slots) - p.used
}

// Empty returns true if no slot is occupied.
func (p *SlotPool) Empty() bool {
	return p.used == 0
}

// Slot returns the occupant of slot i, or NoHandle.
func (p *SlotPool) Slot(i int) Handle {
	return p.slots[i]
}

// Contains returns true if h occupies a slot.
func (p *SlotPool) Contains(h Handle) bool {
	return p.find(h) >= 0
}

func (p *SlotPool) find(h Handle) int {
	for i, s := range p.slots {
		if s == h {
			return i
		}
	}
	return -1
}

// Claim places h in the first empty slot and returns the slot index.
// It returns false when every slot is taken.
func (p *SlotPool) Claim(h Handle) (int, bool) {
	if h == NoHandle {
		log.Panicf("pipeline: %s: claiming a slot for an empty handle", p.name)
	}
	if p.Contains(h) {
		log.Panicf("pipeline: %s: instruction %d claims a second slot", p.name, h)
	}

	i := p.find(NoHandle)
	if i < 0 {
		return 0, false
	}

	p.slots[i] = h
	p.used++
	return i, true
}

// Release frees the slot held by h.
func (p *SlotPool) Release(h Handle) {
	i := p.find(h)
	if h == NoHandle || i < 0 {
		log.Panicf("pipeline: %s: releasing instruction %d that holds no slot", p.name, h)
	}

	p.slots[i] = NoHandle
	p.used--
}

// Occupants appends the occupying handles, in slot order, to dst.
func (p *SlotPool) Occupants(dst []Handle) []Handle {
	for _, s := range p.slots {
		if s != NoHandle {
			dst = append(dst, s)
		}
	}
	return dst
}
