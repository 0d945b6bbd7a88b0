package pipeline

import (
	"log"

	"github.com/sarchlab/tomasim/insts"
)

// MapTable renames logical registers to the in-flight instruction that
// will next produce their value.
type MapTable struct {
	producers []Handle
}

// NewMapTable creates a map table for numRegs logical registers, all
// initially without a producer.
func NewMapTable(numRegs int) *MapTable {
	t := &MapTable{producers: make([]Handle, numRegs)}
	t.Reset()
	return t
}

// Reset clears every mapping.
func (t *MapTable) Reset() {
	for i := range t.producers {
		t.producers[i] = NoHandle
	}
}

// NumRegs returns the number of tracked registers.
func (t *MapTable) NumRegs() int {
	return len(t.producers)
}

func (t *MapTable) check(r insts.Reg) {
	if !r.Valid(len(t.producers)) {
		log.Panicf("pipeline: register %d outside map table of %d registers",
			r, len(t.producers))
	}
}

// Lookup returns the producer of r, or NoHandle if its value is available.
func (t *MapTable) Lookup(r insts.Reg) Handle {
	t.check(r)
	return t.producers[r]
}

// Claim makes h the producer of r, replacing any earlier producer.
func (t *MapTable) Claim(r insts.Reg, h Handle) {
	t.check(r)
	t.producers[r] = h
}

// ClearProducer removes every mapping to h and returns how many were
// cleared.
func (t *MapTable) ClearProducer(h Handle) int {
	n := 0
	for i, p := range t.producers {
		if p == h {
			t.producers[i] = NoHandle
			n++
		}
	}
	return n
}

// Producers returns the number of registers currently waiting on a
// producer.
func (t *MapTable) Producers() int {
	n := 0
	for _, p := range t.producers {
		if p != NoHandle {
			n++
		}
	}
	return n
}
