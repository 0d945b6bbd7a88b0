package pipeline

import "log"

// Handle identifies an in-flight instruction by its position in the trace.
// Resource slots hold handles rather than instructions; a slot holding
// NoHandle is empty.
type Handle int32

// NoHandle marks an empty slot.
const NoHandle Handle = -1

// InstructionQueue is a bounded circular FIFO of fetched instructions in
// program order. The oldest instruction is at the head.
type InstructionQueue struct {
	slots []Handle
	head  int
	size  int
}

// NewInstructionQueue creates an empty queue with the given capacity.
func NewInstructionQueue(capacity int) *InstructionQueue {
	q := &InstructionQueue{slots: make([]Handle, capacity)}
	q.Reset()
	return q
}

// Reset empties the queue.
func (q *InstructionQueue) Reset() {
	for i := range q.slots {
		q.slots[i] = NoHandle
	}
	q.head = 0
	q.size = 0
}

// Len returns the number of queued instructions.
func (q *InstructionQueue) Len() int {
	return q.size
}

// Cap returns the capacity of the queue.
func (q *InstructionQueue) Cap() int {
	return len(q.slots)
}

// Empty returns true if nothing is queued.
func (q *InstructionQueue) Empty() bool {
	return q.size == 0
}

// Full returns true if the queue is at capacity.
func (q *InstructionQueue) Full() bool {
	return q.size == len(q.slots)
}

// Push appends h at the tail. It returns false, leaving the queue
// untouched, when the queue is full.
func (q *InstructionQueue) Push(h Handle) bool {
	if h == NoHandle {
		log.Panicf("pipeline: pushing an empty handle into the instruction queue")
	}
	if q.Full() {
		return false
	}

	tail := (q.head + q.size) % len(q.slots)
	q.slots[tail] = h
	q.size++
	return true
}

// Head returns the oldest queued instruction, or NoHandle.
func (q *InstructionQueue) Head() Handle {
	if q.Empty() {
		return NoHandle
	}
	return q.slots[q.head]
}

// Pop removes and returns the head.
func (q *InstructionQueue) Pop() Handle {
	if q.Empty() {
		log.Panicf("pipeline: pop from an empty instruction queue")
	}

	h := q.slots[q.head]
	q.slots[q.head] = NoHandle
	q.head = (q.head + 1) % len(q.slots)
	q.size--
	return h
}

// At returns the i-th oldest queued instruction.
func (q *InstructionQueue) At(i int) Handle {
	if i < 0 || i >= q.size {
		log.Panicf("pipeline: instruction queue index %d out of range [0,%d)", i, q.size)
	}
	return q.slots[(q.head+i)%len(q.slots)]
}
