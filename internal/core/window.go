package core

// DefaultWindowCapacity is the number of slots on the queue display.
const DefaultWindowCapacity = 4

// Window keeps the most recent assignments in a fixed-size ring.
// It is not safe for concurrent use; the Hub owns it.
type Window struct {
	slots []TicketAssignment
	head  int // index of the next write
	size  int
}

// NewWindow builds an empty window. Capacities below one fall back to DefaultWindowCapacity.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = DefaultWindowCapacity
	}
	return &Window{slots: make([]TicketAssignment, capacity)}
}

// Insert records a as the newest entry, evicting the oldest one when full.
func (w *Window) Insert(a TicketAssignment) {
	w.slots[w.head] = a
	w.head = (w.head + 1) % len(w.slots)
	if w.size < len(w.slots) {
		w.size++
	}
}

// Snapshot returns exactly Cap() slots, newest first. Empty slots are nil.
func (w *Window) Snapshot() []*TicketAssignment {
	out := make([]*TicketAssignment, len(w.slots))
	for i := 0; i < w.size; i++ {
		a := w.at(i)
		out[i] = &a
	}
	return out
}

// Entries returns the populated entries, newest first.
func (w *Window) Entries() []TicketAssignment {
	out := make([]TicketAssignment, 0, w.size)
	for i := 0; i < w.size; i++ {
		out = append(out, w.at(i))
	}
	return out
}

// Restore replaces the window contents with entries given newest first.
// Entries beyond capacity are dropped.
func (w *Window) Restore(entries []TicketAssignment) {
	w.head, w.size = 0, 0
	for i := range w.slots {
		w.slots[i] = TicketAssignment{}
	}
	if len(entries) > len(w.slots) {
		entries = entries[:len(w.slots)]
	}
	for i := len(entries) - 1; i >= 0; i-- {
		w.Insert(entries[i])
	}
}

// Len reports the number of populated slots.
func (w *Window) Len() int { return w.size }

// Cap reports the window capacity.
func (w *Window) Cap() int { return len(w.slots) }

// at returns the i-th newest entry.
func (w *Window) at(i int) TicketAssignment {
	n := len(w.slots)
	return w.slots[(w.head-1-i+2*n)%n]
}
