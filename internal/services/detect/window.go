package detect

// Window is a fixed-capacity FIFO over recent raw anomaly flags. Pushing into
// a full window evicts the oldest flag. The debounce policy is window-AND: a
// single false flag blocks a positive decision until it is evicted.
type Window struct {
	flags []bool
	head  int
	count int
}

// NewWindow creates a window of capacity k (minimum 1).
func NewWindow(k int) *Window {
	if k < 1 {
		k = 1
	}
	return &Window{flags: make([]bool, k)}
}

// Push appends the newest flag, evicting the oldest if the window is full.
func (w *Window) Push(flag bool) {
	w.flags[w.head] = flag
	w.head = (w.head + 1) % len(w.flags)
	if w.count < len(w.flags) {
		w.count++
	}
}

// IsFull reports whether the window holds exactly its capacity of flags.
func (w *Window) IsFull() bool {
	return w.count == len(w.flags)
}

// AllTrue reports whether every flag currently held is true.
func (w *Window) AllTrue() bool {
	for i := 0; i < w.count; i++ {
		idx := (w.head - 1 - i + 2*len(w.flags)) % len(w.flags)
		if !w.flags[idx] {
			return false
		}
	}
	return true
}

// Len returns the number of flags currently held.
func (w *Window) Len() int {
	return w.count
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return len(w.flags)
}
