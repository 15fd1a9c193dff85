package detect

import "testing"

func TestWindowFillsBeforeFiring(t *testing.T) {
	w := NewWindow(3)

	for i, want := range []bool{false, false, true} {
		w.Push(true)
		got := w.IsFull() && w.AllTrue()
		if got != want {
			t.Fatalf("push %d: got %v want %v", i+1, got, want)
		}
	}
}

func TestWindowStaysFiredWhileStreakContinues(t *testing.T) {
	w := NewWindow(3)
	for i := 0; i < 10; i++ {
		w.Push(true)
	}
	if !w.IsFull() || !w.AllTrue() {
		t.Fatalf("expected sustained streak to keep firing")
	}
}

func TestWindowFalseBlocksUntilEvicted(t *testing.T) {
	w := NewWindow(3)
	w.Push(true)
	w.Push(true)
	w.Push(true)
	if !w.AllTrue() {
		t.Fatalf("expected fired window")
	}

	// One false blocks for exactly 3 more pushes (until it leaves the window).
	w.Push(false)
	for i := 0; i < 2; i++ {
		w.Push(true)
		if w.AllTrue() {
			t.Fatalf("fired too early, %d trues after false", i+1)
		}
	}
	w.Push(true)
	if !w.IsFull() || !w.AllTrue() {
		t.Fatalf("expected re-fire after false evicted")
	}
}

func TestWindowCapacityFloor(t *testing.T) {
	w := NewWindow(0)
	if w.Cap() != 1 {
		t.Fatalf("expected capacity floor of 1, got %d", w.Cap())
	}
	w.Push(true)
	if !w.IsFull() || !w.AllTrue() {
		t.Fatalf("k=1 window should fire on a single true")
	}
}

func TestWindowLenNeverExceedsCap(t *testing.T) {
	w := NewWindow(3)
	for i := 0; i < 7; i++ {
		w.Push(i%2 == 0)
		if w.Len() > w.Cap() {
			t.Fatalf("len %d exceeds cap %d", w.Len(), w.Cap())
		}
	}
}
