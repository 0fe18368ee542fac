package signal

import (
	"testing"
)

func TestRingFillAndEvict(t *testing.T) {
	r := NewRing(3)

	if _, ok := r.Push(1); ok {
		t.Error("Push into a filling ring should not evict")
	}
	r.Push(2)
	if r.Full() {
		t.Error("ring should not be full after 2 of 3 pushes")
	}
	r.Push(3)
	if !r.Full() {
		t.Error("ring should be full after 3 pushes")
	}

	evicted, ok := r.Push(4)
	if !ok || evicted != 1 {
		t.Errorf("Push into full ring: evicted %v, ok %v; want 1, true", evicted, ok)
	}
	evicted, ok = r.Push(5)
	if !ok || evicted != 2 {
		t.Errorf("second eviction: got %v, %v; want 2, true", evicted, ok)
	}
}

func TestRingSnapshotOrder(t *testing.T) {
	r := NewRing(4)
	r.PushSlice([]float32{1, 2, 3, 4, 5, 6})

	got := r.Snapshot(nil)
	want := []float32{3, 4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("Snapshot length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Snapshot[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRingSnapshotPartial(t *testing.T) {
	r := NewRing(8)
	r.PushSlice([]float32{7, 8, 9})

	got := r.Snapshot(make([]float32, 0, 8))
	if len(got) != 3 {
		t.Fatalf("Snapshot of partially filled ring: length %d, want 3", len(got))
	}
	for i, want := range []float32{7, 8, 9} {
		if got[i] != want {
			t.Errorf("Snapshot[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestRingRecent(t *testing.T) {
	r := NewRing(5)
	r.PushSlice([]float32{1, 2, 3, 4, 5, 6, 7})

	got := r.Recent(3)
	for i, want := range []float32{5, 6, 7} {
		if got[i] != want {
			t.Errorf("Recent(3)[%d] = %v, want %v", i, got[i], want)
		}
	}

	// Asking for more than was ever pushed zero-pads the front.
	r2 := NewRing(5)
	r2.PushSlice([]float32{9, 8})
	got = r2.Recent(4)
	for i, want := range []float32{0, 0, 9, 8} {
		if got[i] != want {
			t.Errorf("Recent(4)[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestRingAsDelayLine(t *testing.T) {
	// A full ring of capacity d returns each sample d pushes later.
	const d = 4
	r := NewRing(d)
	for i := 0; i < d; i++ {
		r.Push(float32(i))
	}
	for i := d; i < d*5; i++ {
		evicted, ok := r.Push(float32(i))
		if !ok {
			t.Fatalf("push %d: expected eviction from full ring", i)
		}
		if want := float32(i - d); evicted != want {
			t.Fatalf("push %d evicted %v, want %v", i, evicted, want)
		}
	}
}
