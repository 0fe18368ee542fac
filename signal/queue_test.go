package signal

import (
	"sync"
	"testing"
)

func TestQueueReadAcrossChunks(t *testing.T) {
	q := NewQueue(44100, 0)
	q.Write([]float32{1, 2, 3}, true)
	q.Write([]float32{4, 5}, true)

	got := q.Read(4)
	for i, want := range []float32{1, 2, 3, 4} {
		if got[i] != want {
			t.Errorf("Read[%d] = %v, want %v", i, got[i], want)
		}
	}
	if q.Available() != 1 {
		t.Errorf("Available after partial read = %d, want 1", q.Available())
	}

	got = q.Read(10)
	if len(got) != 1 || got[0] != 5 {
		t.Errorf("draining Read = %v, want [5]", got)
	}
	if q.Read(1) != nil {
		t.Error("Read from empty queue should return nil")
	}
}

func TestQueueWriteCopies(t *testing.T) {
	q := NewQueue(44100, 0)
	src := []float32{1, 2, 3}
	q.Write(src, true)
	src[0] = 99

	got := q.Read(3)
	if got[0] != 1 {
		t.Errorf("queue should copy on write; got[0] = %v, want 1", got[0])
	}
}

func TestQueueDropOldest(t *testing.T) {
	// Small capacity forces the chunk limit to the minimum of 20.
	q := NewQueue(1, 0)
	for i := 0; i < 25; i++ {
		q.Write([]float32{float32(i), float32(i)}, true)
	}

	if q.TotalWritten() != 50 {
		t.Errorf("TotalWritten = %d, want 50", q.TotalWritten())
	}
	if q.Dropped() != 10 {
		t.Errorf("Dropped = %d, want 10 (5 chunks of 2)", q.Dropped())
	}
	if q.Available() != 40 {
		t.Errorf("Available = %d, want 40", q.Available())
	}

	// The oldest surviving chunk is the sixth one written.
	got := q.Read(2)
	if got[0] != 5 {
		t.Errorf("oldest surviving sample = %v, want 5", got[0])
	}
}

func TestQueueRejectNewestWhenAsked(t *testing.T) {
	q := NewQueue(1, 0)
	for i := 0; i < 20; i++ {
		q.Write([]float32{float32(i)}, true)
	}
	q.Write([]float32{99}, false)

	if q.Available() != 20 {
		t.Errorf("Available = %d, want 20", q.Available())
	}
	if q.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", q.Dropped())
	}
}

func TestQueueWindowPeek(t *testing.T) {
	q := NewQueue(44100, 4)

	// Until a full window has been written, the peek window is zero.
	q.Write([]float32{1, 2}, true)
	for i, v := range q.WindowPeek() {
		if v != 0 {
			t.Errorf("peek before first swap: [%d] = %v, want 0", i, v)
		}
	}

	// Completing the window swaps it into view.
	q.Write([]float32{3, 4}, true)
	got := q.WindowPeek()
	for i, want := range []float32{1, 2, 3, 4} {
		if got[i] != want {
			t.Errorf("peek after swap: [%d] = %v, want %v", i, got[i], want)
		}
	}

	// A partially refilled window leaves the visible one untouched.
	q.Write([]float32{5}, true)
	got = q.WindowPeek()
	if got[0] != 1 {
		t.Errorf("peek during refill: [0] = %v, want 1", got[0])
	}

	// One oversized write can cross multiple window boundaries; the
	// visible window ends up holding the last complete window.
	q.Write([]float32{6, 7, 8, 9, 10, 11, 12}, true)
	got = q.WindowPeek()
	for i, want := range []float32{9, 10, 11, 12} {
		if got[i] != want {
			t.Errorf("peek after oversized write: [%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestQueueConcurrentAccess(t *testing.T) {
	q := NewQueue(44100, 0)

	var wg sync.WaitGroup
	const writers = 8
	const chunks = 100

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < chunks; i++ {
				q.Write([]float32{1, 2, 3, 4}, true)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writers*chunks/2; i++ {
			q.Read(4)
			q.WindowPeek()
			q.Available()
		}
	}()

	wg.Wait()

	if q.TotalWritten() != writers*chunks*4 {
		t.Errorf("TotalWritten = %d, want %d", q.TotalWritten(), writers*chunks*4)
	}
}
