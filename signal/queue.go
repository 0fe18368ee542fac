package signal

import (
	"sync"
)

// DefaultWindowSize is the size of the peek window when none is given.
const DefaultWindowSize = 2048

// Queue is a thread-safe buffered sample queue connecting an audio
// producer to a consumer. Writes enqueue chunks; reads drain them FIFO.
// When the queue is full the oldest chunk is dropped, so a stalled
// consumer sees a gap rather than stalling the producer.
//
// Independently of the FIFO, the queue maintains a non-destructive peek
// window over the most recent samples, so the live signal can be
// inspected without competing with the primary consumer for samples.
type Queue struct {
	mu             sync.RWMutex
	chunks         [][]float32
	maxChunks      int
	totalWritten   int64
	droppedSamples int64
	available      int

	// Double-buffered peek window: writers fill writeWindow and swap it
	// with readWindow when full, so WindowPeek never observes a
	// half-written window.
	windowMu    sync.RWMutex
	windowSize  int
	writeWindow []float32
	readWindow  []float32
	writePos    int
}

// NewQueue creates a queue holding roughly capacity samples, with a peek
// window of windowSize samples. A windowSize <= 0 selects
// DefaultWindowSize.
func NewQueue(capacity, windowSize int) *Queue {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	maxChunks := max(capacity/1024, 20)
	return &Queue{
		chunks:      make([][]float32, 0, maxChunks),
		maxChunks:   maxChunks,
		windowSize:  windowSize,
		writeWindow: make([]float32, windowSize),
		readWindow:  make([]float32, windowSize),
	}
}

// Write enqueues a copy of samples and updates the peek window. When the
// queue is full and dropIfFull is true, the oldest chunk is discarded;
// otherwise the new samples are discarded.
func (q *Queue) Write(samples []float32, dropIfFull bool) {
	q.updateWindow(samples)

	q.mu.Lock()
	defer q.mu.Unlock()

	chunk := make([]float32, len(samples))
	copy(chunk, samples)

	if len(q.chunks) >= q.maxChunks {
		if !dropIfFull {
			q.droppedSamples += int64(len(samples))
			return
		}
		old := q.chunks[0]
		q.chunks = q.chunks[1:]
		q.droppedSamples += int64(len(old))
		q.available -= len(old)
	}

	q.chunks = append(q.chunks, chunk)
	q.totalWritten += int64(len(samples))
	q.available += len(samples)
}

// Read destructively removes up to count of the oldest samples. It
// returns fewer than count samples when the queue holds fewer, and nil
// when it is empty.
func (q *Queue) Read(count int) []float32 {
	q.mu.Lock()
	defer q.mu.Unlock()

	if count <= 0 || q.available == 0 {
		return nil
	}
	if count > q.available {
		count = q.available
	}

	out := make([]float32, count)
	outPos := 0
	remaining := count

	for len(q.chunks) > 0 && remaining > 0 {
		chunk := q.chunks[0]
		n := min(remaining, len(chunk))
		copy(out[outPos:], chunk[:n])
		outPos += n
		remaining -= n
		if n == len(chunk) {
			q.chunks = q.chunks[1:]
		} else {
			q.chunks[0] = chunk[n:]
		}
	}

	q.available -= count
	return out
}

// Available returns the number of readable samples.
func (q *Queue) Available() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.available
}

// TotalWritten returns the number of samples ever written, including
// those later dropped.
func (q *Queue) TotalWritten() int64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.totalWritten
}

// Dropped returns the number of samples lost to overflow.
func (q *Queue) Dropped() int64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.droppedSamples
}

// WindowSize returns the size of the peek window.
func (q *Queue) WindowSize() int { return q.windowSize }

func (q *Queue) updateWindow(samples []float32) {
	q.windowMu.Lock()
	defer q.windowMu.Unlock()

	idx := 0
	for idx < len(samples) {
		space := q.windowSize - q.writePos
		n := min(len(samples)-idx, space)
		copy(q.writeWindow[q.writePos:q.writePos+n], samples[idx:idx+n])
		q.writePos += n
		idx += n
		if q.writePos >= q.windowSize {
			q.writeWindow, q.readWindow = q.readWindow, q.writeWindow
			q.writePos = 0
		}
	}
}

// WindowPeek returns a copy of the most recently completed peek window.
func (q *Queue) WindowPeek() []float32 {
	q.windowMu.RLock()
	defer q.windowMu.RUnlock()
	out := make([]float32, q.windowSize)
	copy(out, q.readWindow)
	return out
}
