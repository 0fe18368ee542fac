package signal

// Ring is a fixed-capacity ring buffer of samples. Once full, each push
// evicts the oldest sample, so a full ring behaves as a sliding window
// over the most recent Cap() samples. A Ring doubles as a delay line:
// the evicted sample returned by Push is the input from Cap() pushes ago.
//
// Ring is not safe for concurrent use.
type Ring struct {
	buf   []float32
	pos   int // next write position
	count int // number of valid samples, up to len(buf)
}

// NewRing creates a ring holding up to capacity samples.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{buf: make([]float32, capacity)}
}

// Push appends v. If the ring was full, the evicted oldest sample is
// returned with ok = true; while the ring is still filling, ok is false.
func (r *Ring) Push(v float32) (evicted float32, ok bool) {
	if r.count == len(r.buf) {
		evicted, ok = r.buf[r.pos], true
	} else {
		r.count++
	}
	r.buf[r.pos] = v
	r.pos = (r.pos + 1) % len(r.buf)
	return evicted, ok
}

// PushSlice appends all samples in vs, evicting silently.
func (r *Ring) PushSlice(vs []float32) {
	for _, v := range vs {
		r.Push(v)
	}
}

// Len returns the number of samples currently held.
func (r *Ring) Len() int { return r.count }

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Full reports whether the ring has reached its capacity.
func (r *Ring) Full() bool { return r.count == len(r.buf) }

// Snapshot copies the held samples in order, oldest first. If dst has
// sufficient capacity it is reused, otherwise a new slice is allocated.
func (r *Ring) Snapshot(dst []float32) []float32 {
	if cap(dst) < r.count {
		dst = make([]float32, r.count)
	}
	dst = dst[:r.count]
	start := r.pos - r.count
	if start < 0 {
		start += len(r.buf)
	}
	n := copy(dst, r.buf[start:min(start+r.count, len(r.buf))])
	copy(dst[n:], r.buf[:r.count-n])
	return dst
}

// Recent returns the latest n samples in order, oldest first. If fewer
// than n samples have been pushed, the missing leading samples are zero.
func (r *Ring) Recent(n int) []float32 {
	out := make([]float32, n)
	avail := min(n, r.count)
	for i := 0; i < avail; i++ {
		idx := (r.pos - avail + i + len(r.buf)) % len(r.buf)
		out[n-avail+i] = r.buf[idx]
	}
	return out
}
