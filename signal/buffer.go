// Package signal provides the 1-D sample containers shared by the audio,
// compute, and rendering layers: a samplable buffer that mirrors GPU
// texture addressing, a fixed-capacity ring, and a thread-safe queue
// connecting producers to consumers.
package signal

import (
	"github.com/chewxy/math32"
)

// Filter selects how Sample interpolates between texels.
type Filter int

const (
	// FilterNearest snaps to the closest texel. This matches a GPU
	// non-filtering sampler and is the mode the difference matrix uses.
	FilterNearest Filter = iota
	// FilterLinear blends the two neighboring texels.
	FilterLinear
)

// Wrap selects how out-of-range coordinates are handled.
type Wrap int

const (
	// WrapClampToEdge clamps coordinates to the first or last texel.
	WrapClampToEdge Wrap = iota
	// WrapRepeat tiles the buffer along the coordinate axis.
	WrapRepeat
)

// Buffer1D is a one-dimensional sample buffer addressable by normalized
// coordinates, with the same semantics as a 1-D R32Float GPU texture.
// The CPU renderer samples it exactly the way the WGSL program samples
// its texture bindings, so the two renditions stay comparable.
//
// Buffer1D is not safe for concurrent mutation; snapshot data before
// handing it to another goroutine.
type Buffer1D struct {
	data   []float32
	filter Filter
	wrap   Wrap
}

// NewBuffer1D wraps data in a samplable buffer. The slice is retained,
// not copied.
func NewBuffer1D(data []float32, filter Filter, wrap Wrap) *Buffer1D {
	return &Buffer1D{data: data, filter: filter, wrap: wrap}
}

// Len returns the number of texels.
func (b *Buffer1D) Len() int { return len(b.data) }

// Data returns the underlying slice.
func (b *Buffer1D) Data() []float32 { return b.data }

// SetData replaces the underlying slice, retaining the new one.
func (b *Buffer1D) SetData(data []float32) { b.data = data }

// At returns the texel at index i with the wrap mode applied.
func (b *Buffer1D) At(i int) float32 {
	n := len(b.data)
	if n == 0 {
		return 0
	}
	switch b.wrap {
	case WrapRepeat:
		i %= n
		if i < 0 {
			i += n
		}
	default:
		if i < 0 {
			i = 0
		} else if i >= n {
			i = n - 1
		}
	}
	return b.data[i]
}

// Sample returns the value at normalized coordinate u in [0, 1], using
// the buffer's filter and wrap modes. Coordinates outside [0, 1] are
// resolved by the wrap mode, as on the GPU.
func (b *Buffer1D) Sample(u float32) float32 {
	n := len(b.data)
	if n == 0 {
		return 0
	}
	if b.filter == FilterLinear {
		// Texel centers sit at (i + 0.5) / n.
		c := u*float32(n) - 0.5
		i0 := math32.Floor(c)
		f := c - i0
		s0 := b.At(int(i0))
		s1 := b.At(int(i0) + 1)
		return s0*(1-f) + s1*f
	}
	if b.wrap == WrapRepeat {
		u -= math32.Floor(u)
	}
	return b.At(int(math32.Floor(u * float32(n))))
}
