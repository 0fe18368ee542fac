package compute

import (
	"math/rand"
	"sync"
	"time"

	"github.com/anemolab/anemoscope/signal"
)

// Defaults for the measurement pipeline. The maximum expected delay caps
// how far into the emitted history the estimator searches; in a real
// setup it is a heuristic over the physical distance plus the latency of
// the digital pipeline.
const (
	DefaultWindowWidth     = 1024
	DefaultMaxDelaySamples = 2048
	DefaultDelaySamples    = 139
	DefaultGain            = 1.0
	DefaultSNR             = 5.0

	// InputGain scales captured microphone samples before they enter
	// the comparison window. Microphone levels are far below the
	// emitted signal; without the boost the correlation peak drowns.
	InputGain = 100.0

	// noiseSigma is the standard deviation of the emitted noise. At 0.5
	// about 5% of samples fall outside the [-1, 1] sample range and are
	// clamped; a larger sigma clips excessively, a smaller one wastes
	// dynamic range.
	noiseSigma = 0.5
)

// CorrelateFunc computes the cross-correlation of a comparison window
// against the emitted history. Both CrossCorrelate and
// CrossCorrelateFFT satisfy it.
type CorrelateFunc func(output, input []float32) []float32

// Computer drives the measurement: it emits random noise for the
// speaker, accumulates what the microphone captured, and estimates the
// delay between the two by locating the correlation peak.
//
// All methods are safe for concurrent use. Delay snapshots the buffers
// under a read lock and correlates outside it, so a slow estimate never
// blocks the audio path.
type Computer struct {
	mu        sync.RWMutex
	output    *signal.Ring // emitted history: maxDelay + window samples
	input     *signal.Ring // captured comparison window
	rnd       *rand.Rand
	correlate CorrelateFunc
}

// NewComputer creates a computer searching up to maxDelaySamples of
// emitted history with a comparison window of windowWidth samples.
func NewComputer(maxDelaySamples, windowWidth int) *Computer {
	return NewComputerRand(maxDelaySamples, windowWidth,
		rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewComputerRand is NewComputer with an explicit noise source, for
// deterministic tests.
func NewComputerRand(maxDelaySamples, windowWidth int, rnd *rand.Rand) *Computer {
	c := &Computer{
		output:    signal.NewRing(maxDelaySamples + windowWidth),
		input:     signal.NewRing(windowWidth),
		rnd:       rnd,
		correlate: CrossCorrelate,
	}
	// The emitted history starts full of noise, so the delay search
	// space is complete as soon as the comparison window fills.
	for i := 0; i < c.output.Cap(); i++ {
		c.output.Push(c.noise())
	}
	return c
}

// noise draws one normally distributed sample clamped to the [-1, 1]
// sample range.
func (c *Computer) noise() float32 {
	s := float32(c.rnd.NormFloat64() * noiseSigma)
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return s
}

// SetCorrelateFunc replaces the correlation implementation.
func (c *Computer) SetCorrelateFunc(fn CorrelateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.correlate = fn
}

// NextOutput returns the next sample to play: normally distributed
// noise clamped to the [-1, 1] sample range. The sample is recorded in
// the emitted history before being returned.
func (c *Computer) NextOutput() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.noise()
	c.output.Push(s)
	return s
}

// RecordInput appends one captured sample to the comparison window.
func (c *Computer) RecordInput(sample float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input.Push(sample)
}

// DelayResult is one delay estimate together with the correlation curve
// it was derived from.
type DelayResult struct {
	// DelaySamples is the estimated delay between emitting a sample and
	// capturing it again.
	DelaySamples int
	// CrossCorrelation holds the correlation at every candidate shift,
	// oldest shift first. Useful for plotting estimator confidence.
	CrossCorrelation []float32
}

// Delay estimates the current delay. It reports ok = false until the
// comparison window has filled.
func (c *Computer) Delay() (DelayResult, bool) {
	c.mu.RLock()
	if !c.input.Full() {
		c.mu.RUnlock()
		return DelayResult{}, false
	}
	output := c.output.Snapshot(nil)
	input := c.input.Snapshot(nil)
	correlate := c.correlate
	c.mu.RUnlock()

	// The +1 covers the zero-delay shift.
	maxShift := len(output) - len(input)
	if maxShift < 0 {
		maxShift = 0
	}
	maxShift++

	corr := correlate(output, input)
	best := 0
	for shift, v := range corr {
		if v > corr[best] {
			best = shift
		}
	}

	return DelayResult{
		// The newest emitted samples sit at the highest shifts, so the
		// delay counts down from the far end of the shift range.
		DelaySamples:     maxShift - best - 1,
		CrossCorrelation: corr,
	}, true
}

// HorizontalSize returns the capacity of the emitted history, which is
// the width of the visualization's horizontal axis.
func (c *Computer) HorizontalSize() int {
	return c.output.Cap()
}

// VerticalSize returns the capacity of the comparison window, which is
// the height of the visualization's vertical axis.
func (c *Computer) VerticalSize() int {
	return c.input.Cap()
}

// SignalSnapshot copies both signal buffers for rendering, oldest
// sample first. The slices always have the full capacity length;
// positions not yet filled hold zero.
func (c *Computer) SignalSnapshot() (horizontal, vertical []float32) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	horizontal = make([]float32, c.output.Cap())
	c.output.Snapshot(horizontal[:0])
	horizontal = horizontal[:cap(horizontal)]

	vertical = make([]float32, c.input.Cap())
	c.input.Snapshot(vertical[:0])
	vertical = vertical[:cap(vertical)]
	return horizontal, vertical
}
