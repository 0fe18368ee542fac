package compute

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/anemolab/anemoscope/signal"
)

// Simulator stands in for the physical audio path: speaker, air gap,
// and microphone. Each emitted sample comes back delaySamples later,
// scaled by gain, with uniform noise mixed in at the configured
// signal-to-noise ratio.
//
// All methods are safe for concurrent use; the renderer's key handlers
// adjust the parameters while the loopback goroutine keeps ticking.
type Simulator struct {
	mu        sync.Mutex
	delayLine *signal.Ring // nil when the delay is zero
	gain      float32
	snr       float32
	rnd       *rand.Rand
}

// NewSimulator creates a simulator with the given acoustic parameters.
func NewSimulator(delaySamples int, gain, snr float32) *Simulator {
	return NewSimulatorRand(delaySamples, gain, snr,
		rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSimulatorRand is NewSimulator with an explicit noise source, for
// deterministic tests.
func NewSimulatorRand(delaySamples int, gain, snr float32, rnd *rand.Rand) *Simulator {
	s := &Simulator{gain: gain, snr: snr, rnd: rnd}
	if delaySamples > 0 {
		s.delayLine = signal.NewRing(delaySamples)
	}
	return s
}

// Tick plays one sample into the simulated path and returns what the
// microphone would capture at the same instant. While the delay line is
// still filling the path carries silence.
func (s *Simulator) Tick(input float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	output := input // zero delay passes straight through
	if s.delayLine != nil {
		var ok bool
		output, ok = s.delayLine.Push(input)
		if !ok {
			output = 0
		}
	}

	noise := s.rnd.Float32() / s.snr
	return output*s.gain + noise
}

// Gain returns the current gain multiplier.
func (s *Simulator) Gain() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gain
}

// ScaleGain multiplies the gain by factor and returns the new value.
func (s *Simulator) ScaleGain(factor float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain *= factor
	return s.gain
}

// SNR returns the current signal-to-noise ratio.
func (s *Simulator) SNR() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snr
}

// ScaleSNR multiplies the signal-to-noise ratio by factor and returns
// the new value.
func (s *Simulator) ScaleSNR(factor float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snr *= factor
	return s.snr
}

// DelaySamples returns the current delay line length.
func (s *Simulator) DelaySamples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delayLine == nil {
		return 0
	}
	return s.delayLine.Cap()
}

// SetDelay replaces the delay line with a fresh one of the given
// length. The new line starts empty, so the path carries silence until
// it fills again.
func (s *Simulator) SetDelay(delaySamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if delaySamples <= 0 {
		s.delayLine = nil
		return
	}
	s.delayLine = signal.NewRing(delaySamples)
}

// ShiftDelay adds delta samples to the delay, clamping at zero, and
// returns the new value.
func (s *Simulator) ShiftDelay(delta int) int {
	cur := s.DelaySamples()
	next := cur + delta
	if next < 0 {
		next = 0
	}
	s.SetDelay(next)
	return next
}

// RunLoopback feeds the computer's emitted samples through the
// simulator and back into its comparison window until ctx is done.
// With a positive sampleRate the loop paces itself to real time in
// chunks; otherwise it runs flat out. Run it in its own goroutine:
//
//	go compute.RunLoopback(ctx, comp, sim, 44100)
func RunLoopback(ctx context.Context, comp *Computer, sim *Simulator, sampleRate int) {
	const chunk = 512
	start := time.Now()
	var processed int64

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		for i := 0; i < chunk; i++ {
			emitted := comp.NextOutput()
			captured := sim.Tick(emitted)
			comp.RecordInput(captured)
		}
		processed += chunk

		if sampleRate > 0 {
			// Sleep off any lead over real time, the same pacing the
			// file replay devices use.
			expected := int64(time.Since(start).Seconds() * float64(sampleRate))
			if ahead := processed - expected; ahead > 0 {
				time.Sleep(time.Duration(float64(ahead) * 1e9 / float64(sampleRate)))
			}
		}
	}
}
