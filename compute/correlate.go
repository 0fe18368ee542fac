// Package compute estimates the delay between an emitted and a captured
// signal stream by cross-correlation, and provides a loopback simulator
// for exercising the estimator without audio hardware.
package compute

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// CrossCorrelate computes the sliding-window correlation of input
// against output at every non-negative shift:
//
//	corr[shift] = sum(output[shift+i] * input[i])
//
// The result has len(output)-len(input)+1 entries, or a single entry
// when the output is shorter than the input (the overlap is truncated,
// matching a comparison window that has not filled yet).
func CrossCorrelate(output, input []float32) []float32 {
	maxShift := len(output) - len(input) + 1
	if maxShift < 1 {
		maxShift = 1
	}
	corr := make([]float32, maxShift)
	for shift := 0; shift < maxShift; shift++ {
		n := min(len(input), len(output)-shift)
		var acc float32
		for i := 0; i < n; i++ {
			acc += output[shift+i] * input[i]
		}
		corr[shift] = acc
	}
	return corr
}

// CrossCorrelateFFT computes the same correlation as CrossCorrelate in
// the frequency domain. For the default window sizes this is an order
// of magnitude faster than the direct sum; the price is float64 round
// trip error on the order of 1e-4 relative.
func CrossCorrelateFFT(output, input []float32) []float32 {
	maxShift := len(output) - len(input) + 1
	if maxShift < 1 {
		maxShift = 1
	}
	if len(output) == 0 || len(input) == 0 {
		return make([]float32, maxShift)
	}

	// Zero-pad to a power of two covering the full linear correlation
	// so circular wraparound cannot alias into the lags we keep.
	size := 1
	for size < len(output)+len(input)-1 {
		size <<= 1
	}

	a := make([]float64, size)
	for i, v := range output {
		a[i] = float64(v)
	}
	b := make([]float64, size)
	for i, v := range input {
		b[i] = float64(v)
	}

	fa := fft.FFTReal(a)
	fb := fft.FFTReal(b)
	prod := make([]complex128, size)
	for i := range prod {
		prod[i] = fa[i] * cmplx.Conj(fb[i])
	}
	c := fft.IFFT(prod)

	corr := make([]float32, maxShift)
	for i := range corr {
		corr[i] = float32(real(c[i]))
	}
	return corr
}

// MarkerPosition converts a delay in samples to the normalized
// horizontal coordinate of the red marker column: zero delay sits at
// the right edge (the newest emitted sample) and the maximum delay at
// the left.
func MarkerPosition(delaySamples, horizontalSize int) float32 {
	if horizontalSize <= 0 {
		return 1
	}
	return 1 - float32(delaySamples)/float32(horizontalSize)
}
