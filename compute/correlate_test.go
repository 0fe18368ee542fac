package compute

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestCrossCorrelateKnown(t *testing.T) {
	output := []float32{1, 2, 3, 4}
	input := []float32{1, 1}

	corr := CrossCorrelate(output, input)

	assert.Equal(t, []float32{3, 5, 7}, corr)
}

func TestCrossCorrelateEqualLength(t *testing.T) {
	sig := []float32{1, 2, 3}

	corr := CrossCorrelate(sig, sig)

	require.Len(t, corr, 1)
	assert.InDelta(t, 14.0, corr[0], 1e-6)
}

func TestCrossCorrelateTruncatedOverlap(t *testing.T) {
	// Output shorter than input happens while the comparison window is
	// still filling. The overlap truncates instead of panicking.
	corr := CrossCorrelate([]float32{2}, []float32{1, 2, 3})

	require.Len(t, corr, 1)
	assert.InDelta(t, 2.0, corr[0], 1e-6)
}

func TestCrossCorrelateEmpty(t *testing.T) {
	assert.Equal(t, []float32{0}, CrossCorrelate(nil, nil))
	assert.Equal(t, []float32{0}, CrossCorrelateFFT(nil, nil))
}

func TestCrossCorrelateFFTKnown(t *testing.T) {
	corr := CrossCorrelateFFT([]float32{1, 2, 3, 4}, []float32{1, 1})

	require.Len(t, corr, 3)
	assert.InDelta(t, 3.0, corr[0], 1e-5)
	assert.InDelta(t, 5.0, corr[1], 1e-5)
	assert.InDelta(t, 7.0, corr[2], 1e-5)
}

func TestCrossCorrelateFFTMatchesDirect(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	output := make([]float32, 96)
	out64 := make([]float64, len(output))
	for i := range output {
		output[i] = float32(rnd.NormFloat64() * 0.5)
		out64[i] = float64(output[i])
	}
	input := make([]float32, 32)
	in64 := make([]float64, len(input))
	for i := range input {
		input[i] = float32(rnd.NormFloat64() * 0.5)
		in64[i] = float64(input[i])
	}

	direct := CrossCorrelate(output, input)
	viaFFT := CrossCorrelateFFT(output, input)

	require.Equal(t, len(direct), len(viaFFT))
	for shift := range direct {
		// Independent float64 oracle for the same sliding dot product.
		want := floats.Dot(out64[shift:shift+len(in64)], in64)
		assert.InDelta(t, want, direct[shift], 1e-3, "direct, shift %d", shift)
		assert.InDelta(t, want, viaFFT[shift], 1e-3, "fft, shift %d", shift)
	}
}

func TestMarkerPosition(t *testing.T) {
	assert.InDelta(t, 1.0, MarkerPosition(0, 1024), 1e-6)
	assert.InDelta(t, 1.0-139.0/1024.0, MarkerPosition(139, 1024), 1e-6)
	assert.InDelta(t, 0.0, MarkerPosition(1024, 1024), 1e-6)
	assert.InDelta(t, 1.0, MarkerPosition(512, 0), 1e-6)
}

func benchmarkSignals() (output, input []float32) {
	rnd := rand.New(rand.NewSource(1))
	output = make([]float32, DefaultMaxDelaySamples+DefaultWindowWidth)
	for i := range output {
		output[i] = float32(rnd.NormFloat64() * 0.5)
	}
	input = make([]float32, DefaultWindowWidth)
	copy(input, output[len(output)-len(input):])
	return output, input
}

func BenchmarkCrossCorrelate(b *testing.B) {
	output, input := benchmarkSignals()
	b.ReportAllocs()
	for b.Loop() {
		CrossCorrelate(output, input)
	}
}

func BenchmarkCrossCorrelateFFT(b *testing.B) {
	output, input := benchmarkSignals()
	b.ReportAllocs()
	for b.Loop() {
		CrossCorrelateFFT(output, input)
	}
}
