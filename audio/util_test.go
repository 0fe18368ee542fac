package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownmixStereoToMono(t *testing.T) {
	stereo := []float32{1, 0, 0.5, 0.5, -1, 1}

	mono := DownmixStereoToMono(stereo)

	require.Len(t, mono, 3)
	assert.InDelta(t, 0.5, mono[0], 1e-6)
	assert.InDelta(t, 0.5, mono[1], 1e-6)
	assert.InDelta(t, 0.0, mono[2], 1e-6)
}

func TestDownmixStereoToMonoOddLength(t *testing.T) {
	mono := DownmixStereoToMono([]float32{1, 1, 0.5})

	require.Len(t, mono, 1)
	assert.InDelta(t, 1.0, mono[0], 1e-6)
}

func TestFloat32BytesRoundTrip(t *testing.T) {
	samples := []float32{0, 1, -1, 0.5, -0.25}

	raw := float32ToBytes(samples)
	back := bytesToFloat32(raw)

	assert.Equal(t, samples, back)
}

func TestFloat32ToBytesLittleEndian(t *testing.T) {
	raw := float32ToBytes([]float32{1.0})

	// IEEE 754 for 1.0f is 0x3F800000, little-endian on the wire.
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, raw)
}

func TestBytesToFloat32IgnoresTrailingBytes(t *testing.T) {
	raw := append(float32ToBytes([]float32{0.5}), 0xAA, 0xBB)

	back := bytesToFloat32(raw)

	assert.Equal(t, []float32{0.5}, back)
}
