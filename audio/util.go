package audio

import (
	"encoding/binary"
	"math"
)

// DownmixStereoToMono converts an interleaved stereo buffer to mono by
// averaging the left and right channels. An odd trailing sample is
// dropped.
func DownmixStereoToMono(stereo []float32) []float32 {
	if len(stereo)%2 != 0 {
		stereo = stereo[:len(stereo)-1]
	}
	mono := make([]float32, len(stereo)/2)
	for i := range mono {
		mono[i] = (stereo[i*2] + stereo[i*2+1]) * 0.5
	}
	return mono
}

// bytesToFloat32 reinterprets little-endian f32le PCM bytes as samples.
// Trailing bytes that do not fill a whole sample are ignored.
func bytesToFloat32(raw []byte) []float32 {
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}

// float32ToBytes serializes samples as little-endian f32le PCM, the
// format ffmpeg consumes on its input pipe.
func float32ToBytes(samples []float32) []byte {
	raw := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return raw
}
