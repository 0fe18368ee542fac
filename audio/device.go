// Package audio provides the capture and playback devices that connect
// the delay estimator to real hardware and to recorded files.
package audio

// Capture and playback go through portaudio.
// macos:	brew install portaudio
// debian:	sudo apt-get install portaudio19-dev
// windows:	pacman -S mingw-w64-x86_64-portaudio

// DefaultSampleRate is the rate every device runs at unless told
// otherwise.
const DefaultSampleRate = 44100

// DefaultChunkSize is the number of samples per chunk sent over a
// device channel.
const DefaultChunkSize = 1024

// A Device produces a stream of audio sample chunks.
type Device interface {
	// Start begins capture and returns a receive-only channel of mono
	// float32 chunks. The channel closes when the stream ends.
	Start() (<-chan []float32, error)
	// Stop terminates the stream and closes the channel.
	Stop() error
	// SampleRate returns the sample rate of the device.
	SampleRate() int
}

// NullDevice is a silent stand-in used when no audio input is
// configured.
type NullDevice struct {
	rate int
}

func NewNullDevice(sampleRate int) *NullDevice {
	return &NullDevice{rate: sampleRate}
}

// Start returns a nil channel, which blocks forever on receive and so
// behaves as endless silence.
func (d *NullDevice) Start() (<-chan []float32, error) {
	return nil, nil
}

func (d *NullDevice) Stop() error { return nil }

func (d *NullDevice) SampleRate() int { return d.rate }
