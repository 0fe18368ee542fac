package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	anemoscope "github.com/anemolab/anemoscope"
)

// A SampleSource supplies the next output sample each time it is
// called. It runs on the portaudio callback thread and must not block.
type SampleSource func() float32

// Player drives the default portaudio output device, pulling one
// sample at a time from its source. Pull style keeps the speaker and
// the delay estimator in lockstep: the estimator's generator is the
// source, so a sample is recorded as emitted at the moment the
// hardware asks for it.
type Player struct {
	sampleRate  int
	source      SampleSource
	stream      *portaudio.Stream
	isStreaming bool
}

// NewPlayer initializes portaudio and prepares an output device fed by
// source.
func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	if source == nil {
		return nil, fmt.Errorf("player needs a sample source")
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &Player{sampleRate: sampleRate, source: source}, nil
}

// audioCallback runs on the portaudio thread and must not block.
func (p *Player) audioCallback(out []float32) {
	for i := range out {
		out[i] = p.source()
	}
}

// Start opens the output stream and begins pulling samples.
func (p *Player) Start() error {
	host, err := portaudio.DefaultHostApi()
	if err != nil {
		return err
	}

	params := portaudio.HighLatencyParameters(nil, host.DefaultOutputDevice)
	params.Output.Channels = 1
	params.SampleRate = float64(p.sampleRate)

	stream, err := portaudio.OpenStream(params, p.audioCallback)
	if err != nil {
		return fmt.Errorf("failed to open playback stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start playback stream: %w", err)
	}
	p.stream = stream
	p.isStreaming = true
	anemoscope.Logger().Debug("playback stream started",
		"device", host.DefaultOutputDevice.Name,
		"rate", p.sampleRate)
	return nil
}

func (p *Player) Stop() error {
	if !p.isStreaming {
		return nil
	}
	p.isStreaming = false
	if err := p.stream.Close(); err != nil {
		portaudio.Terminate()
		return err
	}
	return portaudio.Terminate()
}

func (p *Player) SampleRate() int {
	return p.sampleRate
}

// ChannelSource adapts a device channel into a SampleSource. It buffers
// one chunk at a time and produces silence on underrun or after the
// channel closes, so a stalled producer degrades to quiet instead of
// stalling the audio callback.
func ChannelSource(input <-chan []float32) SampleSource {
	var pending []float32
	return func() float32 {
		for len(pending) == 0 {
			select {
			case chunk, ok := <-input:
				if !ok {
					return 0
				}
				pending = chunk
			default:
				return 0
			}
		}
		v := pending[0]
		pending = pending[1:]
		return v
	}
}
