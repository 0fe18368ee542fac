package audio

import (
	"fmt"
	"log"
	"time"

	"github.com/gordonklaus/portaudio"

	anemoscope "github.com/anemolab/anemoscope"
	"github.com/anemolab/anemoscope/signal"
)

// Microphone captures mono input from the default portaudio device and
// acts as a pure producer, sending chunks to a channel.
//
// The boost factor scales every captured sample. Delay estimation
// correlates the quiet microphone signal against the full-scale
// generated one, so the capture path boosts its samples well above
// unity to keep the correlation peak out of the noise floor.
type Microphone struct {
	sampleRate  int
	boost       float32
	stream      *portaudio.Stream
	queue       *signal.Queue
	scratch     []float32
	audioChan   chan []float32
	quit        chan struct{}
	isStreaming bool
}

// NewMicrophone initializes portaudio and prepares a capture device.
// A boost of 1 leaves samples unscaled.
func NewMicrophone(sampleRate int, boost float32) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	if boost == 0 {
		boost = 1
	}
	return &Microphone{sampleRate: sampleRate, boost: boost}, nil
}

// audioCallback runs on the portaudio thread and must not block. It
// writes into the queue, which drops its oldest samples on overflow, so
// a stalled consumer costs stale data instead of fresh.
func (m *Microphone) audioCallback(in []float32) {
	if cap(m.scratch) < len(in) {
		m.scratch = make([]float32, len(in))
	}
	scaled := m.scratch[:len(in)]
	for i, v := range in {
		scaled[i] = v * m.boost
	}
	m.queue.Write(scaled, true)
}

// pump drains the queue into the channel at chunk granularity. The
// channel send may block; the queue keeps absorbing callbacks while it
// does. pump is the only sender, so it owns closing the channel.
func (m *Microphone) pump() {
	defer close(m.audioChan)
	for {
		select {
		case <-m.quit:
			return
		default:
		}

		chunk := m.queue.Read(DefaultChunkSize)
		if chunk == nil {
			time.Sleep(2 * time.Millisecond)
			continue
		}
		select {
		case m.audioChan <- chunk:
		case <-m.quit:
			return
		}
	}
}

func (m *Microphone) Start() (<-chan []float32, error) {
	// Half a second of backlog between the callback and the consumer.
	m.queue = signal.NewQueue(m.sampleRate/2, DefaultChunkSize)
	m.audioChan = make(chan []float32, 4)
	m.quit = make(chan struct{})

	host, err := portaudio.DefaultHostApi()
	if err != nil {
		return nil, err
	}

	params := portaudio.HighLatencyParameters(host.DefaultInputDevice, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(m.sampleRate)

	stream, err := portaudio.OpenStream(params, m.audioCallback)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture stream: %w", err)
	}
	m.stream = stream
	m.isStreaming = true
	go m.pump()
	anemoscope.Logger().Debug("capture stream started",
		"device", host.DefaultInputDevice.Name,
		"rate", m.sampleRate, "boost", m.boost)

	return m.audioChan, nil
}

func (m *Microphone) Stop() error {
	if !m.isStreaming {
		return nil
	}
	m.isStreaming = false
	close(m.quit)
	if dropped := m.queue.Dropped(); dropped > 0 {
		log.Printf("Capture dropped %d samples", dropped)
	}
	if err := m.stream.Close(); err != nil {
		portaudio.Terminate()
		return err
	}
	return portaudio.Terminate()
}

func (m *Microphone) SampleRate() int {
	return m.sampleRate
}
