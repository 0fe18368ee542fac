package audio

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVFile replays a WAV file as a capture device. Stereo content is
// downmixed to mono and integer PCM is normalized to [-1, 1]. With
// realtime enabled the replay paces itself to the file's sample rate;
// disabled it decodes flat out, which suits tests and offline runs.
type WAVFile struct {
	path     string
	realtime bool

	file     *os.File
	decoder  *wav.Decoder
	rate     int
	channels int
	maxVal   float32

	audioChan chan []float32
	stopChan  chan struct{}
	streaming bool
}

// NewWAVFile opens and validates the file, reading its format header.
func NewWAVFile(path string, realtime bool) (*WAVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	maxVal := float32(int64(1) << (bitDepth - 1))

	return &WAVFile{
		path:     path,
		realtime: realtime,
		file:     f,
		decoder:  decoder,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		maxVal:   maxVal,
		stopChan: make(chan struct{}),
	}, nil
}

func (w *WAVFile) Start() (<-chan []float32, error) {
	if w.streaming {
		return nil, fmt.Errorf("wav replay already started")
	}
	w.streaming = true
	w.audioChan = make(chan []float32, 16)
	go w.runReplay()
	return w.audioChan, nil
}

func (w *WAVFile) runReplay() {
	defer close(w.audioChan)
	defer w.file.Close()

	buf := &goaudio.IntBuffer{
		Data: make([]int, DefaultChunkSize*w.channels),
		Format: &goaudio.Format{
			NumChannels: w.channels,
			SampleRate:  w.rate,
		},
	}

	var pacer *ratePacer
	if w.realtime {
		pacer = newRatePacer(w.rate)
	}

	for {
		n, err := w.decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			log.Printf("Error decoding wav file: %v", err)
			return
		}
		if n == 0 {
			return
		}

		samples := make([]float32, n)
		for i := 0; i < n; i++ {
			samples[i] = float32(buf.Data[i]) / w.maxVal
		}
		if w.channels == 2 {
			samples = DownmixStereoToMono(samples)
		}

		select {
		case w.audioChan <- samples:
		case <-w.stopChan:
			return
		}

		if pacer != nil {
			pacer.pace(len(samples))
		}
	}
}

func (w *WAVFile) Stop() error {
	if !w.streaming {
		return nil
	}
	w.streaming = false
	close(w.stopChan)
	return nil
}

func (w *WAVFile) SampleRate() int {
	return w.rate
}
