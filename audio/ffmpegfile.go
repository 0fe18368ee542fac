package audio

import (
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegFile replays any media file ffmpeg can demux as a capture
// device. The file is decoded by an ffmpeg child process into mono
// f32le PCM on a pipe, resampled to the requested rate. In realtime
// mode ffmpeg itself paces the decode with -re, so the Go side just
// drains the pipe.
type FFmpegFile struct {
	path     string
	rate     int
	realtime bool

	// FFmpegPath overrides the ffmpeg binary looked up on PATH. Set it
	// before Start.
	FFmpegPath string

	cmd        *exec.Cmd
	pipeReader *io.PipeReader
	audioChan  chan []float32
	stopChan   chan struct{}
	streaming  bool
}

// NewFFmpegFile prepares a decoder for the given file. The sample rate
// is the output rate ffmpeg resamples to; zero selects
// DefaultSampleRate.
func NewFFmpegFile(path string, sampleRate int, realtime bool) (*FFmpegFile, error) {
	if path == "" {
		return nil, fmt.Errorf("no media file given")
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &FFmpegFile{
		path:     path,
		rate:     sampleRate,
		realtime: realtime,
		stopChan: make(chan struct{}),
	}, nil
}

func (d *FFmpegFile) Start() (<-chan []float32, error) {
	if d.streaming {
		return nil, fmt.Errorf("ffmpeg replay already started")
	}

	inputArgs := ffmpeg.KwArgs{}
	if d.realtime {
		// ffmpeg reads the file at its native rate.
		inputArgs["re"] = ""
	}

	pipeReader, pipeWriter := io.Pipe()
	d.pipeReader = pipeReader

	ffmpegCmd := ffmpeg.Input(d.path, inputArgs).
		Output("pipe:", ffmpeg.KwArgs{
			"f":      "f32le",
			"acodec": "pcm_f32le",
			"ac":     "1",
			"ar":     strconv.Itoa(d.rate),
		}).
		WithOutput(pipeWriter).
		ErrorToStdOut()

	if d.FFmpegPath != "" {
		ffmpegCmd.SetFfmpegPath(d.FFmpegPath)
	}

	d.cmd = ffmpegCmd.Compile()

	go func() {
		if err := d.cmd.Run(); err != nil {
			log.Printf("FFmpeg decode finished with error: %v", err)
		}
		pipeWriter.Close()
	}()

	d.audioChan = make(chan []float32, 16)
	d.streaming = true
	go d.runDrain()

	return d.audioChan, nil
}

// runDrain converts the raw pipe bytes into sample chunks.
func (d *FFmpegFile) runDrain() {
	defer close(d.audioChan)

	raw := make([]byte, DefaultChunkSize*4)
	for {
		n, err := io.ReadFull(d.pipeReader, raw)
		if n >= 4 {
			select {
			case d.audioChan <- bytesToFloat32(raw[:n]):
			case <-d.stopChan:
				return
			}
		}
		if err != nil {
			// EOF when the decode completes, ErrClosedPipe on Stop.
			return
		}
	}
}

func (d *FFmpegFile) Stop() error {
	if !d.streaming {
		return nil
	}
	d.streaming = false
	close(d.stopChan)
	d.pipeReader.Close()
	if d.cmd != nil && d.cmd.Process != nil {
		return d.cmd.Process.Kill()
	}
	return nil
}

func (d *FFmpegFile) SampleRate() int {
	return d.rate
}
