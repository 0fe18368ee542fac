// Package encoder muxes rendered frames into a video file through an
// ffmpeg child process.
package encoder

import (
	"fmt"
	"io"
	"log"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/anemolab/anemoscope/options"
)

// Frame represents a single rendered video frame's data, ready for
// encoding. Pixels holds tightly packed RGBA rows, top scanline first.
// PTS counts frames; the rawvideo demuxer derives timing from the frame
// rate, so it only appears in log messages here.
type Frame struct {
	Pixels []byte
	PTS    int64
}

// FFmpegEncoder feeds raw RGBA frames to an ffmpeg process over a pipe
// and muxes them into the output file named by the options. Frames
// travel over a small channel so the renderer only blocks when the
// encoder falls behind.
type FFmpegEncoder struct {
	frameSize int

	pipeWriter  *io.PipeWriter
	videoFrames chan *Frame
	ffmpegErr   chan error
	done        chan error
}

// videoArgs builds the rawvideo demuxer arguments and the encoder
// arguments for the configured codec.
func videoArgs(opts *options.ShaderOptions) (inputArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", *opts.Width, *opts.Height),
		"r":       *opts.FPS,
	}

	outputArgs = ffmpeg.KwArgs{
		"pix_fmt": "yuv420p",
		"r":       *opts.FPS,
	}

	switch *opts.Codec {
	case "hevc":
		outputArgs["c:v"] = "libx265"
		if strings.HasSuffix(*opts.OutputFile, ".mp4") {
			outputArgs["tag:v"] = "hvc1"
		}
	default:
		outputArgs["c:v"] = "libx264"
	}
	outputArgs["preset"] = "slow"
	return
}

func NewFFmpegEncoder(opts *options.ShaderOptions) (*FFmpegEncoder, error) {
	if *opts.OutputFile == "" {
		return nil, fmt.Errorf("no output file given")
	}
	if *opts.Width <= 0 || *opts.Height <= 0 || *opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid recording geometry %dx%d at %d fps", *opts.Width, *opts.Height, *opts.FPS)
	}

	inputArgs, outputArgs := videoArgs(opts)
	pipeReader, pipeWriter := io.Pipe()

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(*opts.OutputFile, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()

	if *opts.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(*opts.FFmpegPath)
	}

	e := &FFmpegEncoder{
		frameSize:   *opts.Width * *opts.Height * 4,
		pipeWriter:  pipeWriter,
		videoFrames: make(chan *Frame, 5),
		ffmpegErr:   make(chan error, 1),
		done:        make(chan error, 1),
	}

	go func() {
		e.ffmpegErr <- ffmpegCmd.Run()
		// Unblocks a writer stuck on a full pipe when ffmpeg dies early.
		pipeReader.Close()
	}()

	return e, nil
}

// Run consumes frames until Close and then finalizes the output file.
// Call it in its own goroutine.
func (e *FFmpegEncoder) Run() {
	var writeErr error
	for frame := range e.videoFrames {
		if len(frame.Pixels) != e.frameSize {
			log.Printf("Dropping frame %d: %d bytes, want %d", frame.PTS, len(frame.Pixels), e.frameSize)
			continue
		}
		if _, err := e.pipeWriter.Write(frame.Pixels); err != nil {
			writeErr = fmt.Errorf("writing frame %d to ffmpeg: %w", frame.PTS, err)
			break
		}
	}

	// Keep draining after a write error so the producer never blocks.
	for range e.videoFrames {
	}

	e.pipeWriter.Close()
	err := <-e.ffmpegErr
	if writeErr != nil && err == nil {
		err = writeErr
	}
	e.done <- err
}

// SendVideo queues one frame for encoding.
func (e *FFmpegEncoder) SendVideo(frame *Frame) {
	e.videoFrames <- frame
}

// Close signals the end of the stream and blocks until ffmpeg has
// written the trailer.
func (e *FFmpegEncoder) Close() error {
	close(e.videoFrames)
	return <-e.done
}
