// Command anemoscope visualizes the delay between an emitted noise
// signal and its captured echo as a difference matrix, and reports the
// measured delay on the terminal.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	anemoscope "github.com/anemolab/anemoscope"
	"github.com/anemolab/anemoscope/audio"
	"github.com/anemolab/anemoscope/compute"
	"github.com/anemolab/anemoscope/encoder"
	"github.com/anemolab/anemoscope/glfwcontext"
	"github.com/anemolab/anemoscope/gpu"
	"github.com/anemolab/anemoscope/monitor"
	"github.com/anemolab/anemoscope/options"
	"github.com/anemolab/anemoscope/renderer"
	"github.com/anemolab/anemoscope/signal"
	"github.com/anemolab/anemoscope/software"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	opts := &options.ShaderOptions{
		Mode:        flag.String("mode", "sim", "run mode: sim, live or repl"),
		Backend:     flag.String("backend", "gl", "render backend for -record: gl, wgpu or cpu"),
		Width:       flag.Int("width", 1280, "width of the visualization"),
		Height:      flag.Int("height", 720, "height of the visualization"),
		Window:      flag.Int("window", compute.DefaultWindowWidth, "comparison window length in samples"),
		MaxDelay:    flag.Int("max-delay", compute.DefaultMaxDelaySamples, "largest searched delay in samples"),
		Delay:       flag.Int("delay", compute.DefaultDelaySamples, "simulated transit delay in samples"),
		Gain:        flag.Float64("gain", compute.DefaultGain, "simulated loop gain"),
		SNR:         flag.Float64("snr", compute.DefaultSNR, "simulated signal to noise ratio"),
		InputFile:   flag.String("input", "", "replay a WAV or media file instead of capturing the microphone"),
		ListDevices: flag.Bool("list-devices", false, "list audio devices and exit"),
		OutputFile:  flag.String("record", "", "record the visualization to this file instead of opening a window"),
		Duration:    flag.Float64("duration", 10.0, "duration to record in seconds"),
		FPS:         flag.Int("fps", 60, "frames per second for recording"),
		Codec:       flag.String("codec", "h264", "video codec for recording: h264 or hevc"),
		FFmpegPath:  flag.String("ffmpeg", "", "path to ffmpeg executable"),
		Verbose:     flag.Bool("v", false, "verbose library logging"),
	}
	flag.Parse()

	if *opts.Verbose {
		anemoscope.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if *opts.ListDevices {
		devices, err := audio.ListDevices()
		if err != nil {
			log.Fatalf("Failed to list audio devices: %v", err)
		}
		for _, d := range devices {
			fmt.Println(d)
		}
		return
	}

	var err error
	switch *opts.Mode {
	case "sim", "live":
		err = run(opts)
	case "repl":
		err = runREPL(opts)
	default:
		log.Fatalf("Unknown mode %q (want sim, live or repl)", *opts.Mode)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

// run wires the measurement loop for the sim and live modes and then
// hands off to the interactive viewer or the recorder.
func run(opts *options.ShaderOptions) error {
	comp := compute.NewComputer(*opts.MaxDelay, *opts.Window)
	comp.SetCorrelateFunc(compute.CrossCorrelateFFT)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sim *compute.Simulator
	if *opts.Mode == "sim" {
		sim = compute.NewSimulator(*opts.Delay, float32(*opts.Gain), float32(*opts.SNR))
		go compute.RunLoopback(ctx, comp, sim, audio.DefaultSampleRate)
	} else {
		stop, err := startLiveAudio(ctx, opts, comp)
		if err != nil {
			return err
		}
		defer stop()
	}

	go monitor.New(os.Stdout).Run(ctx, comp)

	if *opts.OutputFile != "" {
		return record(opts, comp)
	}
	return runInteractive(opts, comp, sim)
}

// startLiveAudio plays the computer's noise through the default output
// and feeds captured samples back into its comparison window. The
// returned function stops both streams.
func startLiveAudio(ctx context.Context, opts *options.ShaderOptions, comp *compute.Computer) (func(), error) {
	var input audio.Device
	var err error
	if *opts.InputFile != "" {
		input, err = audio.OpenFile(*opts.InputFile, audio.DefaultSampleRate, true)
	} else {
		input, err = audio.NewMicrophone(audio.DefaultSampleRate, compute.InputGain)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audio input: %w", err)
	}

	player, err := audio.NewPlayer(audio.DefaultSampleRate, comp.NextOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio output: %w", err)
	}
	if err := player.Start(); err != nil {
		return nil, fmt.Errorf("failed to start playback: %w", err)
	}

	chunks, err := input.Start()
	if err != nil {
		player.Stop()
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}
	log.Printf("Live mode: playing noise and capturing input at %d Hz", input.SampleRate())

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case chunk, ok := <-chunks:
				if !ok {
					return
				}
				for _, s := range chunk {
					comp.RecordInput(s)
				}
			}
		}
	}()

	return func() {
		input.Stop()
		player.Stop()
	}, nil
}

// marker returns the normalized horizontal coordinate of the red delay
// column, or a value outside [0, 1] while the estimator has no answer
// yet, which draws no marker at all.
func marker(comp *compute.Computer) float32 {
	res, ok := comp.Delay()
	if !ok {
		return 2.0
	}
	return compute.MarkerPosition(res.DelaySamples, comp.HorizontalSize())
}

func windowTitle(comp *compute.Computer, sim *compute.Simulator) string {
	title := "Anemoscope"
	if res, ok := comp.Delay(); ok {
		title = fmt.Sprintf("Anemoscope - delay %d samples", res.DelaySamples)
	}
	if sim != nil {
		title += fmt.Sprintf(" (sim gain %.2f snr %.2f delay %d)",
			sim.Gain(), sim.SNR(), sim.DelaySamples())
	}
	return title
}

// registerKeys binds the interactive controls. The simulator keys only
// exist in sim mode; in live mode the physical setup is the control.
func registerKeys(ctx *glfwcontext.Context, sim *compute.Simulator) {
	win := ctx.Window()
	ctx.RegisterKeyCallback(glfw.KeyQ, func() { win.SetShouldClose(true) })
	if sim == nil {
		return
	}
	ctx.RegisterKeyCallback(glfw.KeyA, func() { log.Printf("gain: %.3f", sim.ScaleGain(1.1)) })
	ctx.RegisterKeyCallback(glfw.KeyS, func() { log.Printf("gain: %.3f", sim.ScaleGain(0.9)) })
	ctx.RegisterKeyCallback(glfw.KeyN, func() { log.Printf("snr: %.3f", sim.ScaleSNR(0.9)) })
	ctx.RegisterKeyCallback(glfw.KeyM, func() { log.Printf("snr: %.3f", sim.ScaleSNR(1.1)) })
	ctx.RegisterKeyCallback(glfw.KeyD, func() { log.Printf("delay: %d samples", sim.ShiftDelay(5)) })
	ctx.RegisterKeyCallback(glfw.KeyF, func() { log.Printf("delay: %d samples", sim.ShiftDelay(-5)) })
}

func runInteractive(opts *options.ShaderOptions, comp *compute.Computer, sim *compute.Simulator) error {
	if err := glfwcontext.InitGraphics(); err != nil {
		return fmt.Errorf("failed to initialize graphics: %w", err)
	}
	defer glfwcontext.TerminateGraphics()

	r, err := renderer.NewRenderer(*opts.Width, *opts.Height, true)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer r.Shutdown()

	registerKeys(r.Context(), sim)

	log.Println("Starting interactive render loop...")
	var lastTitle time.Time
	r.Run(func() ([]float32, []float32, float32) {
		if time.Since(lastTitle) >= time.Second {
			r.Context().Window().SetTitle(windowTitle(comp, sim))
			lastTitle = time.Now()
		}
		horizontal, vertical := comp.SignalSnapshot()
		return horizontal, vertical, marker(comp)
	})
	return nil
}

// frameRenderer produces one finished RGBA frame per call. The OpenGL,
// WebGPU and CPU backends all satisfy it.
type frameRenderer interface {
	Frame(horizontal, vertical []float32, delay float32) ([]byte, error)
}

// cpuRenderer adapts the software renderer to the record loop.
type cpuRenderer struct {
	r *software.Renderer
}

func (c *cpuRenderer) Frame(horizontal, vertical []float32, delay float32) ([]byte, error) {
	hb := signal.NewBuffer1D(horizontal, signal.FilterNearest, signal.WrapClampToEdge)
	vb := signal.NewBuffer1D(vertical, signal.FilterNearest, signal.WrapClampToEdge)
	return c.r.Render(hb, vb, delay).Data(), nil
}

func newRecordBackend(opts *options.ShaderOptions) (frameRenderer, func(), error) {
	switch *opts.Backend {
	case "gl":
		if err := glfwcontext.InitGraphics(); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize graphics: %w", err)
		}
		r, err := renderer.NewRenderer(*opts.Width, *opts.Height, false)
		if err != nil {
			glfwcontext.TerminateGraphics()
			return nil, nil, fmt.Errorf("failed to create renderer: %w", err)
		}
		return r, func() { r.Shutdown(); glfwcontext.TerminateGraphics() }, nil
	case "wgpu":
		ctx, err := gpu.NewContext()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open webgpu context: %w", err)
		}
		host, err := gpu.NewHost(ctx, *opts.Width, *opts.Height)
		if err != nil {
			ctx.Release()
			return nil, nil, err
		}
		return host, func() { host.Release(); ctx.Release() }, nil
	case "cpu":
		return &cpuRenderer{r: software.NewRenderer(*opts.Width, *opts.Height)}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want gl, wgpu or cpu)", *opts.Backend)
	}
}

// record renders frames at the configured rate for the configured
// duration and pipes them to the encoder. The loop paces itself to
// wall time because the signal keeps evolving in real time underneath.
func record(opts *options.ShaderOptions, comp *compute.Computer) error {
	backend, shutdown, err := newRecordBackend(opts)
	if err != nil {
		return err
	}
	defer shutdown()

	enc, err := encoder.NewFFmpegEncoder(opts)
	if err != nil {
		return err
	}
	go enc.Run()

	totalFrames := int64(*opts.Duration * float64(*opts.FPS))
	frameDuration := time.Second / time.Duration(*opts.FPS)
	start := time.Now()

	log.Printf("Recording %d frames to %s...", totalFrames, *opts.OutputFile)
	var frameCounter int64
	for frameCounter < totalFrames {
		shouldHaveRendered := int64(time.Since(start) / frameDuration)
		if frameCounter >= shouldHaveRendered {
			time.Sleep(time.Millisecond)
			continue
		}

		for frameCounter < shouldHaveRendered && frameCounter < totalFrames {
			horizontal, vertical := comp.SignalSnapshot()
			pixels, err := backend.Frame(horizontal, vertical, marker(comp))
			if err != nil {
				enc.Close()
				return fmt.Errorf("rendering frame %d: %w", frameCounter, err)
			}
			enc.SendVideo(&encoder.Frame{Pixels: pixels, PTS: frameCounter})
			frameCounter++
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding failed: %w", err)
	}
	log.Printf("Successfully rendered to %s", *opts.OutputFile)
	return nil
}

// runREPL drives the simulator one sample per line: type a sample, read
// back what the microphone would capture at that instant.
func runREPL(opts *options.ShaderOptions) error {
	sim := compute.NewSimulator(*opts.Delay, float32(*opts.Gain), float32(*opts.SNR))

	in := bufio.NewScanner(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for {
		fmt.Fprint(out, "< ")
		out.Flush()
		if !in.Scan() {
			return in.Err()
		}
		text := strings.TrimSpace(in.Text())
		if text == "" {
			continue
		}
		sample, err := strconv.ParseFloat(text, 32)
		if err != nil {
			fmt.Fprintf(out, "not a number: %q\n\n", text)
			continue
		}
		fmt.Fprintf(out, "> %.0f\n\n", sim.Tick(float32(sample)))
	}
}
