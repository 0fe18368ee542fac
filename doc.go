// Package anemoscope visualizes the agreement between two audio signal
// streams as a self-similarity image, and measures the time delay between
// them by cross-correlation.
//
// The project grew out of an acoustic anemometer experiment: a speaker
// plays a known noise signal, a microphone picks it up after traveling
// through air, and the delay between the outgoing and incoming streams
// encodes the time of flight. The visualization renders every pairwise
// comparison of the two streams as a grayscale difference matrix, with a
// red marker column at the delay the correlator currently reports.
//
// # Packages
//
//   - signal: 1-D sample buffers, ring buffers, and the windowed queue
//     that connects audio producers to consumers
//   - compute: the delay estimator (cross-correlation), the emitted noise
//     generator, and a loopback simulator for testing without hardware
//   - audio: capture and playback devices (PortAudio, WAV files, FFmpeg)
//   - shader: the WGSL and GLSL programs that render the difference matrix
//   - software: a CPU rendition of the same shader pair, used as the
//     reference implementation and for headless snapshots
//   - gpu: an offscreen WebGPU host for the WGSL shader pair
//   - translator: the process-wide shader translator for the OpenGL host
//   - glfwcontext: window and OpenGL context management
//   - renderer: the interactive OpenGL window and the offscreen recorder
//   - encoder: streams rendered frames to ffmpeg for video recording
//   - monitor: terminal statistics for the measured delay
//   - options: the shared flag set of the anemoscope command
//
// # Quick Start
//
//	import "github.com/anemolab/anemoscope/compute"
//
//	comp := compute.NewComputer(compute.DefaultMaxDelaySamples, compute.DefaultWindowWidth)
//	for {
//	    emitted := comp.NextOutput()  // play this through the speaker
//	    comp.RecordInput(captured)    // feed back what the mic heard
//	    if res, ok := comp.Delay(); ok {
//	        fmt.Println(res.DelaySamples)
//	    }
//	    _ = emitted
//	}
//
// By default the library produces no log output. Call [SetLogger] to
// enable logging.
package anemoscope
