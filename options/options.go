package options

// ShaderOptions carries the command line settings for the anemoscope
// binary. Fields are pointers so the flag package fills them in place.
type ShaderOptions struct {
	Mode    *string // "sim", "live" or "repl"
	Backend *string // "gl", "wgpu" or "cpu"

	Width  *int
	Height *int

	Window   *int // visualized window length in samples
	MaxDelay *int // largest delay the estimator searches, in samples

	Delay *int     // simulated transit delay in samples
	Gain  *float64 // simulated loop gain
	SNR   *float64 // simulated signal to noise ratio

	InputFile   *string // WAV or any ffmpeg-readable file replacing the microphone
	ListDevices *bool

	OutputFile *string  // record the visualization to this file instead of opening a window
	Duration   *float64 // recording length in seconds
	FPS        *int
	Codec      *string // "h264" or "hevc"
	FFmpegPath *string // explicit ffmpeg binary for recording and decoding

	Verbose *bool
}
