package audio

import (
	"path/filepath"
	"strings"
)

// OpenFile picks the right replay device for a file. WAV files decode
// natively; everything else goes through ffmpeg. An empty path yields a
// silent NullDevice so callers need no special case for "no input".
func OpenFile(path string, sampleRate int, realtime bool) (Device, error) {
	if path == "" {
		if sampleRate <= 0 {
			sampleRate = DefaultSampleRate
		}
		return NewNullDevice(sampleRate), nil
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return NewWAVFile(path, realtime)
	}
	return NewFFmpegFile(path, sampleRate, realtime)
}
