package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// DeviceInfo describes one portaudio device for the device listing.
type DeviceInfo struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// String formats the entry the way the device listing prints it.
func (d DeviceInfo) String() string {
	return fmt.Sprintf("[%d] %s (%s) in:%d out:%d @ %.0f Hz",
		d.Index, d.Name, d.HostAPI,
		d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
}

// ListDevices enumerates the audio devices portaudio can see.
func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	infos := make([]DeviceInfo, 0, len(devices))
	for i, dev := range devices {
		info := DeviceInfo{
			Index:             i,
			Name:              dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			MaxOutputChannels: dev.MaxOutputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
		}
		if dev.HostApi != nil {
			info.HostAPI = dev.HostApi.Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}
