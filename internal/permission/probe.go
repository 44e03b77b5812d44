//go:build !nomedia

package permission

import "github.com/gordonklaus/portaudio"

// PortAudioProber checks for a default capture device by briefly
// initializing the audio host API.
type PortAudioProber struct{}

func (PortAudioProber) HasInputDevice() (bool, error) {
	if err := portaudio.Initialize(); err != nil {
		return false, err
	}
	defer func() { _ = portaudio.Terminate() }()

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return false, nil
	}
	return device != nil, nil
}
