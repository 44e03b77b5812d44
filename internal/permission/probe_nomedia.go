//go:build nomedia

package permission

// PortAudioProber always reports a device in builds without audio support;
// the media engine itself rejects session creation there.
type PortAudioProber struct{}

func (PortAudioProber) HasInputDevice() (bool, error) {
	return true, nil
}
