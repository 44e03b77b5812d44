// Package permission resolves device capability access before a call may
// acquire local media. On a headless node there is no OS prompt to show, so
// the gate is driven by configuration switches plus a probe of the actual
// audio hardware.
package permission

import (
	"errors"
	"fmt"

	"github.com/quangtn/voicelink/internal/call"
)

var (
	ErrMicrophoneDenied = errors.New("microphone access is disabled")
	ErrCameraDenied     = errors.New("camera access is disabled")
)

// DeviceProber reports whether a capture device is actually present.
type DeviceProber interface {
	HasInputDevice() (bool, error)
}

// Gate checks configured capability switches and, for the microphone,
// that a capture device exists. Implements call.PermissionGate.
type Gate struct {
	microphoneAllowed bool
	cameraAllowed     bool
	prober            DeviceProber
}

func NewGate(microphoneAllowed, cameraAllowed bool, prober DeviceProber) *Gate {
	return &Gate{
		microphoneAllowed: microphoneAllowed,
		cameraAllowed:     cameraAllowed,
		prober:            prober,
	}
}

func (g *Gate) Ensure(needs call.Needs) error {
	if needs.Microphone {
		if !g.microphoneAllowed {
			return ErrMicrophoneDenied
		}
		if g.prober != nil {
			ok, err := g.prober.HasInputDevice()
			if err != nil {
				return fmt.Errorf("probe input device: %w", err)
			}
			if !ok {
				return ErrMicrophoneDenied
			}
		}
	}
	if needs.Camera && !g.cameraAllowed {
		return ErrCameraDenied
	}
	return nil
}

// AllowAll grants every capability. Used in tests and on trusted setups.
type AllowAll struct{}

func (AllowAll) Ensure(needs call.Needs) error {
	_ = needs
	return nil
}
