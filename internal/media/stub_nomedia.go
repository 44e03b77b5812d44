//go:build nomedia

package media

import (
	"errors"

	"github.com/quangtn/voicelink/internal/call"
)

var errMediaDisabled = errors.New("media disabled in this build")

// Engine is the no-op variant for builds without portaudio. Call setup fails
// cleanly so signaling and the HTTP API remain usable.
type Engine struct{}

func NewEngine(cfg Config) (*Engine, error) {
	_ = cfg
	return &Engine{}, nil
}

func (e *Engine) NewSession(isVideo bool, events call.MediaEvents) (call.MediaSession, error) {
	_ = isVideo
	_ = events
	return nil, errMediaDisabled
}
