// Package callkit bridges call state into the platform's native call UI.
// Every method is best effort: a failing adapter must never take the call
// down with it, so callers log and continue on error.
package callkit

import "github.com/quangtn/voicelink/pkg/logger"

// Noop satisfies the native UI surface on platforms without one.
type Noop struct{}

func (Noop) DisplayIncomingCall(handle, peerID, label string) error {
	_, _, _ = handle, peerID, label
	return nil
}

func (Noop) StartCall(handle, peerID, label string) error {
	_, _, _ = handle, peerID, label
	return nil
}

func (Noop) AnswerCall(handle string) error {
	_ = handle
	return nil
}

func (Noop) SetConnected(handle string) error {
	_ = handle
	return nil
}

func (Noop) SetMuted(handle string, muted bool) error {
	_, _ = handle, muted
	return nil
}

func (Noop) EndAllCalls() error { return nil }

// Logging reports each native UI transition through the application log.
// Useful on headless nodes where there is no system call screen.
type Logging struct{}

func (Logging) DisplayIncomingCall(handle, peerID, label string) error {
	logger.Log.Infow("incoming call surfaced", "peer", peerID, "label", label, "handle", handle)
	return nil
}

func (Logging) StartCall(handle, peerID, label string) error {
	logger.Log.Infow("outgoing call surfaced", "peer", peerID, "label", label, "handle", handle)
	return nil
}

func (Logging) AnswerCall(handle string) error {
	logger.Log.Infow("call answered", "handle", handle)
	return nil
}

func (Logging) SetConnected(handle string) error {
	logger.Log.Infow("call connected", "handle", handle)
	return nil
}

func (Logging) SetMuted(handle string, muted bool) error {
	logger.Log.Infow("call mute changed", "handle", handle, "muted", muted)
	return nil
}

func (Logging) EndAllCalls() error {
	logger.Log.Infow("all calls ended")
	return nil
}
