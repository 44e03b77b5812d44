package call

import (
	"errors"

	"github.com/pion/webrtc/v4"
)

var (
	ErrBusy           = errors.New("another call is already in progress")
	ErrNoIncomingCall = errors.New("no incoming call to act on")
	ErrNotInCall      = errors.New("no active call")
	ErrSessionGone    = errors.New("call session ended while operation was in flight")
)

// Signaling is the outbound half of the signaling channel. The inbound half
// is wired by handing the Controller to the channel as its event handler.
type Signaling interface {
	SendInvite(peerID string, offer webrtc.SessionDescription, isVideo bool) error
	SendAnswer(peerID string, answer webrtc.SessionDescription) error
	SendIceCandidate(peerID string, candidate webrtc.ICECandidateInit) error
	SendEnd(peerID string) error
	SendReject(peerID string) error
}

// MediaEvents are the per-session callbacks a media session emits back into
// the controller. Registered once at session creation; never reassigned.
type MediaEvents struct {
	OnICECandidate          func(webrtc.ICECandidateInit)
	OnConnectionStateChange func(webrtc.PeerConnectionState)
}

// MediaSession wraps one peer connection with its local media attached.
type MediaSession interface {
	CreateOffer() (webrtc.SessionDescription, error)
	// CreateAnswer applies the remote offer and produces the local answer.
	CreateAnswer(remote webrtc.SessionDescription) (webrtc.SessionDescription, error)
	ApplyRemoteAnswer(answer webrtc.SessionDescription) error
	AddICECandidate(candidate webrtc.ICECandidateInit) error
	SetMuted(muted bool)
	Close() error
}

// Media creates media sessions. NewSession acquires local media and builds
// the peer connection; failure means the call cannot be set up.
type Media interface {
	NewSession(isVideo bool, events MediaEvents) (MediaSession, error)
}

// NativeUI mirrors call state into an OS-level call surface. Every method is
// best-effort: the controller logs failures and never lets them block a
// transition.
type NativeUI interface {
	DisplayIncomingCall(handle, peerID, label string) error
	StartCall(handle, peerID, label string) error
	AnswerCall(handle string) error
	SetConnected(handle string) error
	SetMuted(handle string, muted bool) error
	EndAllCalls() error
}

// Needs lists the capabilities a call requires before media may be acquired.
type Needs struct {
	Microphone bool
	Camera     bool
}

// PermissionGate resolves capability access before media acquisition.
// A nil error means granted.
type PermissionGate interface {
	Ensure(needs Needs) error
}
