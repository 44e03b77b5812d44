package call

import "time"

// State is the lifecycle state of the local call session.
// Keep values stable because they are part of the local API.
type State string

const (
	StateIdle      State = "idle"
	StateOutgoing  State = "outgoing"
	StateIncoming  State = "incoming"
	StateConnected State = "connected"
)

// Direction of a call relative to this endpoint.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// Outcome values recorded when a session returns to idle.
const (
	OutcomeCompleted = "completed" // connected, then ended by either side
	OutcomeRejected  = "rejected"  // declined before connecting
	OutcomeMissed    = "missed"    // incoming call ended by the caller before answer
	OutcomeCancelled = "cancelled" // outgoing call abandoned before answer
	OutcomeNoAnswer  = "no_answer" // outgoing call hit the ring timeout
	OutcomeFailed    = "failed"    // media or negotiation failure
)

// Snapshot is the read-only call state exposed to the UI layer.
type Snapshot struct {
	State          State  `json:"state"`
	PeerID         string `json:"peer_id,omitempty"`
	IsVideo        bool   `json:"is_video"`
	Muted          bool   `json:"muted"`
	SpeakerOn      bool   `json:"speaker_on"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
}

// EndedEvent describes one finished call, fired exactly once per session
// when it returns to idle. Consumed by the history recorder.
type EndedEvent struct {
	SessionID   string
	PeerID      string
	Direction   string
	Outcome     string
	IsVideo     bool
	StartedAt   time.Time
	ConnectedAt time.Time
	EndedAt     time.Time
}

// TalkSeconds is the connected duration, zero if the call never connected.
func (e EndedEvent) TalkSeconds() int {
	if e.ConnectedAt.IsZero() {
		return 0
	}
	return int(e.EndedAt.Sub(e.ConnectedAt).Seconds())
}
