package signaling

import (
	"encoding/json"
	"errors"

	"github.com/pion/webrtc/v4"
)

// Wire message kinds relayed by the signaling server.
const (
	TypeRegister     = "register"
	TypeInvite       = "call-invite"
	TypeAnswer       = "call-answer"
	TypeIceCandidate = "ice-candidate"
	TypeEnd          = "call-end"
	TypeReject       = "call-reject"
	TypeError        = "error"
)

// Message is the JSON envelope for all signaling traffic. Addressing fields
// depend on the kind: invite/answer/reject carry caller/callee, candidate and
// end carry sender/target.
type Message struct {
	Type      string                     `json:"type"`
	CallerID  string                     `json:"caller_id,omitempty"`
	CalleeID  string                     `json:"callee_id,omitempty"`
	SenderID  string                     `json:"sender_id,omitempty"`
	TargetID  string                     `json:"target_id,omitempty"`
	UserID    string                     `json:"user_id,omitempty"`
	Offer     *webrtc.SessionDescription `json:"offer,omitempty"`
	Answer    *webrtc.SessionDescription `json:"answer,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	IsVideo   bool                       `json:"is_video,omitempty"`
	Text      string                     `json:"text,omitempty"`
}

func ParseMessage(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, errors.New("missing signal type")
	}
	return &msg, nil
}
