package call

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/quangtn/voicelink/pkg/logger"
)

// session is the single mutable call aggregate. Owned exclusively by the
// Controller; every field is reset to zero on teardown.
type session struct {
	id           string
	state        State
	direction    string
	peerID       string
	isVideo      bool
	muted        bool
	speakerOn    bool
	pendingOffer *webrtc.SessionDescription
	startedAt    time.Time
	connectedAt  time.Time
	nativeHandle string
	accepting    bool
}

// Controller drives the call session state machine. User intents, signaling
// events and media callbacks are all serialized through one mutex around the
// transition function; blocking setup work (permission, media acquisition,
// SDP generation) runs outside the lock and re-validates the session
// generation on completion, so a hangup or remote end racing an in-flight
// setup always wins.
type Controller struct {
	sig   Signaling
	media Media
	ui    NativeUI
	perm  PermissionGate

	ringTimeout time.Duration

	mu                sync.Mutex
	sess              session
	mediaSess         MediaSession
	pendingCandidates []webrtc.ICECandidateInit
	remoteDescApplied bool
	gen               uint64
	ringTimer         *time.Timer
	tickStop          chan struct{}

	subMu    sync.Mutex
	watchers map[int]chan Snapshot
	nextSub  int
	onEnded  []func(EndedEvent)
}

func NewController(sig Signaling, media Media, ui NativeUI, perm PermissionGate, ringTimeout time.Duration) *Controller {
	if ringTimeout <= 0 {
		ringTimeout = 45 * time.Second
	}
	return &Controller{
		sig:         sig,
		media:       media,
		ui:          ui,
		perm:        perm,
		ringTimeout: ringTimeout,
		sess:        session{state: StateIdle},
		watchers:    make(map[int]chan Snapshot),
	}
}

// SetSignaling installs the outbound signaling channel. The channel needs
// the controller as its event handler, so it is built second and attached
// here before any call starts.
func (c *Controller) SetSignaling(sig Signaling) {
	c.mu.Lock()
	c.sig = sig
	c.mu.Unlock()
}

// StartCall dials peerID. Permission and media acquisition happen on the
// caller's goroutine; the session occupies the machine (state Outgoing) for
// their whole duration so no second negotiation can start.
func (c *Controller) StartCall(peerID string, isVideo bool) error {
	if peerID == "" {
		return errors.New("peer id is required")
	}

	c.mu.Lock()
	if c.sess.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.gen++
	gen := c.gen
	c.sess = session{
		id:           uuid.NewString(),
		state:        StateOutgoing,
		direction:    DirectionOutgoing,
		peerID:       peerID,
		isVideo:      isVideo,
		startedAt:    time.Now(),
		nativeHandle: uuid.NewString(),
	}
	c.publishLocked()
	c.mu.Unlock()

	if err := c.perm.Ensure(Needs{Microphone: true, Camera: isVideo}); err != nil {
		c.abortSetup(gen, OutcomeFailed)
		return fmt.Errorf("permission: %w", err)
	}

	ms, err := c.media.NewSession(isVideo, c.mediaEvents(gen, peerID))
	if err != nil {
		c.abortSetup(gen, OutcomeFailed)
		return fmt.Errorf("acquire media: %w", err)
	}

	c.mu.Lock()
	if gen != c.gen || c.sess.state != StateOutgoing {
		c.mu.Unlock()
		_ = ms.Close()
		return ErrSessionGone
	}
	c.mediaSess = ms
	c.mu.Unlock()

	offer, err := ms.CreateOffer()
	if err != nil {
		c.abortSetup(gen, OutcomeFailed)
		return fmt.Errorf("create offer: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.sess.state != StateOutgoing {
		return ErrSessionGone
	}
	if err := c.sig.SendInvite(peerID, offer, isVideo); err != nil {
		c.teardownLocked(OutcomeFailed)
		return fmt.Errorf("send invite: %w", err)
	}
	if err := c.ui.StartCall(c.sess.nativeHandle, peerID, peerID); err != nil {
		logger.Log.Warnf("native call UI start failed: %v", err)
	}
	c.ringTimer = time.AfterFunc(c.ringTimeout, func() { c.onRingTimeout(gen) })
	return nil
}

// AcceptIncoming answers the pending incoming call.
func (c *Controller) AcceptIncoming() error {
	c.mu.Lock()
	if c.sess.state != StateIncoming {
		c.mu.Unlock()
		return ErrNoIncomingCall
	}
	if c.sess.accepting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.sess.accepting = true
	gen := c.gen
	peerID := c.sess.peerID
	isVideo := c.sess.isVideo
	offer := *c.sess.pendingOffer
	c.mu.Unlock()

	if err := c.perm.Ensure(Needs{Microphone: true, Camera: isVideo}); err != nil {
		c.rejectAfterSetupFailure(gen, peerID)
		return fmt.Errorf("permission: %w", err)
	}

	ms, err := c.media.NewSession(isVideo, c.mediaEvents(gen, peerID))
	if err != nil {
		c.rejectAfterSetupFailure(gen, peerID)
		return fmt.Errorf("acquire media: %w", err)
	}

	answer, err := ms.CreateAnswer(offer)
	if err != nil {
		_ = ms.Close()
		c.rejectAfterSetupFailure(gen, peerID)
		return fmt.Errorf("create answer: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.sess.state != StateIncoming {
		_ = ms.Close()
		return ErrSessionGone
	}
	c.mediaSess = ms
	c.remoteDescApplied = true
	c.flushCandidatesLocked()
	if err := c.sig.SendAnswer(peerID, answer); err != nil {
		c.teardownLocked(OutcomeFailed)
		return fmt.Errorf("send answer: %w", err)
	}
	c.sess.state = StateConnected
	c.sess.connectedAt = time.Now()
	c.sess.pendingOffer = nil
	c.sess.accepting = false
	if err := c.ui.AnswerCall(c.sess.nativeHandle); err != nil {
		logger.Log.Warnf("native call UI answer failed: %v", err)
	}
	if err := c.ui.SetConnected(c.sess.nativeHandle); err != nil {
		logger.Log.Warnf("native call UI connect failed: %v", err)
	}
	c.startTickerLocked()
	c.publishLocked()
	return nil
}

// RejectIncoming declines the pending incoming call.
func (c *Controller) RejectIncoming() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state != StateIncoming {
		return ErrNoIncomingCall
	}
	if err := c.sig.SendReject(c.sess.peerID); err != nil {
		logger.Log.Warnf("send call-reject to %s failed: %v", c.sess.peerID, err)
	}
	c.teardownLocked(OutcomeRejected)
	return nil
}

// HangUp ends whatever call is in progress. A no-op when idle, so it is safe
// to call from any state and repeatedly.
func (c *Controller) HangUp() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.sess.state {
	case StateIdle:
		return nil
	case StateIncoming:
		if err := c.sig.SendReject(c.sess.peerID); err != nil {
			logger.Log.Warnf("send call-reject to %s failed: %v", c.sess.peerID, err)
		}
		c.teardownLocked(OutcomeRejected)
	case StateOutgoing:
		if err := c.sig.SendEnd(c.sess.peerID); err != nil {
			logger.Log.Warnf("send call-end to %s failed: %v", c.sess.peerID, err)
		}
		c.teardownLocked(OutcomeCancelled)
	default:
		if err := c.sig.SendEnd(c.sess.peerID); err != nil {
			logger.Log.Warnf("send call-end to %s failed: %v", c.sess.peerID, err)
		}
		c.teardownLocked(OutcomeCompleted)
	}
	return nil
}

// ToggleMute flips the local mute flag and pushes it to the media session and
// native UI. Returns the new muted state.
func (c *Controller) ToggleMute() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state == StateIdle {
		return false, ErrNotInCall
	}
	c.sess.muted = !c.sess.muted
	if c.mediaSess != nil {
		c.mediaSess.SetMuted(c.sess.muted)
	}
	if err := c.ui.SetMuted(c.sess.nativeHandle, c.sess.muted); err != nil {
		logger.Log.Warnf("native call UI mute failed: %v", err)
	}
	c.publishLocked()
	return c.sess.muted, nil
}

// ToggleSpeaker flips the speaker flag. In headless mode this is UI state
// only; audio routing belongs to the platform adapter.
func (c *Controller) ToggleSpeaker() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state == StateIdle {
		return false, ErrNotInCall
	}
	c.sess.speakerOn = !c.sess.speakerOn
	c.publishLocked()
	return c.sess.speakerOn, nil
}

// HandleInvite processes an inbound call-invite. Arrivals while another call
// is in progress are answered with call-reject and do not disturb it.
func (c *Controller) HandleInvite(peerID string, offer webrtc.SessionDescription, isVideo bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state != StateIdle {
		logger.Log.Warnf("invite from %s while %s with %s, rejecting as busy", peerID, c.sess.state, c.sess.peerID)
		if err := c.sig.SendReject(peerID); err != nil {
			logger.Log.Warnf("send busy reject to %s failed: %v", peerID, err)
		}
		return
	}
	c.gen++
	offerCopy := offer
	c.sess = session{
		id:           uuid.NewString(),
		state:        StateIncoming,
		direction:    DirectionIncoming,
		peerID:       peerID,
		isVideo:      isVideo,
		pendingOffer: &offerCopy,
		startedAt:    time.Now(),
		nativeHandle: uuid.NewString(),
	}
	if err := c.ui.DisplayIncomingCall(c.sess.nativeHandle, peerID, peerID); err != nil {
		logger.Log.Warnf("native incoming call UI failed: %v", err)
	}
	c.publishLocked()
}

// HandleAnswer processes the remote call-answer. A duplicate answer after the
// session is connected is logged and dropped, never re-applied.
func (c *Controller) HandleAnswer(peerID string, answer webrtc.SessionDescription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state != StateOutgoing || c.sess.peerID != peerID {
		logger.Log.Warnf("ignoring call-answer from %s in state %s", peerID, c.sess.state)
		return
	}
	if c.mediaSess == nil {
		logger.Log.Warnf("call-answer from %s before offer pipeline finished, dropping", peerID)
		return
	}
	if err := c.mediaSess.ApplyRemoteAnswer(answer); err != nil {
		logger.Log.Errorf("apply remote answer from %s: %v", peerID, err)
		if sendErr := c.sig.SendEnd(peerID); sendErr != nil {
			logger.Log.Warnf("send call-end to %s failed: %v", peerID, sendErr)
		}
		c.teardownLocked(OutcomeFailed)
		return
	}
	c.remoteDescApplied = true
	c.flushCandidatesLocked()
	if c.ringTimer != nil {
		c.ringTimer.Stop()
		c.ringTimer = nil
	}
	c.sess.state = StateConnected
	c.sess.connectedAt = time.Now()
	if err := c.ui.SetConnected(c.sess.nativeHandle); err != nil {
		logger.Log.Warnf("native call UI connect failed: %v", err)
	}
	c.startTickerLocked()
	c.publishLocked()
}

// HandleRemoteCandidate buffers candidates that arrive before the remote
// description is applied and flushes them, in arrival order, right after.
func (c *Controller) HandleRemoteCandidate(peerID string, candidate webrtc.ICECandidateInit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state == StateIdle || c.sess.peerID != peerID {
		logger.Log.Debugf("dropping ice-candidate from %s with no matching session", peerID)
		return
	}
	if !c.remoteDescApplied {
		c.pendingCandidates = append(c.pendingCandidates, candidate)
		return
	}
	if err := c.mediaSess.AddICECandidate(candidate); err != nil {
		logger.Log.Warnf("add remote candidate from %s: %v", peerID, err)
	}
}

// HandleEnd processes a remote call-end from any non-idle state.
func (c *Controller) HandleEnd(peerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state == StateIdle || c.sess.peerID != peerID {
		logger.Log.Debugf("ignoring call-end from %s", peerID)
		return
	}
	var outcome string
	switch c.sess.state {
	case StateIncoming:
		outcome = OutcomeMissed
	case StateOutgoing:
		outcome = OutcomeCancelled
	default:
		outcome = OutcomeCompleted
	}
	c.teardownLocked(outcome)
}

// HandleReject processes a remote call-reject; only meaningful while dialing.
func (c *Controller) HandleReject(peerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.state != StateOutgoing || c.sess.peerID != peerID {
		logger.Log.Debugf("ignoring call-reject from %s in state %s", peerID, c.sess.state)
		return
	}
	c.teardownLocked(OutcomeRejected)
}

// Snapshot returns the current observable call state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel of state snapshots and a cancel func. Slow
// consumers miss intermediate snapshots rather than blocking the machine.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan Snapshot, 8)
	c.watchers[id] = ch
	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if w, ok := c.watchers[id]; ok {
			delete(c.watchers, id)
			close(w)
		}
	}
}

// OnCallEnded registers a hook fired once per finished session.
func (c *Controller) OnCallEnded(fn func(EndedEvent)) {
	c.subMu.Lock()
	c.onEnded = append(c.onEnded, fn)
	c.subMu.Unlock()
}

// Close tears down any in-progress call, notifying the peer.
func (c *Controller) Close() {
	_ = c.HangUp()
}

func (c *Controller) onRingTimeout(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.sess.state != StateOutgoing {
		return
	}
	logger.Log.Warnf("no answer from %s within %s", c.sess.peerID, c.ringTimeout)
	if err := c.sig.SendEnd(c.sess.peerID); err != nil {
		logger.Log.Warnf("send call-end to %s failed: %v", c.sess.peerID, err)
	}
	c.teardownLocked(OutcomeNoAnswer)
}

// abortSetup runs teardown for a setup step that failed off-lock, unless the
// session already moved on.
func (c *Controller) abortSetup(gen uint64, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.teardownLocked(outcome)
}

// rejectAfterSetupFailure is the incoming-accept counterpart of abortSetup:
// permission denial or media failure while answering behaves like a local
// rejection, so the caller is told.
func (c *Controller) rejectAfterSetupFailure(gen uint64, peerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.sess.state != StateIncoming {
		return
	}
	if err := c.sig.SendReject(peerID); err != nil {
		logger.Log.Warnf("send call-reject to %s failed: %v", peerID, err)
	}
	c.teardownLocked(OutcomeRejected)
}

func (c *Controller) mediaEvents(gen uint64, peerID string) MediaEvents {
	return MediaEvents{
		OnICECandidate: func(candidate webrtc.ICECandidateInit) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if gen != c.gen || c.sess.state == StateIdle {
				return
			}
			if err := c.sig.SendIceCandidate(peerID, candidate); err != nil {
				logger.Log.Warnf("forward local candidate to %s failed: %v", peerID, err)
			}
		},
		OnConnectionStateChange: func(state webrtc.PeerConnectionState) {
			switch state {
			case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateDisconnected:
			default:
				return
			}
			c.mu.Lock()
			defer c.mu.Unlock()
			if gen != c.gen || c.sess.state == StateIdle {
				return
			}
			logger.Log.Warnf("peer connection %s, ending call with %s", state, peerID)
			c.teardownLocked(OutcomeFailed)
		},
	}
}

// teardownLocked is the single exit path for every terminal edge. Idempotent:
// calling it while idle is a no-op.
func (c *Controller) teardownLocked(outcome string) {
	if c.sess.state == StateIdle {
		return
	}
	if c.ringTimer != nil {
		c.ringTimer.Stop()
		c.ringTimer = nil
	}
	if c.tickStop != nil {
		close(c.tickStop)
		c.tickStop = nil
	}
	if c.mediaSess != nil {
		if err := c.mediaSess.Close(); err != nil {
			logger.Log.Warnf("close media session: %v", err)
		}
		c.mediaSess = nil
	}
	if err := c.ui.EndAllCalls(); err != nil {
		logger.Log.Warnf("native call UI cleanup failed: %v", err)
	}

	evt := EndedEvent{
		SessionID:   c.sess.id,
		PeerID:      c.sess.peerID,
		Direction:   c.sess.direction,
		Outcome:     outcome,
		IsVideo:     c.sess.isVideo,
		StartedAt:   c.sess.startedAt,
		ConnectedAt: c.sess.connectedAt,
		EndedAt:     time.Now(),
	}

	c.sess = session{state: StateIdle}
	c.pendingCandidates = nil
	c.remoteDescApplied = false
	c.gen++
	c.publishLocked()

	c.subMu.Lock()
	hooks := make([]func(EndedEvent), len(c.onEnded))
	copy(hooks, c.onEnded)
	c.subMu.Unlock()
	for _, fn := range hooks {
		go fn(evt)
	}
}

func (c *Controller) flushCandidatesLocked() {
	for _, candidate := range c.pendingCandidates {
		if err := c.mediaSess.AddICECandidate(candidate); err != nil {
			logger.Log.Warnf("flush buffered candidate: %v", err)
		}
	}
	c.pendingCandidates = nil
}

// startTickerLocked pushes a snapshot once a second while connected so
// subscribers can render the elapsed duration without their own clock.
func (c *Controller) startTickerLocked() {
	stop := make(chan struct{})
	c.tickStop = stop
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.sess.state == StateConnected {
					c.publishLocked()
				}
				c.mu.Unlock()
			}
		}
	}()
}

// publishLocked fans the current snapshot out to subscribers without
// blocking; a full watcher channel just skips this update.
func (c *Controller) publishLocked() {
	snap := c.snapshotLocked()
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, w := range c.watchers {
		select {
		case w <- snap:
		default:
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:     c.sess.state,
		PeerID:    c.sess.peerID,
		IsVideo:   c.sess.isVideo,
		Muted:     c.sess.muted,
		SpeakerOn: c.sess.speakerOn,
	}
	if c.sess.state == StateConnected && !c.sess.connectedAt.IsZero() {
		snap.ElapsedSeconds = int(time.Since(c.sess.connectedAt).Seconds())
	}
	return snap
}
