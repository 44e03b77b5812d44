//go:build !nomedia

package media

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/quangtn/voicelink/internal/call"
	"github.com/quangtn/voicelink/pkg/logger"
)

// Session is one peer connection with the local audio device attached.
// Implements call.MediaSession.
type Session struct {
	pc     *webrtc.PeerConnection
	track  *webrtc.TrackLocalStaticRTP
	device *audioDevice

	muted     atomic.Bool
	closeOnce sync.Once
	closeErr  error
	stopCh    chan struct{}
}

func newSession(api *webrtc.API, cfg webrtc.Configuration, device *audioDevice, events call.MediaEvents) (*Session, error) {
	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}

	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMU, ClockRate: 8000, Channels: 1},
		"audio",
		"voicelink",
	)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}

	sender, err := pc.AddTrack(track)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}

	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionSendrecv,
	}); err != nil {
		_ = pc.Close()
		return nil, err
	}

	s := &Session{
		pc:     pc,
		track:  track,
		device: device,
		stopCh: make(chan struct{}),
	}

	// Drain RTCP so interceptors keep running.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, readErr := sender.Read(buf); readErr != nil {
				return
			}
		}
	}()

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil || events.OnICECandidate == nil {
			return
		}
		events.OnICECandidate(candidate.ToJSON())
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.Log.Debugf("peer connection state: %s", state)
		if events.OnConnectionStateChange != nil {
			events.OnConnectionStateChange(state)
		}
	})

	pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if remote.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		logger.Log.Debugf("remote audio track codec=%s", remote.Codec().RTPCodecCapability.MimeType)
		for {
			pkt, _, readErr := remote.ReadRTP()
			if readErr != nil {
				return
			}
			samples, decodeErr := decodeRemotePayload(remote.Codec().RTPCodecCapability.MimeType, pkt.Payload)
			if decodeErr != nil {
				logger.Log.Debugf("decode remote payload: %v", decodeErr)
				continue
			}
			s.device.PushPlayback(samples)
		}
	})

	go s.uplinkLoop()

	return s, nil
}

// uplinkLoop pushes captured microphone frames onto the local track while the
// connection is up. Muted frames are dropped at this point so nothing leaves
// the device.
func (s *Session) uplinkLoop() {
	var timestamp uint32
	var seq uint16 = 1

	for {
		select {
		case <-s.stopCh:
			return
		case frame, ok := <-s.device.CaptureFrames():
			if !ok {
				return
			}
			if frame == nil || s.muted.Load() {
				continue
			}
			if s.pc.ConnectionState() != webrtc.PeerConnectionStateConnected {
				continue
			}
			if err := s.writeFrame(frame, &timestamp, &seq); err != nil {
				logger.Log.Debugf("write uplink frame: %v", err)
			}
		}
	}
}

func (s *Session) writeFrame(samples []int16, timestamp *uint32, seq *uint16) error {
	if len(samples) == 0 {
		return nil
	}
	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    0,
			SequenceNumber: *seq,
			Timestamp:      *timestamp,
			SSRC:           1,
		},
		Payload: encodeULaw(samples),
	}
	if err := s.track.WriteRTP(packet); err != nil {
		return err
	}
	*seq++
	*timestamp += uint32(len(samples))
	return nil
}

func (s *Session) CreateOffer() (webrtc.SessionDescription, error) {
	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	// Candidates trickle via OnICECandidate as they are gathered.
	return offer, nil
}

func (s *Session) CreateAnswer(remote webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if err := s.pc.SetRemoteDescription(remote); err != nil {
		return webrtc.SessionDescription{}, err
	}
	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return answer, nil
}

func (s *Session) ApplyRemoteAnswer(answer webrtc.SessionDescription) error {
	return s.pc.SetRemoteDescription(answer)
}

func (s *Session) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return s.pc.AddICECandidate(candidate)
}

func (s *Session) SetMuted(muted bool) {
	s.muted.Store(muted)
}

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		var errs []error
		if err := s.pc.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := s.device.Close(); err != nil {
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func decodeRemotePayload(mimeType string, payload []byte) ([]int16, error) {
	switch mimeType {
	case webrtc.MimeTypePCMU:
		return decodeULaw(payload), nil
	case webrtc.MimeTypePCMA:
		return decodeALaw(payload), nil
	default:
		return nil, fmt.Errorf("unsupported incoming codec: %s", mimeType)
	}
}
