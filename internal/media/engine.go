//go:build !nomedia

package media

import (
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/quangtn/voicelink/internal/call"
	"github.com/quangtn/voicelink/pkg/logger"
)

// Engine builds one webrtc.API shared by all sessions and hands out media
// sessions bound to the local audio device. Implements call.Media.
type Engine struct {
	cfg       Config
	api       *webrtc.API
	webrtcCfg webrtc.Configuration
}

func NewEngine(cfg Config) (*Engine, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMU, ClockRate: 8000, Channels: 1},
		PayloadType:        0,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, err
	}
	if err := mediaEngine.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMA, ClockRate: 8000, Channels: 1},
		PayloadType:        8,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, err
	}

	setting := webrtc.SettingEngine{}
	if cfg.UDPPortMin > 0 || cfg.UDPPortMax > 0 {
		if err := setting.SetEphemeralUDPPortRange(cfg.UDPPortMin, cfg.UDPPortMax); err != nil {
			return nil, err
		}
	}

	api := webrtc.NewAPI(webrtc.WithMediaEngine(mediaEngine), webrtc.WithSettingEngine(setting))

	iceServers := make([]webrtc.ICEServer, 0, 1)
	if len(cfg.STUNServers) > 0 {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: cfg.STUNServers})
	}

	return &Engine{
		cfg:       cfg,
		api:       api,
		webrtcCfg: webrtc.Configuration{ICEServers: iceServers},
	}, nil
}

// NewSession acquires the local audio device and builds a peer connection
// around it. Device acquisition failure aborts the session so the controller
// can treat it as a call-setup failure.
func (e *Engine) NewSession(isVideo bool, events call.MediaEvents) (call.MediaSession, error) {
	if isVideo {
		// Headless node: video is negotiated but no local camera track is
		// captured.
		logger.Log.Warn("video call without local camera capture")
	}

	device, err := openAudioDevice(e.cfg.Audio)
	if err != nil {
		return nil, fmt.Errorf("audio device: %w", err)
	}

	sess, err := newSession(e.api, e.webrtcCfg, device, events)
	if err != nil {
		_ = device.Close()
		return nil, err
	}
	return sess, nil
}
