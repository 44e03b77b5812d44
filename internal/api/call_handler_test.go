package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/quangtn/voicelink/internal/call"
	"github.com/quangtn/voicelink/internal/callkit"
	"github.com/quangtn/voicelink/internal/permission"
	"github.com/quangtn/voicelink/pkg/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitLogger("error")
	os.Exit(m.Run())
}

type stubSignaling struct{}

func (stubSignaling) SendInvite(string, webrtc.SessionDescription, bool) error { return nil }
func (stubSignaling) SendAnswer(string, webrtc.SessionDescription) error       { return nil }
func (stubSignaling) SendIceCandidate(string, webrtc.ICECandidateInit) error   { return nil }
func (stubSignaling) SendEnd(string) error                                     { return nil }
func (stubSignaling) SendReject(string) error                                  { return nil }

type stubMediaSession struct{}

func (stubMediaSession) CreateOffer() (webrtc.SessionDescription, error) {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}, nil
}

func (stubMediaSession) CreateAnswer(webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"}, nil
}

func (stubMediaSession) ApplyRemoteAnswer(webrtc.SessionDescription) error { return nil }
func (stubMediaSession) AddICECandidate(webrtc.ICECandidateInit) error     { return nil }
func (stubMediaSession) SetMuted(bool)                                     {}
func (stubMediaSession) Close() error                                      { return nil }

type stubMedia struct{}

func (stubMedia) NewSession(bool, call.MediaEvents) (call.MediaSession, error) {
	return stubMediaSession{}, nil
}

func newTestRouter() (*gin.Engine, *call.Controller) {
	controller := call.NewController(stubSignaling{}, stubMedia{}, callkit.Noop{}, permission.AllowAll{}, time.Minute)
	h := NewCallHandler(controller)

	r := gin.New()
	r.GET("/call", h.GetState)
	r.POST("/call", h.StartCall)
	r.POST("/call/accept", h.AcceptCall)
	r.POST("/call/reject", h.RejectCall)
	r.POST("/call/hangup", h.HangUp)
	r.POST("/call/mute", h.ToggleMute)
	return r, controller
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetStateStartsIdle(t *testing.T) {
	r, controller := newTestRouter()
	defer controller.Close()

	w := doRequest(t, r, http.MethodGet, "/call", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var snap call.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != call.StateIdle {
		t.Errorf("state = %s, want idle", snap.State)
	}
}

func TestStartCallValidation(t *testing.T) {
	r, controller := newTestRouter()
	defer controller.Close()

	w := doRequest(t, r, http.MethodPost, "/call", `{"is_video":false}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestStartCallThenBusyConflict(t *testing.T) {
	r, controller := newTestRouter()
	defer controller.Close()

	w := doRequest(t, r, http.MethodPost, "/call", `{"peer_id":"alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d, body %s", w.Code, w.Body.String())
	}

	var snap call.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != call.StateOutgoing {
		t.Errorf("state = %s, want outgoing", snap.State)
	}

	w = doRequest(t, r, http.MethodPost, "/call", `{"peer_id":"bob"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("second start status = %d, want 409", w.Code)
	}
}

func TestAcceptWithoutIncomingConflicts(t *testing.T) {
	r, controller := newTestRouter()
	defer controller.Close()

	w := doRequest(t, r, http.MethodPost, "/call/accept", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestMuteOutsideCallConflicts(t *testing.T) {
	r, controller := newTestRouter()
	defer controller.Close()

	w := doRequest(t, r, http.MethodPost, "/call/mute", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestHangUpIdleIsOK(t *testing.T) {
	r, controller := newTestRouter()
	defer controller.Close()

	w := doRequest(t, r, http.MethodPost, "/call/hangup", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestIncomingCallAcceptFlow(t *testing.T) {
	r, controller := newTestRouter()
	defer controller.Close()

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}
	controller.HandleInvite("alice", offer, false)

	w := doRequest(t, r, http.MethodPost, "/call/accept", "")
	if w.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body %s", w.Code, w.Body.String())
	}

	var snap call.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State != call.StateConnected {
		t.Errorf("state = %s, want connected", snap.State)
	}
	if snap.PeerID != "alice" {
		t.Errorf("peer = %s, want alice", snap.PeerID)
	}
}
