package signaling

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
)

type recordingHandler struct {
	mu      sync.Mutex
	invites []string
	answers []string
	ends    []string
	rejects []string
}

func (h *recordingHandler) HandleInvite(peerID string, _ webrtc.SessionDescription, _ bool) {
	h.mu.Lock()
	h.invites = append(h.invites, peerID)
	h.mu.Unlock()
}

func (h *recordingHandler) HandleAnswer(peerID string, _ webrtc.SessionDescription) {
	h.mu.Lock()
	h.answers = append(h.answers, peerID)
	h.mu.Unlock()
}

func (h *recordingHandler) HandleRemoteCandidate(string, webrtc.ICECandidateInit) {}

func (h *recordingHandler) HandleEnd(peerID string) {
	h.mu.Lock()
	h.ends = append(h.ends, peerID)
	h.mu.Unlock()
}

func (h *recordingHandler) HandleReject(peerID string) {
	h.mu.Lock()
	h.rejects = append(h.rejects, peerID)
	h.mu.Unlock()
}

func (h *recordingHandler) inviteCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.invites)
}

var testUpgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// startServer runs a signaling server stub that records every inbound message
// and can push messages to the client.
func startServer(t *testing.T) (*httptest.Server, chan Message, chan Message) {
	t.Helper()
	inbound := make(chan Message, 16)
	outbound := make(chan Message, 16)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		go func() {
			for msg := range outbound {
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}()

		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			inbound <- msg
		}
	}))
	t.Cleanup(srv.Close)
	return srv, inbound, outbound
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientRegistersOnConnect(t *testing.T) {
	srv, inbound, _ := startServer(t)
	handler := &recordingHandler{}
	client := NewClient(wsURL(srv), "alice", "", handler, 1, 10*time.Millisecond)
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	select {
	case msg := <-inbound:
		if msg.Type != TypeRegister || msg.UserID != "alice" {
			t.Fatalf("expected register for alice, got %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no register message received")
	}
	if !client.Connected() {
		t.Fatal("client should report connected")
	}
}

func TestClientSendsAndDispatches(t *testing.T) {
	srv, inbound, outbound := startServer(t)
	handler := &recordingHandler{}
	client := NewClient(wsURL(srv), "alice", "token", handler, 1, 10*time.Millisecond)
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()
	<-inbound // register

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}
	if err := client.SendInvite("bob", offer, false); err != nil {
		t.Fatalf("SendInvite: %v", err)
	}
	select {
	case msg := <-inbound:
		if msg.Type != TypeInvite || msg.CallerID != "alice" || msg.CalleeID != "bob" || msg.Offer == nil {
			t.Fatalf("unexpected invite on the wire: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("invite never reached the server")
	}

	outbound <- Message{Type: TypeInvite, CallerID: "carol", Offer: &offer}
	deadline := time.After(2 * time.Second)
	for handler.inviteCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("inbound invite never dispatched")
		case <-time.After(10 * time.Millisecond):
		}
	}

	handler.mu.Lock()
	got := handler.invites[0]
	handler.mu.Unlock()
	if got != "carol" {
		t.Fatalf("invite peer: got %q, want carol", got)
	}
}

func TestSendWhileDisconnected(t *testing.T) {
	handler := &recordingHandler{}
	client := NewClient("ws://127.0.0.1:1/ws", "alice", "", handler, 1, 10*time.Millisecond)
	if err := client.SendEnd("bob"); err == nil {
		t.Fatal("expected send failure while disconnected")
	}
}
