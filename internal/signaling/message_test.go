package signaling

import (
	"os"
	"testing"

	"github.com/quangtn/voicelink/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestParseMessage(t *testing.T) {
	raw := []byte(`{"type":"call-invite","caller_id":"alice","callee_id":"bob","is_video":true,` +
		`"offer":{"type":"offer","sdp":"v=0"}}`)
	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.Type != TypeInvite || msg.CallerID != "alice" || msg.CalleeID != "bob" || !msg.IsVideo {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Offer == nil || msg.Offer.SDP != "v=0" {
		t.Fatalf("offer not decoded: %+v", msg.Offer)
	}
}

func TestParseMessageRejectsMissingType(t *testing.T) {
	if _, err := ParseMessage([]byte(`{"caller_id":"alice"}`)); err == nil {
		t.Fatal("expected error for missing type")
	}
}

func TestParseMessageRejectsBadJSON(t *testing.T) {
	if _, err := ParseMessage([]byte(`{"type":`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
