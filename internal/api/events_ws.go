package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/quangtn/voicelink/internal/call"
	"github.com/quangtn/voicelink/pkg/logger"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type stateEvent struct {
	Type  string        `json:"type"`
	State call.Snapshot `json:"state"`
}

// EventsWS streams call state snapshots to a connected UI. The current state
// is sent immediately, then every transition and the per-second tick while a
// call is connected.
func EventsWS(controller *call.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Log.Errorf("upgrade websocket failed: %v", err)
			return
		}
		defer conn.Close()

		snapshots, cancel := controller.Subscribe()
		defer cancel()

		if err := conn.WriteJSON(stateEvent{Type: "state", State: controller.Snapshot()}); err != nil {
			return
		}

		// Reader goroutine only detects the client going away.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				if err := conn.WriteJSON(stateEvent{Type: "state", State: snap}); err != nil {
					logger.Log.Warnf("write state event failed: %v", err)
					return
				}
			}
		}
	}
}
