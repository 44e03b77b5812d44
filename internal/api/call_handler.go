package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quangtn/voicelink/internal/call"
)

// CallHandler exposes local call control. All endpoints act on the single
// call session this node may hold; state conflicts map to 409.
type CallHandler struct {
	controller *call.Controller
}

func NewCallHandler(controller *call.Controller) *CallHandler {
	return &CallHandler{controller: controller}
}

func (h *CallHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

func (h *CallHandler) StartCall(c *gin.Context) {
	var req struct {
		PeerID  string `json:"peer_id"`
		IsVideo bool   `json:"is_video"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PeerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "peer_id is required"})
		return
	}

	if err := h.controller.StartCall(req.PeerID, req.IsVideo); err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

func (h *CallHandler) AcceptCall(c *gin.Context) {
	if err := h.controller.AcceptIncoming(); err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

func (h *CallHandler) RejectCall(c *gin.Context) {
	if err := h.controller.RejectIncoming(); err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

func (h *CallHandler) HangUp(c *gin.Context) {
	if err := h.controller.HangUp(); err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

func (h *CallHandler) ToggleMute(c *gin.Context) {
	muted, err := h.controller.ToggleMute()
	if err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"muted": muted})
}

func (h *CallHandler) ToggleSpeaker(c *gin.Context) {
	on, err := h.controller.ToggleSpeaker()
	if err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"speaker_on": on})
}

func writeCallError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, call.ErrBusy),
		errors.Is(err, call.ErrNoIncomingCall),
		errors.Is(err, call.ErrNotInCall),
		errors.Is(err, call.ErrSessionGone):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
