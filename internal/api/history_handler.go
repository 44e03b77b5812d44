package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quangtn/voicelink/internal/repository"
)

type HistoryHandler struct {
	repo *repository.CallRecordRepository
}

func NewHistoryHandler(repo *repository.CallRecordRepository) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

func (h *HistoryHandler) ListHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	if peerID := c.Query("peer_id"); peerID != "" {
		records, err := h.repo.FindByPeerID(peerID, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)
		return
	}

	records, err := h.repo.ListRecent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *HistoryHandler) GetStats(c *gin.Context) {
	stats, err := h.repo.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
