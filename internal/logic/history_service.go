package logic

import (
	"github.com/quangtn/voicelink/internal/call"
	"github.com/quangtn/voicelink/internal/model"
	"github.com/quangtn/voicelink/internal/repository"
	"github.com/quangtn/voicelink/pkg/logger"
)

// HistoryService persists finished calls and forwards them to the
// notification hooks. Wired to the controller's ended-call hook.
type HistoryService struct {
	records *repository.CallRecordRepository
	notify  *NotifyService
}

func NewHistoryService(records *repository.CallRecordRepository, notify *NotifyService) *HistoryService {
	return &HistoryService{records: records, notify: notify}
}

func (s *HistoryService) Record(evt call.EndedEvent) {
	record := &model.CallRecord{
		SessionID:   evt.SessionID,
		PeerID:      evt.PeerID,
		Direction:   evt.Direction,
		Outcome:     evt.Outcome,
		IsVideo:     evt.IsVideo,
		StartedAt:   evt.StartedAt,
		ConnectedAt: evt.ConnectedAt,
		EndedAt:     evt.EndedAt,
		TalkSeconds: evt.TalkSeconds(),
	}
	if err := s.records.Create(record); err != nil {
		logger.Log.Errorf("Failed to record call %s: %v", evt.SessionID, err)
	}

	if s.notify != nil {
		s.notify.Dispatch(evt)
	}
}
