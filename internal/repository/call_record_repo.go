package repository

import (
	"github.com/quangtn/voicelink/internal/model"
	"gorm.io/gorm"
)

type CallRecordRepository struct {
	db *gorm.DB
}

func NewCallRecordRepository(db *gorm.DB) *CallRecordRepository {
	return &CallRecordRepository{db: db}
}

func (r *CallRecordRepository) Create(record *model.CallRecord) error {
	return r.db.Create(record).Error
}

func (r *CallRecordRepository) ListRecent(limit int) ([]model.CallRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var records []model.CallRecord
	err := r.db.Order("started_at desc").Limit(limit).Find(&records).Error
	return records, err
}

func (r *CallRecordRepository) FindByPeerID(peerID string, limit int) ([]model.CallRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var records []model.CallRecord
	err := r.db.Where("peer_id = ?", peerID).Order("started_at desc").Limit(limit).Find(&records).Error
	return records, err
}

type CallStats struct {
	Total       int64 `json:"total"`
	Completed   int64 `json:"completed"`
	Missed      int64 `json:"missed"`
	TalkSeconds int64 `json:"talk_seconds"`
}

func (r *CallRecordRepository) Stats() (*CallStats, error) {
	var stats CallStats
	if err := r.db.Model(&model.CallRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.CallRecord{}).Where("outcome = ?", "completed").Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.CallRecord{}).Where("outcome = ?", "missed").Count(&stats.Missed).Error; err != nil {
		return nil, err
	}
	var talk struct{ Total int64 }
	if err := r.db.Model(&model.CallRecord{}).Select("coalesce(sum(talk_seconds),0) as total").Scan(&talk).Error; err != nil {
		return nil, err
	}
	stats.TalkSeconds = talk.Total
	return &stats, nil
}
