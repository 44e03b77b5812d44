package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"not null" json:"-"`
	DisplayName  string         `json:"display_name"`
	Role         string         `gorm:"default:'user'" json:"role"` // admin, user
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

type Contact struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PeerID    string         `gorm:"uniqueIndex;not null" json:"peer_id"` // signaling identity of the contact
	Name      string         `json:"name"`
	Favorite  bool           `gorm:"default:false" json:"favorite"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type CallRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"index;not null" json:"session_id"`
	PeerID      string    `gorm:"index;not null" json:"peer_id"`
	Direction   string    `gorm:"index" json:"direction"` // outgoing, incoming
	Outcome     string    `gorm:"index" json:"outcome"`   // completed, rejected, missed, cancelled, failed
	IsVideo     bool      `json:"is_video"`
	StartedAt   time.Time `gorm:"index" json:"started_at"`
	ConnectedAt time.Time `json:"connected_at,omitempty"`
	EndedAt     time.Time `json:"ended_at"`
	TalkSeconds int       `json:"talk_seconds"`
	CreatedAt   time.Time `json:"created_at"`
}

type Webhook struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Event     string    `gorm:"index;not null" json:"event"` // missed, ended, all
	URL       string    `gorm:"not null" json:"url"`
	Platform  string    `json:"platform"`   // telegram, slack, generic
	ChannelID string    `json:"channel_id"` // For Telegram
	Template  string    `json:"template"`   // "Missed call from {{.PeerID}}"
	Enabled   bool      `gorm:"default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}
