package models

import "time"

// Alert is an append-only record of a successfully delivered alert. The most
// recent row per (repo_id, sent_to) is the cooldown reference for the next
// decision; failed deliveries are never recorded.
type Alert struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RepoID     string    `gorm:"type:varchar(200);not null;index:idx_alerts_repo_channel" json:"repoId"`
	Score      float64   `gorm:"not null" json:"score"`
	SentTo     string    `gorm:"type:varchar(50);not null;index:idx_alerts_repo_channel" json:"sentTo"`
	SentAt     time.Time `gorm:"not null;index" json:"sentAt"`
	IsCritical bool      `gorm:"not null;default:false" json:"isCritical"`
}

func (Alert) TableName() string {
	return "alerts_sent"
}
