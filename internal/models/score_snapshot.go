package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScoreSnapshot is the scored aggregate for one repository over one window.
// Exactly one row exists per (repo_id, window_end); re-running a window
// overwrites the previous row. Components keeps the formula breakdown for
// observability.
type ScoreSnapshot struct {
	RepoID            string         `gorm:"primaryKey;type:varchar(200)" json:"repoId"`
	WindowEnd         time.Time      `gorm:"primaryKey" json:"windowEnd"`
	WindowStart       time.Time      `gorm:"not null" json:"windowStart"`
	MentionCount      int            `gorm:"not null" json:"mentionCount"`
	UniqueSourceCount int            `gorm:"not null" json:"uniqueSourceCount"`
	StarDelta         int64          `gorm:"not null" json:"starDelta"`
	Score             float64        `gorm:"not null" json:"score"`
	Components        datatypes.JSON `json:"components,omitempty"`
}

func (ScoreSnapshot) TableName() string {
	return "repo_score_snapshots"
}
