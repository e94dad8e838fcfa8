package models

import "time"

// SourceEvent is one stored mention of a repository on an external source.
// ID is the natural key "source:sourceId:repoId"; rows are immutable and
// duplicate inserts are ignored so replayed ingestion stays idempotent.
type SourceEvent struct {
	ID       string    `gorm:"primaryKey;type:text" json:"id"`
	Source   string    `gorm:"type:varchar(50);not null;index" json:"source"`
	RepoID   string    `gorm:"type:varchar(200);not null;index:idx_source_events_repo_ts" json:"repoId"`
	AuthorID *string   `gorm:"type:varchar(200)" json:"authorId,omitempty"`
	EventTS  time.Time `gorm:"not null;index:idx_source_events_repo_ts" json:"eventTs"`
	RawURL   string    `gorm:"type:text" json:"rawUrl"`
	Tier     string    `gorm:"type:varchar(1);not null;default:A" json:"tier"`
}

func (SourceEvent) TableName() string {
	return "source_events"
}

// NaturalKey composes the deduplication key for a mention.
func NaturalKey(source, sourceID, repoID string) string {
	return source + ":" + sourceID + ":" + repoID
}
