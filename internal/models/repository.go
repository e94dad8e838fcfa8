package models

import "time"

// Repository is the latest known metadata snapshot for a repository,
// overwritten on every enrichment pass.
type Repository struct {
	RepoID     string     `gorm:"primaryKey;type:varchar(200)" json:"repoId"`
	RepoURL    string     `gorm:"type:text;not null" json:"repoUrl"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	Stars      int64      `gorm:"not null;default:0" json:"stars"`
	LastSeenAt time.Time  `gorm:"not null" json:"lastSeenAt"`
}

func (Repository) TableName() string {
	return "repositories"
}
