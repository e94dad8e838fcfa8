package models

import "time"

// SourceHealth is the circuit-breaker state for one collector source.
// IsDisabled opens the breaker after repeated rate-limit failures; only a
// success or an explicit re-enable sweep closes it again.
type SourceHealth struct {
	Source                       string     `gorm:"primaryKey;type:varchar(50)" json:"source"`
	SuccessCount                 int64      `gorm:"not null;default:0" json:"successCount"`
	FailureCount                 int64      `gorm:"not null;default:0" json:"failureCount"`
	ConsecutiveRateLimitFailures int        `gorm:"not null;default:0" json:"consecutiveRateLimitFailures"`
	LastStatus                   *int       `json:"lastStatus,omitempty"`
	LastError                    *string    `gorm:"type:text" json:"lastError,omitempty"`
	LastSuccessAt                *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt                *time.Time `json:"lastFailureAt,omitempty"`
	IsDisabled                   bool       `gorm:"not null;default:false" json:"isDisabled"`
	UpdatedAt                    time.Time  `json:"updatedAt"`
}

func (SourceHealth) TableName() string {
	return "source_health"
}
