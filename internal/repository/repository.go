package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"repopulse/internal/models"
)

// StarDelta is the outcome of overwriting a repository snapshot. Delta is
// floored at zero and is always zero for a repository's first snapshot.
type StarDelta struct {
	PreviousStars int64
	Delta         int64
}

// Store is the durable, transactional surface every core component operates
// through. Mutations run as single atomic transactions; concurrent readers
// observe pre- or post-transaction state, never a torn one.
type Store interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Events. InsertEvents is idempotent per natural key and reports only
	// newly inserted rows; duplicates are silently skipped.
	InsertEvents(ctx context.Context, batch []models.SourceEvent) (int, error)
	EventsInWindow(ctx context.Context, repoID string, start, end time.Time) ([]models.SourceEvent, error)

	// Repositories. UpsertRepository reads any prior row before overwriting
	// so the caller gets the star delta computed atomically.
	UpsertRepository(ctx context.Context, snapshot *models.Repository) (StarDelta, error)
	GetRepository(ctx context.Context, repoID string) (*models.Repository, error)

	// Score snapshots, keyed by (repo_id, window_end).
	UpsertScoreSnapshot(ctx context.Context, snapshot *models.ScoreSnapshot) error
	TopRepositories(ctx context.Context, windowStart time.Time, limit int) ([]models.ScoreSnapshot, error)

	// Alerts, append-only.
	LatestAlert(ctx context.Context, repoID, sentTo string) (*models.Alert, error)
	InsertAlert(ctx context.Context, alert *models.Alert) error
	RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error)

	// Source health. GetSourceHealth synthesizes a zeroed record for unknown
	// sources instead of failing.
	GetSourceHealth(ctx context.Context, source string) (models.SourceHealth, error)
	UpsertSourceHealth(ctx context.Context, state *models.SourceHealth) error
	ListSourceHealth(ctx context.Context) ([]models.SourceHealth, error)
	ReenableDisabledSources(ctx context.Context, now time.Time) ([]string, error)
}
