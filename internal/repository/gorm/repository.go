package gormrepository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"repopulse/internal/models"
	"repopulse/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Events -----------------------------------------------------------------

func (s *Store) InsertEvents(ctx context.Context, batch []models.SourceEvent) (int, error) {
	if s == nil || s.db == nil || len(batch) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&batch)
	return int(res.RowsAffected), res.Error
}

func (s *Store) EventsInWindow(ctx context.Context, repoID string, start, end time.Time) ([]models.SourceEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SourceEvent
	err := s.db.WithContext(ctx).
		Where("repo_id = ?", repoID).
		Where("event_ts >= ?", start).
		Where("event_ts <= ?", end).
		Order("event_ts asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Repositories -----------------------------------------------------------

// UpsertRepository runs the read-then-overwrite as one transaction so the
// delta stays correct if the store is ever written concurrently.
func (s *Store) UpsertRepository(ctx context.Context, snapshot *models.Repository) (repository.StarDelta, error) {
	if s == nil || s.db == nil || snapshot == nil {
		return repository.StarDelta{}, nil
	}
	var result repository.StarDelta
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior models.Repository
		found := true
		if err := tx.Where("repo_id = ?", snapshot.RepoID).First(&prior).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "repo_id"}},
			UpdateAll: true,
		}).Create(snapshot).Error; err != nil {
			return err
		}

		if !found {
			result = repository.StarDelta{PreviousStars: 0, Delta: 0}
			return nil
		}
		delta := snapshot.Stars - prior.Stars
		if delta < 0 {
			delta = 0
		}
		result = repository.StarDelta{PreviousStars: prior.Stars, Delta: delta}
		return nil
	})
	return result, err
}

func (s *Store) GetRepository(ctx context.Context, repoID string) (*models.Repository, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Repository
	err := s.db.WithContext(ctx).Where("repo_id = ?", repoID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- Score snapshots --------------------------------------------------------

func (s *Store) UpsertScoreSnapshot(ctx context.Context, snapshot *models.ScoreSnapshot) error {
	if s == nil || s.db == nil || snapshot == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "repo_id"}, {Name: "window_end"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"window_start",
			"mention_count",
			"unique_source_count",
			"star_delta",
			"score",
			"components",
		}),
	}).Create(snapshot).Error
}

func (s *Store) TopRepositories(ctx context.Context, windowStart time.Time, limit int) ([]models.ScoreSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = clampLimit(limit, 200)

	latest := s.db.WithContext(ctx).
		Model(&models.ScoreSnapshot{}).
		Select("repo_id, MAX(window_end) AS max_window_end").
		Where("window_end >= ?", windowStart).
		Group("repo_id")

	var items []models.ScoreSnapshot
	err := s.db.WithContext(ctx).
		Model(&models.ScoreSnapshot{}).
		Joins("INNER JOIN (?) latest ON latest.repo_id = repo_score_snapshots.repo_id AND latest.max_window_end = repo_score_snapshots.window_end", latest).
		Order("score desc").
		Order("mention_count desc").
		Order("repo_score_snapshots.repo_id asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Alerts -----------------------------------------------------------------

func (s *Store) LatestAlert(ctx context.Context, repoID, sentTo string) (*models.Alert, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Alert
	err := s.db.WithContext(ctx).
		Where("repo_id = ?", repoID).
		Where("sent_to = ?", sentTo).
		Order("sent_at desc").
		Order("id desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) InsertAlert(ctx context.Context, alert *models.Alert) error {
	if s == nil || s.db == nil || alert == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(alert).Error
}

func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = clampLimit(limit, 500)
	var items []models.Alert
	err := s.db.WithContext(ctx).
		Order("sent_at desc").
		Order("id desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Source health ----------------------------------------------------------

func (s *Store) GetSourceHealth(ctx context.Context, source string) (models.SourceHealth, error) {
	if s == nil || s.db == nil {
		return models.SourceHealth{Source: source}, nil
	}
	var item models.SourceHealth
	err := s.db.WithContext(ctx).Where("source = ?", source).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.SourceHealth{Source: source}, nil
	}
	if err != nil {
		return models.SourceHealth{Source: source}, err
	}
	return item, nil
}

func (s *Store) UpsertSourceHealth(ctx context.Context, state *models.SourceHealth) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"success_count",
			"failure_count",
			"consecutive_rate_limit_failures",
			"last_status",
			"last_error",
			"last_success_at",
			"last_failure_at",
			"is_disabled",
			"updated_at",
		}),
	}).Create(state).Error
}

func (s *Store) ListSourceHealth(ctx context.Context) ([]models.SourceHealth, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SourceHealth
	err := s.db.WithContext(ctx).Order("source asc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ReenableDisabledSources closes every open breaker in one transaction and
// returns the sources actually toggled.
func (s *Store) ReenableDisabledSources(ctx context.Context, now time.Time) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var toggled []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var names []string
		if err := tx.Model(&models.SourceHealth{}).
			Where("is_disabled = ?", true).
			Order("source asc").
			Pluck("source", &names).Error; err != nil {
			return err
		}
		if len(names) == 0 {
			return nil
		}
		if err := tx.Model(&models.SourceHealth{}).
			Where("source IN ?", names).
			Where("is_disabled = ?", true).
			Updates(map[string]any{
				"is_disabled":                     false,
				"consecutive_rate_limit_failures": 0,
				"updated_at":                      now,
			}).Error; err != nil {
			return err
		}
		toggled = names
		return nil
	})
	return toggled, err
}

func clampLimit(limit, max int) int {
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
