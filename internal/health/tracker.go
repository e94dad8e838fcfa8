package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"repopulse/internal/models"
	"repopulse/internal/repository"
)

// Rate-limit responses are the only failure class that opens the breaker.
// Transient failures (5xx, network) are already retried at the request level
// and must not suppress a whole source.
func isRateLimited(status *int) bool {
	if status == nil {
		return false
	}
	return *status == 403 || *status == 429
}

// Tracker is the per-source circuit breaker. State lives in the store's
// source_health rows; the tracker owns the transition rules.
type Tracker struct {
	Store     repository.Store
	Logger    *zap.Logger
	Threshold int
}

// RecordSuccess closes the breaker unconditionally and resets the
// rate-limit streak.
func (t *Tracker) RecordSuccess(ctx context.Context, source string, now time.Time) (models.SourceHealth, error) {
	current, err := t.Store.GetSourceHealth(ctx, source)
	if err != nil {
		return current, err
	}

	next := models.SourceHealth{
		Source:                       source,
		SuccessCount:                 current.SuccessCount + 1,
		FailureCount:                 current.FailureCount,
		ConsecutiveRateLimitFailures: 0,
		LastStatus:                   nil,
		LastError:                    nil,
		LastSuccessAt:                &now,
		LastFailureAt:                current.LastFailureAt,
		IsDisabled:                   false,
		UpdatedAt:                    now,
	}
	if err := t.Store.UpsertSourceHealth(ctx, &next); err != nil {
		return next, err
	}
	return next, nil
}

// RecordFailure counts the failure and advances the rate-limit streak when
// status is 403/429; any other status resets the streak. Once the streak
// reaches the threshold the source is disabled, and the flag is sticky until
// a success or a re-enable sweep.
func (t *Tracker) RecordFailure(ctx context.Context, source string, status *int, message string, now time.Time) (models.SourceHealth, error) {
	current, err := t.Store.GetSourceHealth(ctx, source)
	if err != nil {
		return current, err
	}

	streak := 0
	if isRateLimited(status) {
		streak = current.ConsecutiveRateLimitFailures + 1
	}
	disabled := current.IsDisabled
	if streak >= t.Threshold {
		disabled = true
	}

	var lastError *string
	if message != "" {
		lastError = &message
	}

	next := models.SourceHealth{
		Source:                       source,
		SuccessCount:                 current.SuccessCount,
		FailureCount:                 current.FailureCount + 1,
		ConsecutiveRateLimitFailures: streak,
		LastStatus:                   status,
		LastError:                    lastError,
		LastSuccessAt:                current.LastSuccessAt,
		LastFailureAt:                &now,
		IsDisabled:                   disabled,
		UpdatedAt:                    now,
	}
	if err := t.Store.UpsertSourceHealth(ctx, &next); err != nil {
		return next, err
	}
	if disabled && !current.IsDisabled && t.Logger != nil {
		t.Logger.Warn("source disabled after consecutive rate limits",
			zap.String("source", source),
			zap.Int("streak", streak),
			zap.Int("threshold", t.Threshold))
	}
	return next, nil
}

func (t *Tracker) IsDisabled(ctx context.Context, source string) (bool, error) {
	state, err := t.Store.GetSourceHealth(ctx, source)
	if err != nil {
		return false, err
	}
	return state.IsDisabled, nil
}

// ReenableAllDisabled gives every open breaker another chance, typically once
// per scheduled run.
func (t *Tracker) ReenableAllDisabled(ctx context.Context, now time.Time) ([]string, error) {
	toggled, err := t.Store.ReenableDisabledSources(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(toggled) > 0 && t.Logger != nil {
		t.Logger.Info("re-enabled disabled sources",
			zap.Int("count", len(toggled)),
			zap.Strings("sources", toggled))
	}
	return toggled, nil
}
