package alerting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"repopulse/internal/config"
	"repopulse/internal/models"
	"repopulse/internal/repository"
)

// Decision reasons, in precedence order.
const (
	ReasonInsufficientUniqueSources = "insufficient_unique_sources"
	ReasonBelowThreshold            = "below_threshold"
	ReasonFirstAlert                = "first_alert"
	ReasonScoreDeltaTooSmall        = "score_delta_too_small"
	ReasonCooldownElapsed           = "cooldown_elapsed"
	ReasonCriticalOverride          = "critical_override"
	ReasonCooldownActive            = "cooldown_active"
)

type Decision struct {
	Send      bool
	Critical  bool
	Reason    string
	LastAlert *models.Alert
}

// Engine decides whether a scored repository warrants an alert, using the
// last successfully delivered alert as the cooldown reference. It never
// writes: recording an alert is the caller's job, and only after the
// notifier confirms delivery.
type Engine struct {
	Store  repository.Store
	Logger *zap.Logger
	Config config.AlertConfig
}

func (e *Engine) Evaluate(ctx context.Context, repoID string, score float64, uniqueSourceCount int, now time.Time) (Decision, error) {
	if uniqueSourceCount < e.Config.MinUniqueSourceCount {
		return Decision{Reason: ReasonInsufficientUniqueSources}, nil
	}
	if score < e.Config.Threshold {
		return Decision{Reason: ReasonBelowThreshold}, nil
	}

	last, err := e.Store.LatestAlert(ctx, repoID, e.Config.Channel)
	if err != nil {
		return Decision{}, err
	}
	return decide(score, last, e.Config, now), nil
}

// decide applies the cooldown rules once the threshold gates have passed.
func decide(score float64, last *models.Alert, cfg config.AlertConfig, now time.Time) Decision {
	if last == nil {
		return Decision{Send: true, Reason: ReasonFirstAlert}
	}

	elapsed := now.Sub(last.SentAt)
	if elapsed >= cfg.Cooldown {
		if score-last.Score < cfg.MinScoreDelta {
			return Decision{Reason: ReasonScoreDeltaTooSmall, LastAlert: last}
		}
		return Decision{Send: true, Reason: ReasonCooldownElapsed, LastAlert: last}
	}

	// Inside the cooldown a sudden large spike still goes out, marked
	// critical.
	if score >= last.Score*cfg.CriticalMultiplier {
		return Decision{Send: true, Critical: true, Reason: ReasonCriticalOverride, LastAlert: last}
	}
	return Decision{Reason: ReasonCooldownActive, LastAlert: last}
}
