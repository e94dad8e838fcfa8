package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"repopulse/internal/alerting"
	"repopulse/internal/collector"
	"repopulse/internal/extract"
	"repopulse/internal/health"
	"repopulse/internal/httpx"
	"repopulse/internal/metrics"
	"repopulse/internal/models"
	"repopulse/internal/notifier"
	"repopulse/internal/repository"
	"repopulse/internal/scoring"
	"repopulse/internal/window"
)

// Enricher resolves repository metadata for one repository ID.
type Enricher interface {
	Lookup(ctx context.Context, repoID string, now time.Time) (*models.Repository, error)
}

// Summary counts what a single pass touched.
type Summary struct {
	RawEvents        int
	ExtractedEvents  int
	InsertedEvents   int
	Repos            int
	SnapshotsWritten int
	AlertsSent       int
}

// Pipeline runs one full collect-extract-score-alert pass. A pass degrades
// per stage: a failed source or a failed enrichment never aborts the run.
type Pipeline struct {
	Store           repository.Store
	Collectors      []collector.Collector
	Health          *health.Tracker
	Enricher        Enricher
	Notifier        notifier.Notifier
	Alerts          *alerting.Engine
	Rules           scoring.Rules
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
	Window          time.Duration
	ReenableOnStart bool
	Now             func() time.Time
}

func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	started := p.now()
	p.Logger.Info("pass start", zap.Time("now", started))

	if p.ReenableOnStart {
		if _, err := p.Health.ReenableAllDisabled(ctx, started); err != nil {
			return Summary{}, err
		}
	}

	rawEvents := p.collect(ctx, started)

	extracted := p.extractEvents(rawEvents, started)
	inserted, err := p.Store.InsertEvents(ctx, extracted)
	if err != nil {
		return Summary{}, err
	}
	p.Metrics.RecordEventsIngested(inserted, len(extracted)-inserted)
	p.Logger.Info("extraction done",
		zap.Int("raw_events", len(rawEvents)),
		zap.Int("extracted_events", len(extracted)),
		zap.Int("inserted_events", inserted))

	repoIDs := uniqueRepoIDs(extracted)
	starDeltas := p.enrichAll(ctx, repoIDs, started)

	summary := Summary{
		RawEvents:       len(rawEvents),
		ExtractedEvents: len(extracted),
		InsertedEvents:  inserted,
		Repos:           len(repoIDs),
	}

	windowEnd := p.now()
	windowStart := windowEnd.Add(-p.Window)
	agg := &window.Aggregator{Store: p.Store}

	for _, repoID := range repoIDs {
		stats, ok, err := agg.Collect(ctx, repoID, windowStart, windowEnd, starDeltas[repoID])
		if err != nil {
			return summary, err
		}
		if !ok {
			continue
		}

		result := scoring.Score(stats.MentionCount, stats.UniqueSourceCount, stats.StarDelta, stats.TierCMentionCount, p.Rules)
		components, err := json.Marshal(result.Components)
		if err != nil {
			return summary, err
		}
		snapshot := &models.ScoreSnapshot{
			RepoID:            repoID,
			WindowStart:       windowStart,
			WindowEnd:         windowEnd,
			MentionCount:      stats.MentionCount,
			UniqueSourceCount: stats.UniqueSourceCount,
			StarDelta:         stats.StarDelta,
			Score:             result.Score,
			Components:        datatypes.JSON(components),
		}
		if err := p.Store.UpsertScoreSnapshot(ctx, snapshot); err != nil {
			return summary, err
		}
		summary.SnapshotsWritten++
		p.Metrics.RecordRepoScored()
		p.Logger.Info("score snapshot written",
			zap.String("repo_id", repoID),
			zap.Int("mentions", stats.MentionCount),
			zap.Int("unique_sources", stats.UniqueSourceCount),
			zap.Int64("star_delta", stats.StarDelta),
			zap.Float64("score", result.Score))

		sent, err := p.maybeAlert(ctx, repoID, result.Score, stats, windowEnd)
		if err != nil {
			return summary, err
		}
		if sent {
			summary.AlertsSent++
		}
	}

	p.Metrics.RecordPassDuration(p.now().Sub(started).Seconds())
	p.Logger.Info("pass complete",
		zap.Int("raw_events", summary.RawEvents),
		zap.Int("extracted_events", summary.ExtractedEvents),
		zap.Int("repos", summary.Repos),
		zap.Int("alerts_sent", summary.AlertsSent))
	return summary, nil
}

// collect gathers raw events from every enabled source, honoring the rate
// limit breaker and feeding it the outcome of each attempt.
func (p *Pipeline) collect(ctx context.Context, now time.Time) []collector.RawEvent {
	var rawEvents []collector.RawEvent
	for _, c := range p.Collectors {
		source := c.Name()
		disabled, err := p.Health.IsDisabled(ctx, source)
		if err != nil {
			p.Logger.Error("source health lookup failed", zap.String("source", source), zap.Error(err))
			continue
		}
		if disabled {
			p.Logger.Info("collector skipped", zap.String("source", source), zap.String("reason", "source_disabled"))
			continue
		}

		events, err := c.Collect(ctx)
		if err != nil {
			p.Metrics.RecordCollectorFailure(source)
			p.Logger.Error("collector failed", zap.String("source", source), zap.Error(err))
			state, recordErr := p.Health.RecordFailure(ctx, source, httpx.StatusCode(err), err.Error(), now)
			if recordErr != nil {
				p.Logger.Error("source failure not recorded", zap.String("source", source), zap.Error(recordErr))
			} else if state.IsDisabled {
				p.Logger.Error("source disabled",
					zap.String("source", source),
					zap.Int("consecutive_rate_limit_failures", state.ConsecutiveRateLimitFailures))
			}
			continue
		}

		rawEvents = append(rawEvents, events...)
		p.Metrics.RecordCollectorEvents(source, len(events))
		if _, err := p.Health.RecordSuccess(ctx, source, now); err != nil {
			p.Logger.Error("source success not recorded", zap.String("source", source), zap.Error(err))
		}
	}
	return rawEvents
}

// extractEvents turns raw mentions into persistent events, one per distinct
// repository referenced by each mention.
func (p *Pipeline) extractEvents(rawEvents []collector.RawEvent, now time.Time) []models.SourceEvent {
	tiers := map[string]string{}
	for _, c := range p.Collectors {
		tiers[c.Name()] = c.Tier()
	}

	var events []models.SourceEvent
	for _, raw := range rawEvents {
		refs := extract.Repositories(raw.Text + " " + raw.RawURL)
		for _, ref := range refs {
			eventTS := raw.EventTS
			if eventTS.IsZero() {
				eventTS = now
			}
			tier := tiers[raw.Source]
			if tier == "" {
				tier = "A"
			}
			events = append(events, models.SourceEvent{
				ID:       models.NaturalKey(raw.Source, raw.SourceID, ref.RepoID),
				Source:   raw.Source,
				RepoID:   ref.RepoID,
				AuthorID: raw.AuthorID,
				EventTS:  eventTS,
				RawURL:   raw.RawURL,
				Tier:     tier,
			})
		}
	}
	return events
}

// enrichAll fetches metadata for each repository once and records the star
// delta against the previous snapshot. A failed lookup contributes a zero
// delta so scoring still runs on mention counts alone.
func (p *Pipeline) enrichAll(ctx context.Context, repoIDs []string, now time.Time) map[string]int64 {
	deltas := make(map[string]int64, len(repoIDs))
	for _, repoID := range repoIDs {
		snapshot, err := p.Enricher.Lookup(ctx, repoID, now)
		if err != nil {
			p.Metrics.RecordEnrichFailure()
			p.Logger.Error("github enrich failed", zap.String("repo_id", repoID), zap.Error(err))
			deltas[repoID] = 0
			continue
		}
		delta, err := p.Store.UpsertRepository(ctx, snapshot)
		if err != nil {
			p.Metrics.RecordEnrichFailure()
			p.Logger.Error("repository upsert failed", zap.String("repo_id", repoID), zap.Error(err))
			deltas[repoID] = 0
			continue
		}
		deltas[repoID] = delta.Delta
	}
	return deltas
}

// maybeAlert evaluates the throttle and, on a positive decision, delivers
// the alert. History is written only after confirmed delivery so a failed
// or skipped send never starts a cooldown.
func (p *Pipeline) maybeAlert(ctx context.Context, repoID string, score float64, stats window.Stats, now time.Time) (bool, error) {
	decision, err := p.Alerts.Evaluate(ctx, repoID, score, stats.UniqueSourceCount, now)
	if err != nil {
		return false, err
	}
	if !decision.Send {
		p.Metrics.RecordAlertSuppressed(decision.Reason)
		p.Logger.Info("alert suppressed",
			zap.String("repo_id", repoID), zap.String("reason", decision.Reason), zap.Float64("score", score))
		return false, nil
	}

	delivered, err := p.Notifier.Notify(ctx, notifier.Alert{
		RepoID:            repoID,
		Score:             score,
		MentionCount:      stats.MentionCount,
		UniqueSourceCount: stats.UniqueSourceCount,
		StarDelta:         stats.StarDelta,
		Critical:          decision.Critical,
	})
	if err != nil {
		p.Logger.Error("alert delivery failed", zap.String("repo_id", repoID), zap.Error(err))
		return false, nil
	}
	if !delivered {
		return false, nil
	}

	alert := &models.Alert{
		RepoID:     repoID,
		Score:      score,
		SentTo:     p.Notifier.Name(),
		SentAt:     now,
		IsCritical: decision.Critical,
	}
	if err := p.Store.InsertAlert(ctx, alert); err != nil {
		return false, err
	}
	p.Metrics.RecordAlertSent(decision.Reason)
	p.Logger.Info("alert sent",
		zap.String("repo_id", repoID),
		zap.Float64("score", score),
		zap.Bool("critical", decision.Critical),
		zap.String("reason", decision.Reason))
	return true, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func uniqueRepoIDs(events []models.SourceEvent) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, event := range events {
		if _, ok := seen[event.RepoID]; ok {
			continue
		}
		seen[event.RepoID] = struct{}{}
		ids = append(ids, event.RepoID)
	}
	return ids
}
