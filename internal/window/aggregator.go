package window

import (
	"context"
	"time"

	"repopulse/internal/repository"
)

// Stats are the aggregate inputs the score formula consumes for one
// repository over one window.
type Stats struct {
	RepoID            string
	WindowStart       time.Time
	WindowEnd         time.Time
	MentionCount      int
	UniqueSourceCount int
	TierCMentionCount int
	StarDelta         int64
}

// Aggregator folds stored events into per-repository window statistics.
// The star delta is supplied by the caller: it is computed once per
// enrichment pass, not per window query.
type Aggregator struct {
	Store repository.Store
}

// Collect returns the window stats for repoID, with ok=false when the window
// holds no events; such repositories are skipped for the pass, producing no
// snapshot and no alert evaluation.
func (a *Aggregator) Collect(ctx context.Context, repoID string, start, end time.Time, starDelta int64) (Stats, bool, error) {
	events, err := a.Store.EventsInWindow(ctx, repoID, start, end)
	if err != nil {
		return Stats{}, false, err
	}
	if len(events) == 0 {
		return Stats{}, false, nil
	}

	sources := map[string]struct{}{}
	tierC := 0
	for _, event := range events {
		sources[event.Source] = struct{}{}
		if event.Tier == "C" {
			tierC++
		}
	}

	if starDelta < 0 {
		starDelta = 0
	}

	return Stats{
		RepoID:            repoID,
		WindowStart:       start,
		WindowEnd:         end,
		MentionCount:      len(events),
		UniqueSourceCount: len(sources),
		TierCMentionCount: tierC,
		StarDelta:         starDelta,
	}, true, nil
}
