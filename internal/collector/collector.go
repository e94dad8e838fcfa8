package collector

import (
	"context"
	"time"
)

// RawEvent is a mention as a collector saw it, before repository extraction
// and persistence.
type RawEvent struct {
	Source   string
	SourceID string
	AuthorID *string
	EventTS  time.Time
	RawURL   string
	Text     string
}

// Collector fetches recent mentions from one external source. Implementations
// return whatever they could gather; partial results with per-item failures
// are fine, a returned error means the source as a whole failed.
type Collector interface {
	Name() string
	Tier() string
	Collect(ctx context.Context) ([]RawEvent, error)
}

func strPtr(v string) *string { return &v }
