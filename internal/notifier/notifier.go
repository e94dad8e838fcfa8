package notifier

import "context"

// Alert is the information a channel needs to render one trend notification.
type Alert struct {
	RepoID            string
	Score             float64
	MentionCount      int
	UniqueSourceCount int
	StarDelta         int64
	Critical          bool
}

// Notifier delivers one alert to a channel. Delivered reports whether the
// message actually went out: a skipped delivery (no webhook configured) is
// not an error, but it must not start a cooldown either.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, alert Alert) (delivered bool, err error)
}
