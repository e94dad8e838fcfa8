package collector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"repopulse/internal/httpx"
)

const defaultHackerNewsBaseURL = "https://hacker-news.firebaseio.com/v0"

type hnItem struct {
	ID    int64  `json:"id"`
	By    string `json:"by"`
	Time  int64  `json:"time"`
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// HackerNews collects the current top stories from the Firebase HN API.
// Individual item fetch failures are logged and skipped so one bad story
// does not sink the whole pass.
type HackerNews struct {
	Client  *httpx.Client
	Logger  *zap.Logger
	BaseURL string
	Limit   int
	SrcTier string
	DryRun  bool
	Now     func() time.Time
}

func (h *HackerNews) Name() string { return "hn" }
func (h *HackerNews) Tier() string { return h.SrcTier }

func (h *HackerNews) Collect(ctx context.Context) ([]RawEvent, error) {
	if h.DryRun {
		events := h.dryRunEvents()
		h.Logger.Info("collector pass done",
			zap.String("source", h.Name()), zap.String("mode", "dry-run"), zap.Int("count", len(events)))
		return events, nil
	}

	base := h.BaseURL
	if base == "" {
		base = defaultHackerNewsBaseURL
	}

	var ids []int64
	if err := h.Client.GetJSON(ctx, base+"/topstories.json", nil, &ids); err != nil {
		return nil, err
	}
	if h.Limit > 0 && len(ids) > h.Limit {
		ids = ids[:h.Limit]
	}

	events := make([]RawEvent, 0, len(ids))
	for _, id := range ids {
		itemURL := fmt.Sprintf("%s/item/%d.json", base, id)
		var item *hnItem
		if err := h.Client.GetJSON(ctx, itemURL, nil, &item); err != nil {
			h.Logger.Error("hn item fetch failed", zap.Int64("item_id", id), zap.Error(err))
			continue
		}
		if item == nil {
			continue
		}

		eventTS := h.now()
		if item.Time > 0 {
			eventTS = time.Unix(item.Time, 0).UTC()
		}
		rawURL := item.URL
		if rawURL == "" {
			rawURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", item.ID)
		}
		var author *string
		if item.By != "" {
			author = strPtr(item.By)
		}

		events = append(events, RawEvent{
			Source:   h.Name(),
			SourceID: strconv.FormatInt(item.ID, 10),
			AuthorID: author,
			EventTS:  eventTS,
			RawURL:   rawURL,
			Text:     joinNonEmpty(item.Title, item.Text, item.URL),
		})
	}

	h.Logger.Info("collector pass done",
		zap.String("source", h.Name()), zap.String("mode", "live"), zap.Int("count", len(events)))
	return events, nil
}

func (h *HackerNews) dryRunEvents() []RawEvent {
	now := h.now()
	return []RawEvent{
		{
			Source:   h.Name(),
			SourceID: "dry-hn-1",
			AuthorID: strPtr("dry-user-1"),
			EventTS:  now,
			RawURL:   "https://news.ycombinator.com/item?id=dry-hn-1",
			Text:     "A practical SDK write-up: https://github.com/openai/openai-node",
		},
		{
			Source:   h.Name(),
			SourceID: "dry-hn-2",
			AuthorID: strPtr("dry-user-2"),
			EventTS:  now,
			RawURL:   "https://news.ycombinator.com/item?id=dry-hn-2",
			Text:     "Frontend benchmark thread around https://github.com/vercel/next.js",
		},
	}
}

func (h *HackerNews) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
