package collector

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"repopulse/internal/httpx"
)

const (
	defaultRedditBaseURL = "https://www.reddit.com"
	redditUserAgent      = "repopulse/0.1"
)

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID         string  `json:"id"`
				Author     string  `json:"author"`
				CreatedUTC float64 `json:"created_utc"`
				Title      string  `json:"title"`
				SelfText   string  `json:"selftext"`
				URL        string  `json:"url"`
				Permalink  string  `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Reddit collects the newest submissions from a single subreddit's public
// JSON feed.
type Reddit struct {
	Client    *httpx.Client
	Logger    *zap.Logger
	BaseURL   string
	Subreddit string
	Limit     int
	SrcTier   string
	DryRun    bool
	Now       func() time.Time
}

func (r *Reddit) Name() string { return "reddit" }
func (r *Reddit) Tier() string { return r.SrcTier }

func (r *Reddit) Collect(ctx context.Context) ([]RawEvent, error) {
	if r.DryRun {
		events := r.dryRunEvents()
		r.Logger.Info("collector pass done",
			zap.String("source", r.Name()), zap.String("mode", "dry-run"), zap.Int("count", len(events)))
		return events, nil
	}

	base := r.BaseURL
	if base == "" {
		base = defaultRedditBaseURL
	}
	feedURL := fmt.Sprintf("%s/r/%s/new.json?limit=%d", base, url.PathEscape(r.Subreddit), r.Limit)

	var listing redditListing
	headers := map[string]string{"User-Agent": redditUserAgent}
	if err := r.Client.GetJSON(ctx, feedURL, headers, &listing); err != nil {
		return nil, err
	}

	events := make([]RawEvent, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		data := child.Data
		eventTS := r.now()
		if data.CreatedUTC > 0 {
			eventTS = time.Unix(int64(data.CreatedUTC), 0).UTC()
		}
		rawURL := data.URL
		if rawURL == "" {
			rawURL = defaultRedditBaseURL + data.Permalink
		}
		var author *string
		if data.Author != "" {
			author = strPtr(data.Author)
		}

		events = append(events, RawEvent{
			Source:   r.Name(),
			SourceID: data.ID,
			AuthorID: author,
			EventTS:  eventTS,
			RawURL:   rawURL,
			Text:     joinNonEmpty(data.Title, data.SelfText, data.URL),
		})
	}

	r.Logger.Info("collector pass done",
		zap.String("source", r.Name()), zap.String("mode", "live"), zap.Int("count", len(events)))
	return events, nil
}

func (r *Reddit) dryRunEvents() []RawEvent {
	now := r.now()
	return []RawEvent{
		{
			Source:   r.Name(),
			SourceID: "dry-reddit-1",
			AuthorID: strPtr("dry-redditor-1"),
			EventTS:  now,
			RawURL:   "https://www.reddit.com/r/programming/comments/dry1",
			Text:     "Stable tooling release: https://github.com/openai/openai-node",
		},
		{
			Source:   r.Name(),
			SourceID: "dry-reddit-2",
			AuthorID: strPtr("dry-redditor-2"),
			EventTS:  now,
			RawURL:   "https://www.reddit.com/r/programming/comments/dry2",
			Text:     "Runtime discussion for https://github.com/denoland/deno",
		},
		{
			Source:   r.Name(),
			SourceID: "dry-reddit-3",
			AuthorID: strPtr("dry-redditor-3"),
			EventTS:  now,
			RawURL:   "https://www.reddit.com/r/programming/comments/dry3",
			Text:     "Next.js upgrade notes https://github.com/vercel/next.js/issues/1",
		},
	}
}

func (r *Reddit) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}
