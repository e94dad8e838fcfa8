package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"repopulse/internal/httpx"
	"repopulse/internal/models"
)

const githubUserAgent = "repopulse/0.1"

type githubRepo struct {
	HTMLURL         string     `json:"html_url"`
	CreatedAt       *time.Time `json:"created_at"`
	StargazersCount int64      `json:"stargazers_count"`
}

// GitHub resolves repository metadata (canonical URL, creation date, star
// count) from the GitHub REST API. A token is optional; without one the
// public rate limit applies.
type GitHub struct {
	Client  *httpx.Client
	Logger  *zap.Logger
	BaseURL string
	Token   string
	DryRun  bool
}

// Lookup fetches current metadata for repoID. The returned snapshot carries
// now as its last-seen timestamp.
func (g *GitHub) Lookup(ctx context.Context, repoID string, now time.Time) (*models.Repository, error) {
	if g.DryRun {
		snapshot := dryRunMetadata(repoID, now)
		g.Logger.Info("github enrich done",
			zap.String("repo_id", repoID), zap.String("mode", "dry-run"), zap.Int64("stars", snapshot.Stars))
		return snapshot, nil
	}

	base := g.BaseURL
	if base == "" {
		base = "https://api.github.com"
	}
	headers := map[string]string{
		"Accept":     "application/vnd.github+json",
		"User-Agent": githubUserAgent,
	}
	if g.Token != "" {
		headers["Authorization"] = "Bearer " + g.Token
	}

	var payload githubRepo
	if err := g.Client.GetJSON(ctx, base+"/repos/"+repoID, headers, &payload); err != nil {
		return nil, err
	}

	repoURL := payload.HTMLURL
	if repoURL == "" {
		repoURL = "https://github.com/" + repoID
	}
	snapshot := &models.Repository{
		RepoID:     repoID,
		RepoURL:    repoURL,
		CreatedAt:  payload.CreatedAt,
		Stars:      payload.StargazersCount,
		LastSeenAt: now,
	}
	g.Logger.Info("github enrich done",
		zap.String("repo_id", repoID), zap.String("mode", "live"), zap.Int64("stars", snapshot.Stars))
	return snapshot, nil
}

// dryRunMetadata fabricates a stable star count per repository so repeated
// dry runs produce a zero star delta.
func dryRunMetadata(repoID string, now time.Time) *models.Repository {
	var hash int32
	for _, r := range repoID {
		hash = hash<<5 - hash + int32(r)
	}
	stars := int64(hash)
	if stars < 0 {
		stars = -stars
	}
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.Repository{
		RepoID:     repoID,
		RepoURL:    "https://github.com/" + repoID,
		CreatedAt:  &createdAt,
		Stars:      100 + stars%3000,
		LastSeenAt: now,
	}
}
