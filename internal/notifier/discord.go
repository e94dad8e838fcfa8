package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"repopulse/internal/httpx"
)

type discordPayload struct {
	Content string `json:"content"`
}

// Discord posts alerts to a webhook. In dry-run mode the message is counted
// as delivered without touching the network so the alert history still
// exercises the cooldown path.
type Discord struct {
	Client     *httpx.Client
	Logger     *zap.Logger
	WebhookURL string
	DryRun     bool
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Notify(ctx context.Context, alert Alert) (bool, error) {
	if d.DryRun {
		d.Logger.Info("discord delivery skipped", zap.String("reason", "dry_run"), zap.String("repo_id", alert.RepoID))
		return true, nil
	}
	if d.WebhookURL == "" {
		d.Logger.Info("discord delivery skipped", zap.String("reason", "webhook_missing"), zap.String("repo_id", alert.RepoID))
		return false, nil
	}

	payload := discordPayload{Content: renderContent(alert)}
	if err := d.Client.PostJSON(ctx, d.WebhookURL, nil, payload); err != nil {
		return false, err
	}
	d.Logger.Info("discord delivery done", zap.String("repo_id", alert.RepoID), zap.Bool("critical", alert.Critical))
	return true, nil
}

func renderContent(alert Alert) string {
	severity := "TREND"
	if alert.Critical {
		severity = "CRITICAL"
	}
	return strings.Join([]string{
		fmt.Sprintf("**[%s] %s**", severity, alert.RepoID),
		fmt.Sprintf("score=%s (mentions=%d, unique_sources=%d, star_delta=%d)",
			strconv.FormatFloat(alert.Score, 'f', -1, 64), alert.MentionCount, alert.UniqueSourceCount, alert.StarDelta),
		"https://github.com/" + alert.RepoID,
	}, "\n")
}
