package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"repopulse/internal/httpx"
)

func TestNotifyPostsWebhookPayload(t *testing.T) {
	var got discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method=%s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("content-type=%q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := &Discord{
		Client:     httpx.New(2*time.Second, 0, 10*time.Millisecond, zap.NewNop()),
		Logger:     zap.NewNop(),
		WebhookURL: srv.URL,
	}
	delivered, err := d.Notify(context.Background(), Alert{
		RepoID:            "vercel/next.js",
		Score:             12.3,
		MentionCount:      4,
		UniqueSourceCount: 2,
		StarDelta:         120,
		Critical:          true,
	})
	if err != nil || !delivered {
		t.Fatalf("delivered=%v err=%v", delivered, err)
	}

	lines := strings.Split(got.Content, "\n")
	if len(lines) != 3 {
		t.Fatalf("content=%q", got.Content)
	}
	if lines[0] != "**[CRITICAL] vercel/next.js**" {
		t.Fatalf("header=%q", lines[0])
	}
	if lines[1] != "score=12.3 (mentions=4, unique_sources=2, star_delta=120)" {
		t.Fatalf("detail=%q", lines[1])
	}
	if lines[2] != "https://github.com/vercel/next.js" {
		t.Fatalf("link=%q", lines[2])
	}
}

func TestNotifyWithoutWebhookIsSkipped(t *testing.T) {
	d := &Discord{Logger: zap.NewNop()}
	delivered, err := d.Notify(context.Background(), Alert{RepoID: "a/b", Score: 15})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if delivered {
		t.Fatalf("missing webhook must not count as delivered")
	}
}

func TestNotifyDryRunCountsAsDelivered(t *testing.T) {
	d := &Discord{Logger: zap.NewNop(), DryRun: true, WebhookURL: "http://unreachable.invalid"}
	delivered, err := d.Notify(context.Background(), Alert{RepoID: "a/b", Score: 15})
	if err != nil || !delivered {
		t.Fatalf("delivered=%v err=%v", delivered, err)
	}
}

func TestNotifyFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := &Discord{
		Client:     httpx.New(2*time.Second, 0, 10*time.Millisecond, zap.NewNop()),
		Logger:     zap.NewNop(),
		WebhookURL: srv.URL,
	}
	delivered, err := d.Notify(context.Background(), Alert{RepoID: "a/b", Score: 15})
	if err == nil || delivered {
		t.Fatalf("delivered=%v err=%v want undelivered error", delivered, err)
	}
}

func TestRenderContentNonCritical(t *testing.T) {
	content := renderContent(Alert{RepoID: "golang/go", Score: 16, MentionCount: 2, UniqueSourceCount: 2, StarDelta: 100})
	if !strings.HasPrefix(content, "**[TREND] golang/go**") {
		t.Fatalf("content=%q", content)
	}
	if !strings.Contains(content, "score=16 (") {
		t.Fatalf("integral score must render without decimals: %q", content)
	}
}
