package gormrepository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"repopulse/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.SourceEvent{},
		&models.Repository{},
		&models.ScoreSnapshot{},
		&models.Alert{},
		&models.SourceHealth{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func strPtr(s string) *string { return &s }

func TestInsertEventsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	batch := []models.SourceEvent{
		{
			ID:      models.NaturalKey("hn", "100", "acme/widget"),
			Source:  "hn",
			RepoID:  "acme/widget",
			EventTS: ts,
			RawURL:  "https://news.ycombinator.com/item?id=100",
			Tier:    "A",
		},
		{
			ID:       models.NaturalKey("reddit", "p1", "acme/widget"),
			Source:   "reddit",
			RepoID:   "acme/widget",
			AuthorID: strPtr("user1"),
			EventTS:  ts.Add(time.Minute),
			RawURL:   "https://reddit.com/p1",
			Tier:     "A",
		},
	}

	inserted, err := store.InsertEvents(ctx, batch)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("inserted=%d want=2", inserted)
	}

	inserted, err = store.InsertEvents(ctx, batch)
	if err != nil {
		t.Fatalf("replay insert: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("replay inserted=%d want=0", inserted)
	}
}

func TestEventsInWindowInclusiveOrdered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	batch := []models.SourceEvent{
		{ID: "hn:1:a/b", Source: "hn", RepoID: "a/b", EventTS: base.Add(2 * time.Hour), Tier: "A"},
		{ID: "hn:2:a/b", Source: "hn", RepoID: "a/b", EventTS: base, Tier: "A"},
		{ID: "hn:3:a/b", Source: "hn", RepoID: "a/b", EventTS: base.Add(6 * time.Hour), Tier: "A"},
		{ID: "hn:4:c/d", Source: "hn", RepoID: "c/d", EventTS: base.Add(time.Hour), Tier: "A"},
	}
	if _, err := store.InsertEvents(ctx, batch); err != nil {
		t.Fatalf("insert: %v", err)
	}

	events, err := store.EventsInWindow(ctx, "a/b", base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len=%d want=2", len(events))
	}
	if events[0].ID != "hn:2:a/b" || events[1].ID != "hn:1:a/b" {
		t.Fatalf("unexpected order: %s, %s", events[0].ID, events[1].ID)
	}
}

func TestUpsertRepositoryStarDelta(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := &models.Repository{RepoID: "acme/widget", RepoURL: "https://github.com/acme/widget", Stars: 5000, LastSeenAt: now}
	res, err := store.UpsertRepository(ctx, first)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if res.PreviousStars != 0 || res.Delta != 0 {
		t.Fatalf("first snapshot delta=%+v want zero", res)
	}

	second := &models.Repository{RepoID: "acme/widget", RepoURL: "https://github.com/acme/widget", Stars: 5120, LastSeenAt: now}
	res, err = store.UpsertRepository(ctx, second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if res.PreviousStars != 5000 || res.Delta != 120 {
		t.Fatalf("delta=%+v want prev=5000 delta=120", res)
	}

	// Shrinkage floors at zero.
	third := &models.Repository{RepoID: "acme/widget", RepoURL: "https://github.com/acme/widget", Stars: 5100, LastSeenAt: now}
	res, err = store.UpsertRepository(ctx, third)
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if res.Delta != 0 {
		t.Fatalf("shrink delta=%d want=0", res.Delta)
	}

	got, err := store.GetRepository(ctx, "acme/widget")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Stars != 5100 {
		t.Fatalf("stars=%d want=5100", got.Stars)
	}
}

func TestUpsertScoreSnapshotOverwrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	end := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	snap := &models.ScoreSnapshot{
		RepoID:            "a/b",
		WindowEnd:         end,
		WindowStart:       end.Add(-6 * time.Hour),
		MentionCount:      2,
		UniqueSourceCount: 1,
		Score:             7.0,
	}
	if err := store.UpsertScoreSnapshot(ctx, snap); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	snap2 := *snap
	snap2.MentionCount = 4
	snap2.Score = 9.0
	if err := store.UpsertScoreSnapshot(ctx, &snap2); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	rows, err := store.TopRepositories(ctx, end.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d want=1 (same window must overwrite)", len(rows))
	}
	if rows[0].Score != 9.0 || rows[0].MentionCount != 4 {
		t.Fatalf("row=%+v want overwritten values", rows[0])
	}
}

func TestTopRepositoriesDeterministicOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	end := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	start := end.Add(-6 * time.Hour)

	snaps := []models.ScoreSnapshot{
		{RepoID: "zeta/z", WindowEnd: end, WindowStart: start, MentionCount: 3, Score: 10},
		{RepoID: "alpha/a", WindowEnd: end, WindowStart: start, MentionCount: 3, Score: 10},
		{RepoID: "mid/m", WindowEnd: end, WindowStart: start, MentionCount: 5, Score: 10},
		{RepoID: "top/t", WindowEnd: end, WindowStart: start, MentionCount: 1, Score: 20},
		{RepoID: "old/o", WindowEnd: end.Add(-48 * time.Hour), WindowStart: start.Add(-48 * time.Hour), MentionCount: 9, Score: 99},
	}
	for i := range snaps {
		if err := store.UpsertScoreSnapshot(ctx, &snaps[i]); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	rows, err := store.TopRepositories(ctx, end.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []string{"top/t", "mid/m", "alpha/a", "zeta/z"}
	if len(rows) != len(want) {
		t.Fatalf("rows=%d want=%d", len(rows), len(want))
	}
	for i, w := range want {
		if rows[i].RepoID != w {
			t.Fatalf("rows[%d]=%s want=%s", i, rows[i].RepoID, w)
		}
	}

	// Zero and negative limits clamp to one row, not to the default.
	for _, limit := range []int{0, -5} {
		rows, err = store.TopRepositories(ctx, end.Add(-time.Hour), limit)
		if err != nil {
			t.Fatalf("top limit=%d: %v", limit, err)
		}
		if len(rows) != 1 || rows[0].RepoID != "top/t" {
			t.Fatalf("limit=%d rows=%+v want single top/t row", limit, rows)
		}
	}
}

func TestAlertsLatestAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	none, err := store.LatestAlert(ctx, "a/b", "discord")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no alert, got %+v", none)
	}

	alerts := []models.Alert{
		{RepoID: "a/b", Score: 12, SentTo: "discord", SentAt: t0},
		{RepoID: "a/b", Score: 15, SentTo: "discord", SentAt: t0.Add(24 * time.Hour)},
		{RepoID: "a/b", Score: 30, SentTo: "slack", SentAt: t0.Add(48 * time.Hour)},
		{RepoID: "c/d", Score: 18, SentTo: "discord", SentAt: t0.Add(time.Hour)},
	}
	for i := range alerts {
		if err := store.InsertAlert(ctx, &alerts[i]); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if alerts[i].ID == 0 {
			t.Fatalf("insert %d: id not assigned", i)
		}
	}

	last, err := store.LatestAlert(ctx, "a/b", "discord")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if last == nil || last.Score != 15 {
		t.Fatalf("latest=%+v want score 15 on discord channel", last)
	}

	recent, err := store.RecentAlerts(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent len=%d want=3", len(recent))
	}
	if recent[0].Score != 30 {
		t.Fatalf("recent[0]=%+v want newest first", recent[0])
	}

	// Zero and negative limits clamp to one row, not to the default.
	recent, err = store.RecentAlerts(ctx, 0)
	if err != nil {
		t.Fatalf("recent clamped: %v", err)
	}
	if len(recent) != 1 || recent[0].Score != 30 {
		t.Fatalf("clamped recent=%+v want single newest row", recent)
	}
}

func TestSourceHealthUnknownAndReenable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	state, err := store.GetSourceHealth(ctx, "hn")
	if err != nil {
		t.Fatalf("get unknown: %v", err)
	}
	if state.Source != "hn" || state.FailureCount != 0 || state.IsDisabled {
		t.Fatalf("unknown source state=%+v want zeroed", state)
	}

	disabled := models.SourceHealth{
		Source:                       "reddit",
		FailureCount:                 3,
		ConsecutiveRateLimitFailures: 3,
		IsDisabled:                   true,
		UpdatedAt:                    now,
	}
	healthy := models.SourceHealth{Source: "hn", SuccessCount: 5, UpdatedAt: now}
	if err := store.UpsertSourceHealth(ctx, &disabled); err != nil {
		t.Fatalf("upsert disabled: %v", err)
	}
	if err := store.UpsertSourceHealth(ctx, &healthy); err != nil {
		t.Fatalf("upsert healthy: %v", err)
	}

	toggled, err := store.ReenableDisabledSources(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("reenable: %v", err)
	}
	if len(toggled) != 1 || toggled[0] != "reddit" {
		t.Fatalf("toggled=%v want [reddit]", toggled)
	}

	state, err = store.GetSourceHealth(ctx, "reddit")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.IsDisabled || state.ConsecutiveRateLimitFailures != 0 {
		t.Fatalf("state=%+v want re-enabled with streak reset", state)
	}

	// Second sweep is a no-op.
	toggled, err = store.ReenableDisabledSources(ctx, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second reenable: %v", err)
	}
	if len(toggled) != 0 {
		t.Fatalf("toggled=%v want empty", toggled)
	}
}
