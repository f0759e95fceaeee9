package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/rss-watch/app/activitylog"
	"github.com/lysyi3m/rss-watch/app/database"
)

func TestTick_SQLiteScenario(t *testing.T) {
	dir := t.TempDir()

	db, err := database.NewConnection(filepath.Join(dir, "app.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	settingsRepo := database.NewSettingsRepository(db)
	stateRepo := database.NewStateRepository(db)
	hitRepo := database.NewHitRepository(db)

	err = settingsRepo.SaveSettings(database.Settings{
		FeedURL:       "https://example.com/feed",
		Keywords:      []string{"PS5", "Xbox"},
		CheckInterval: 600,
		Enabled:       true,
		MailFrom:      "watch@example.com",
		MailTo:        "me@example.com",
		SMTPServer:    "smtp.example.com",
		SMTPPort:      587,
	})
	if err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}
	if err := stateRepo.SetRunning(true); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	activity := activitylog.New(filepath.Join(dir, "log.txt"))
	fetcher := &MockFetcher{entries: scenarioEntries()}
	notifier := &MockNotifier{failAll: true}

	w := New(settingsRepo, stateRepo, hitRepo, fetcher, notifier, activity)
	w.now = func() time.Time { return fixedNow }

	if _, err := w.Tick(context.Background()); err != nil {
		t.Fatalf("First tick failed: %v", err)
	}

	later := fixedNow.Add(10 * time.Minute)
	w.now = func() time.Time { return later }

	result, err := w.Tick(context.Background())
	if err != nil {
		t.Fatalf("Second tick failed: %v", err)
	}
	if result.NewHits != 0 {
		t.Errorf("Expected no new hits on second tick, got %d", result.NewHits)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("Expected exactly one mail attempt across both ticks, got %d", len(notifier.sent))
	}

	hits, err := hitRepo.GetRecentHits(0)
	if err != nil {
		t.Fatalf("Failed to load hits: %v", err)
	}
	if len(hits) != 1 || hits[0].MatchedKeyword != "PS5" {
		t.Errorf("Expected one PS5 hit, got %+v", hits)
	}

	state, err := stateRepo.GetState()
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}
	if !state.LastChecked.Equal(later) {
		t.Errorf("Expected last checked %v, got %v", later, state.LastChecked)
	}
	if !state.LastHit.Equal(fixedNow) {
		t.Errorf("Expected last hit %v, got %v", fixedNow, state.LastHit)
	}

	lines, ok, err := activity.Tail(0)
	if err != nil || !ok {
		t.Fatalf("Failed to read activity log: ok=%v err=%v", ok, err)
	}
	var hitLines int
	for _, line := range lines {
		if strings.Contains(line, "] HIT: [PS5] Sony announces PS5 restock https://x/1") {
			hitLines++
		}
	}
	if hitLines != 1 {
		t.Errorf("Expected one HIT line, got %d in %v", hitLines, lines)
	}
}
