package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/rss-watch/app/activitylog"
	"github.com/lysyi3m/rss-watch/app/database"
	"github.com/lysyi3m/rss-watch/app/feed"
	"github.com/lysyi3m/rss-watch/app/notify"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]feed.Entry, error)
}

type Notifier interface {
	Send(ctx context.Context, settings database.Settings, subject, body string) error
}

var (
	_ Fetcher  = (*feed.Fetcher)(nil)
	_ Notifier = (*notify.Mailer)(nil)
)

type Status string

const (
	StatusStopped       Status = "stopped"
	StatusNotConfigured Status = "not_configured"
	StatusFetchFailed   Status = "fetch_failed"
	StatusEmpty         Status = "empty"
	StatusCompleted     Status = "completed"
	StatusAborted       Status = "aborted"
)

// Result summarises one cycle.
type Result struct {
	Status       Status
	Entries      int
	Matched      int
	Duplicates   int
	NewHits      int
	MailFailures int
}

// Watcher runs the poll-match-dedupe-notify cycle. It holds no state of its
// own between ticks; settings and run state are re-read every time.
type Watcher struct {
	settingsRepo database.SettingsRepository
	stateRepo    database.StateRepository
	hitRepo      database.HitRepository
	fetcher      Fetcher
	notifier     Notifier
	activity     activitylog.Writer
	now          func() time.Time
}

func New(settingsRepo database.SettingsRepository, stateRepo database.StateRepository,
	hitRepo database.HitRepository, fetcher Fetcher, notifier Notifier, activity activitylog.Writer) *Watcher {
	return &Watcher{
		settingsRepo: settingsRepo,
		stateRepo:    stateRepo,
		hitRepo:      hitRepo,
		fetcher:      fetcher,
		notifier:     notifier,
		activity:     activity,
		now:          time.Now,
	}
}

// Tick performs exactly one poll cycle. The returned error is one of
// *ConfigMissingError, *feed.FetchError or *PersistenceError; mail failures
// are isolated per entry and only counted in Result. A cancelled ctx stops the
// cycle before the next entry is recorded, returning the ctx error; entries
// left unprocessed are picked up by the next cycle.
// Callers must not run Tick concurrently.
func (w *Watcher) Tick(ctx context.Context) (Result, error) {
	state, err := w.stateRepo.GetState()
	if err != nil {
		return w.abort(Result{}, &PersistenceError{Op: "load run state", Err: err})
	}
	if state == nil || !state.Running {
		slog.Debug("Watcher stopped, skipping cycle")
		return Result{Status: StatusStopped}, nil
	}

	settings, err := w.settingsRepo.GetSettings()
	if err != nil {
		return w.abort(Result{}, &PersistenceError{Op: "load settings", Err: err})
	}
	if reason := missingConfig(settings); reason != "" {
		w.record(reason)
		return Result{Status: StatusNotConfigured}, &ConfigMissingError{Reason: reason}
	}

	entries, fetchErr := w.fetcher.Fetch(ctx, settings.FeedURL)

	if err := w.stateRepo.SetLastChecked(w.now()); err != nil {
		return w.abort(Result{}, &PersistenceError{Op: "update last checked", Err: err})
	}

	if fetchErr != nil {
		var classified *feed.FetchError
		if !errors.As(fetchErr, &classified) {
			classified = &feed.FetchError{URL: settings.FeedURL, Err: fetchErr}
		}
		slog.Warn("Feed fetch failed", "feed", settings.FeedURL, "error", classified.Err)
		w.record(fmt.Sprintf("Feed fetch failed: %v", classified.Err))
		return Result{Status: StatusFetchFailed}, classified
	}

	result := Result{Status: StatusCompleted, Entries: len(entries)}

	if len(entries) == 0 {
		w.record("Feed has no entries.")
		result.Status = StatusEmpty
		return result, nil
	}

	w.record(fmt.Sprintf("Feed fetched: %d entries", len(entries)))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return w.abort(result, fmt.Errorf("cycle interrupted: %w", err))
		}
		if err := w.processEntry(ctx, *settings, entry, &result); err != nil {
			return w.abort(result, err)
		}
	}

	slog.Info("Cycle completed",
		"feed", settings.FeedURL,
		"entries", result.Entries,
		"matched", result.Matched,
		"duplicates", result.Duplicates,
		"new", result.NewHits,
		"mail_failures", result.MailFailures)

	return result, nil
}

func (w *Watcher) processEntry(ctx context.Context, settings database.Settings, entry feed.Entry, result *Result) error {
	title := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)

	if title == "" {
		return nil
	}

	keyword, ok := feed.Match(title, settings.Keywords)
	if !ok {
		return nil
	}
	result.Matched++

	seen, err := w.hitRepo.AlreadyHit(title)
	if err != nil {
		return &PersistenceError{Op: "check hit", Err: err}
	}
	if seen {
		result.Duplicates++
		slog.Debug("Title already notified", "title", title)
		return nil
	}

	// The hit must be durable before any delivery attempt.
	now := w.now()
	if _, err := w.hitRepo.RecordHit(title, link, keyword, now); err != nil {
		return &PersistenceError{Op: "record hit", Err: err}
	}
	result.NewHits++

	// A recorded hit is never retried, so it is still announced when the
	// timestamp update fails; the cycle aborts afterwards.
	var lastHitErr error
	if err := w.stateRepo.SetLastHit(now); err != nil {
		lastHitErr = &PersistenceError{Op: "update last hit", Err: err}
	}

	// A recorded hit is delivered even if the cycle is cancelled meanwhile;
	// the notifier's own timeout bounds the attempt.
	subject, body := notify.HitMessage(title, keyword, link, now)
	if err := w.notifier.Send(context.WithoutCancel(ctx), settings, subject, body); err != nil {
		result.MailFailures++
		slog.Error("Mail delivery failed", "title", title, "keyword", keyword, "error", err)
		w.record(fmt.Sprintf("Mail delivery failed: %v", err))
	}

	w.record(fmt.Sprintf("HIT: [%s] %s %s", keyword, title, link))

	return lastHitErr
}

func (w *Watcher) abort(result Result, err error) (Result, error) {
	result.Status = StatusAborted
	slog.Error("Cycle aborted", "error", err)
	w.record(fmt.Sprintf("Cycle aborted: %v", err))
	return result, err
}

// record writes to the activity log. A failing sink never stops the cycle.
func (w *Watcher) record(msg string) {
	if err := w.activity.Write(msg); err != nil {
		slog.Error("Failed to write activity log", "message", msg, "error", err)
	}
}

func missingConfig(settings *database.Settings) string {
	switch {
	case settings == nil:
		return "No settings found."
	case !settings.Enabled:
		return "Watcher is disabled in settings."
	case settings.FeedURL == "":
		return "No feed URL configured."
	case len(settings.Keywords) == 0:
		return "No keywords configured."
	default:
		return ""
	}
}
