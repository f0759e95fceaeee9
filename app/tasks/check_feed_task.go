package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-watch/app/watcher"
)

type CheckFeedTask struct {
	Task
	ticker Ticker
}

func NewCheckFeedTask(ticker Ticker) *CheckFeedTask {
	return &CheckFeedTask{
		Task:   NewTask(TaskTypeCheckFeed),
		ticker: ticker,
	}
}

func (t *CheckFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.ticker.Tick(ctx)
	if err != nil {
		var notConfigured *watcher.ConfigMissingError
		if errors.As(err, &notConfigured) {
			slog.Debug("Task skipped", "type", "CheckFeed", "reason", notConfigured.Reason)
			return nil
		}
		return fmt.Errorf("failed to check feed: %w", err)
	}

	if result.Status == watcher.StatusStopped {
		return nil
	}

	slog.Info("Task completed",
		"type", "CheckFeed",
		"status", string(result.Status),
		"entries", result.Entries,
		"new_hits", result.NewHits,
		"mail_failures", result.MailFailures,
		"duration", t.GetDuration())

	return nil
}
