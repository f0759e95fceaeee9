package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-watch/app/watcher"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the dashboard API.
// Example usage:
//
//	scheduler := NewScheduler(watcher, settingsRepo, minInterval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.RunNow()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	RunNow() error
	Reschedule()
	Interval() time.Duration
	NextRun() time.Time
}

// Ticker runs a single poll cycle.
type Ticker interface {
	Tick(ctx context.Context) (watcher.Result, error)
}

var _ Ticker = (*watcher.Watcher)(nil)
