package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/rss-watch/app/database"
	"github.com/robfig/cron/v3"
)

const (
	queueSize   = 8
	taskTimeout = 5 * time.Minute
)

var ErrCheckPending = errors.New("feed check already pending")

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler feeds a single worker from a cron entry firing every check
// interval. Only one task runs at a time and at most one check waits in the
// queue.
type Scheduler struct {
	ticker       Ticker
	settingsRepo database.SettingsRepository
	minInterval  time.Duration
	cron         *cron.Cron

	mu       sync.Mutex
	entryID  cron.EntryID
	interval time.Duration

	checkPending atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(ticker Ticker, settingsRepo database.SettingsRepository, minInterval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))

	return &Scheduler{
		ticker:       ticker,
		settingsRepo: settingsRepo,
		minInterval:  minInterval,
		cron:         cron.New(cron.WithChain(cron.Recover(logger))),
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.Reschedule()
	s.cron.Start()

	if err := s.RunNow(); err != nil {
		slog.Warn("Failed to enqueue startup check", "error", err)
	}
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// RunNow enqueues an immediate feed check unless one is already waiting.
func (s *Scheduler) RunNow() error {
	if !s.checkPending.CompareAndSwap(false, true) {
		return ErrCheckPending
	}

	if err := s.EnqueueTask(NewCheckFeedTask(s.ticker)); err != nil {
		s.checkPending.Store(false)
		return err
	}

	return nil
}

// Reschedule re-reads the check interval and replaces the cron entry when it
// changed.
func (s *Scheduler) Reschedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	interval := s.currentInterval()

	if s.entryID != 0 && interval == s.interval {
		return
	}

	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.enqueueCheck)
	if err != nil {
		slog.Error("Failed to schedule feed check", "interval", interval.String(), "error", err)
		return
	}

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		slog.Info("Check interval changed", "from", s.interval.String(), "to", interval.String())
	} else {
		slog.Debug("Check interval set", "interval", interval.String())
	}

	s.entryID = id
	s.interval = interval
}

func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// NextRun returns the zero time until the scheduler has started.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	id := s.entryID
	s.mu.Unlock()

	if id == 0 {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// currentInterval must be called with s.mu held.
func (s *Scheduler) currentInterval() time.Duration {
	interval := time.Duration(database.DefaultCheckInterval) * time.Second

	settings, err := s.settingsRepo.GetSettings()
	if err != nil {
		slog.Warn("Failed to read check interval, using previous", "error", err)
		if s.interval > 0 {
			return s.interval
		}
		return max(interval, s.minInterval)
	}
	if settings != nil && settings.CheckInterval > 0 {
		interval = settings.Interval()
	}

	return max(interval, s.minInterval)
}

func (s *Scheduler) enqueueCheck() {
	if err := s.RunNow(); err != nil {
		if errors.Is(err, ErrCheckPending) {
			slog.Debug("Feed check already pending, skipping tick")
			return
		}
		slog.Warn("Failed to enqueue CheckFeedTask", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			if task.GetType() == TaskTypeCheckFeed {
				s.checkPending.Store(false)
			}
			s.executeTask(task)
			s.Reschedule()

		case <-s.ctx.Done():
			return
		}
	}
}

// executeTask runs a task once. A failed check is retried by the next tick.
func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed",
			"type", string(task.GetType()),
			"id", task.GetID(),
			"duration", task.GetDuration(),
			"error", err)
	}
}
