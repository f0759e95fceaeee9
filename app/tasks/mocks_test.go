package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/lysyi3m/rss-watch/app/database"
	"github.com/lysyi3m/rss-watch/app/watcher"
)

type MockTicker struct {
	mu     sync.Mutex
	calls  int
	result watcher.Result
	err    error
	ticked chan struct{}
}

func NewMockTicker() *MockTicker {
	return &MockTicker{
		result: watcher.Result{Status: watcher.StatusCompleted},
		ticked: make(chan struct{}, 16),
	}
}

func (m *MockTicker) Tick(ctx context.Context) (watcher.Result, error) {
	m.mu.Lock()
	m.calls++
	result, err := m.result, m.err
	m.mu.Unlock()

	select {
	case m.ticked <- struct{}{}:
	default:
	}
	return result, err
}

func (m *MockTicker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type MockSettingsRepository struct {
	mu       sync.Mutex
	settings *database.Settings
	err      error
	saved    []database.Settings
}

func (m *MockSettingsRepository) GetSettings() (*database.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.settings == nil {
		return nil, nil
	}
	settings := *m.settings
	return &settings, nil
}

func (m *MockSettingsRepository) SaveSettings(settings database.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, settings)
	m.settings = &settings
	return nil
}

func (m *MockSettingsRepository) SetInterval(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		m.settings = &database.Settings{}
	}
	m.settings.CheckInterval = seconds
}

// MockTask fails or blocks on demand.
type MockTask struct {
	Task
	err      error
	mu       sync.Mutex
	executed int
	done     chan struct{}
}

func NewMockTask(err error) *MockTask {
	return &MockTask{
		Task: NewTask(TaskTypeSyncSettings),
		err:  err,
		done: make(chan struct{}, 16),
	}
}

func (m *MockTask) Execute(ctx context.Context) error {
	m.mu.Lock()
	m.executed++
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.err
}

func (m *MockTask) Executed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executed
}

var errStore = errors.New("database is locked")
