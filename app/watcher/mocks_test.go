package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/lysyi3m/rss-watch/app/database"
	"github.com/lysyi3m/rss-watch/app/feed"
)

type MockSettingsRepository struct {
	settings *database.Settings
	err      error
}

func (m *MockSettingsRepository) GetSettings() (*database.Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.settings == nil {
		return nil, nil
	}
	copied := *m.settings
	return &copied, nil
}

func (m *MockSettingsRepository) SaveSettings(settings database.Settings) error {
	m.settings = &settings
	return nil
}

type MockStateRepository struct {
	state         database.State
	err           error
	lastHitErr    error
	checkedWrites int
	hitWrites     int
}

func (m *MockStateRepository) GetState() (*database.State, error) {
	if m.err != nil {
		return nil, m.err
	}
	copied := m.state
	return &copied, nil
}

func (m *MockStateRepository) SetRunning(running bool) error {
	m.state.Running = running
	return nil
}

func (m *MockStateRepository) SetLastChecked(at time.Time) error {
	m.checkedWrites++
	m.state.LastChecked = &at
	return nil
}

func (m *MockStateRepository) SetLastHit(at time.Time) error {
	if m.lastHitErr != nil {
		return m.lastHitErr
	}
	m.hitWrites++
	m.state.LastHit = &at
	return nil
}

type MockHitRepository struct {
	hits      []database.Hit
	checkErr  error
	recordErr error
}

func (m *MockHitRepository) AlreadyHit(title string) (bool, error) {
	if m.checkErr != nil {
		return false, m.checkErr
	}
	for _, hit := range m.hits {
		if hit.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockHitRepository) RecordHit(title, link, keyword string, at time.Time) (*database.Hit, error) {
	if m.recordErr != nil {
		return nil, m.recordErr
	}
	hit := database.Hit{
		ID:             int64(len(m.hits) + 1),
		Timestamp:      at,
		Title:          title,
		Link:           link,
		MatchedKeyword: keyword,
	}
	m.hits = append(m.hits, hit)
	return &hit, nil
}

func (m *MockHitRepository) GetRecentHits(limit int) ([]database.Hit, error) {
	return m.hits, nil
}

func (m *MockHitRepository) GetHitCount() (int, error) {
	return len(m.hits), nil
}

type MockFetcher struct {
	entries []feed.Entry
	err     error
	calls   int
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]feed.Entry, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

// MockNotifier records every attempt, including failed ones.
type MockNotifier struct {
	sent    []sentMail
	failAll bool
	onSend  func(subject, body string)
}

func (m *MockNotifier) Send(ctx context.Context, settings database.Settings, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.sent = append(m.sent, sentMail{to: settings.MailTo, subject: subject, body: body})
	if m.onSend != nil {
		m.onSend(subject, body)
	}
	if m.failAll {
		return errors.New("535 authentication failed")
	}
	return nil
}

type MemoryLog struct {
	lines []string
	err   error
}

func (m *MemoryLog) Write(msg string) error {
	if m.err != nil {
		return m.err
	}
	m.lines = append(m.lines, msg)
	return nil
}
