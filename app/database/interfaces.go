package database

import (
	"time"
)

type SettingsRepository interface {
	// GetSettings returns nil, nil when the settings row is missing.
	GetSettings() (*Settings, error)
	SaveSettings(settings Settings) error
}

type StateRepository interface {
	// GetState returns nil, nil when the state row is missing.
	GetState() (*State, error)
	SetRunning(running bool) error
	SetLastChecked(at time.Time) error
	SetLastHit(at time.Time) error
}

type HitRepository interface {
	AlreadyHit(title string) (bool, error)
	RecordHit(title, link, keyword string, at time.Time) (*Hit, error)

	GetRecentHits(limit int) ([]Hit, error)
	GetHitCount() (int, error)
}
