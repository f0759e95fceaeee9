package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-watch/app/database"
)

// SyncSettingsTask writes settings loaded from the settings file into the
// database, replacing whatever the dashboard stored before.
type SyncSettingsTask struct {
	Task
	Settings     database.Settings
	settingsRepo database.SettingsRepository
}

func NewSyncSettingsTask(settings database.Settings, settingsRepo database.SettingsRepository) *SyncSettingsTask {
	return &SyncSettingsTask{
		Task:         NewTask(TaskTypeSyncSettings),
		Settings:     settings,
		settingsRepo: settingsRepo,
	}
}

func (t *SyncSettingsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.settingsRepo.SaveSettings(t.Settings); err != nil {
		slog.Error("Task failed", "type", "SyncSettings", "error", err)
		return fmt.Errorf("failed to sync settings to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncSettings",
		"feed", t.Settings.FeedURL,
		"keywords", len(t.Settings.Keywords),
		"duration", t.GetDuration())

	return nil
}
