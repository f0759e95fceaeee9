package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-watch/app/activitylog"
	"github.com/lysyi3m/rss-watch/app/api"
	"github.com/lysyi3m/rss-watch/app/cfg"
	"github.com/lysyi3m/rss-watch/app/config"
	"github.com/lysyi3m/rss-watch/app/database"
	"github.com/lysyi3m/rss-watch/app/feed"
	"github.com/lysyi3m/rss-watch/app/notify"
	"github.com/lysyi3m/rss-watch/app/tasks"
	"github.com/lysyi3m/rss-watch/app/watcher"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting RSS Watch", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	settingsRepo := database.NewSettingsRepository(db)
	stateRepo := database.NewStateRepository(db)
	hitRepo := database.NewHitRepository(db)

	activity := activitylog.New(appCfg.LogPath)

	httpClient := &http.Client{}
	fetcher := feed.NewFetcher(httpClient, feed.NewParser(), appCfg.UserAgent, appCfg.FetchTimeout)
	mailer := notify.NewMailer(appCfg.MailTimeout)

	feedWatcher := watcher.New(settingsRepo, stateRepo, hitRepo, fetcher, mailer, activity)

	scheduler := tasks.NewScheduler(feedWatcher, settingsRepo, appCfg.MinInterval)

	if appCfg.SettingsFile != "" {
		settings, err := config.NewLoader(appCfg.SettingsFile).Load()
		if err != nil {
			slog.Error("Failed to load settings file", "path", appCfg.SettingsFile, "error", err)
			os.Exit(1)
		}
		if err := scheduler.EnqueueTask(tasks.NewSyncSettingsTask(*settings, settingsRepo)); err != nil {
			slog.Error("Failed to enqueue SyncSettingsTask", "error", err)
			os.Exit(1)
		}
		slog.Info("Settings file loaded", "path", appCfg.SettingsFile, "keywords", len(settings.Keywords))
	}

	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(settingsRepo, stateRepo, hitRepo, activity, scheduler, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "auth", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("RSS Watch shutdown complete")
}
