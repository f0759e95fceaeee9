package api

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/lysyi3m/rss-watch/app/database"
	"github.com/lysyi3m/rss-watch/app/feed"
	"github.com/lysyi3m/rss-watch/app/tasks"
)

func NewHandler(settingsRepo database.SettingsRepository, stateRepo database.StateRepository,
	hitRepo database.HitRepository, activity ActivityLogInterface,
	scheduler tasks.TaskSchedulerInterface, version string) *Handler {
	return &Handler{
		settingsRepo: settingsRepo,
		stateRepo:    stateRepo,
		hitRepo:      hitRepo,
		activity:     activity,
		generator:    feed.NewGenerator(version),
		scheduler:    scheduler,
		version:      version,
	}
}

func (h *Handler) GetStatus(c *gin.Context) {
	settings, err := h.settingsRepo.GetSettings()
	if err != nil {
		slog.Error("Database error", "operation", "get_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	state, err := h.stateRepo.GetState()
	if err != nil {
		slog.Error("Database error", "operation", "get_state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	status := gin.H{
		"settings":       toSettingsResponse(settings),
		"state":          toStateResponse(state),
		"check_interval": h.scheduler.Interval().String(),
	}

	if next := h.scheduler.NextRun(); !next.IsZero() {
		status["next_check"] = next.In(time.Local).Format(time.RFC3339)
	}

	if hitCount, err := h.hitRepo.GetHitCount(); err == nil {
		status["hits"] = hitCount
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) StartWatcher(c *gin.Context) {
	if err := h.stateRepo.SetRunning(true); err != nil {
		slog.Error("Database error", "operation", "set_running", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	h.record("Watcher started.")

	if err := h.scheduler.RunNow(); err != nil && !errors.Is(err, tasks.ErrCheckPending) {
		slog.Warn("Failed to enqueue check after start", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Watcher started", "running": true})
}

func (h *Handler) StopWatcher(c *gin.Context) {
	if err := h.stateRepo.SetRunning(false); err != nil {
		slog.Error("Database error", "operation", "set_running", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	h.record("Watcher stopped.")

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Watcher stopped", "running": false})
}

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.settingsRepo.GetSettings()
	if err != nil {
		slog.Error("Database error", "operation", "get_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, toSettingsResponse(settings))
}

func (h *Handler) SaveSettings(c *gin.Context) {
	var req settingsRequest
	var err error

	if c.ContentType() == binding.MIMEJSON {
		err = c.ShouldBindJSON(&req)
	} else {
		err = bindSettingsForm(c, &req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings", "details": err.Error()})
		return
	}

	settings, err := h.toSettings(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings", "details": err.Error()})
		return
	}

	if err := h.settingsRepo.SaveSettings(settings); err != nil {
		slog.Error("Database error", "operation", "save_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	h.scheduler.Reschedule()
	h.record("Settings saved.")

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Settings saved",
		"settings": toSettingsResponse(&settings),
	})
}

func (h *Handler) CheckNow(c *gin.Context) {
	err := h.scheduler.RunNow()
	if errors.Is(err, tasks.ErrCheckPending) {
		c.JSON(http.StatusConflict, gin.H{"error": "Check already pending"})
		return
	}
	if err != nil {
		slog.Error("Error enqueueing check task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue check task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "Check enqueued"})
}

func (h *Handler) GetHistory(c *gin.Context) {
	limit := database.MaxHitHistory
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, database.MaxHitHistory)
	}

	hits, err := h.hitRepo.GetRecentHits(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_hits", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	rows := make([]hitResponse, 0, len(hits))
	for _, hit := range hits {
		rows = append(rows, hitResponse{
			ID:             hit.ID,
			Timestamp:      hit.Timestamp.In(time.Local).Format(database.TimeLayout),
			Title:          hit.Title,
			Link:           hit.Link,
			MatchedKeyword: hit.MatchedKeyword,
		})
	}

	c.JSON(http.StatusOK, gin.H{"hits": rows, "total": len(rows)})
}

func (h *Handler) GetHistoryFeed(c *gin.Context) {
	settings, err := h.settingsRepo.GetSettings()
	if err != nil {
		slog.Error("Database error", "operation", "get_settings", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if settings == nil {
		settings = &database.Settings{}
	}

	hits, err := h.hitRepo.GetRecentHits(database.MaxHitHistory)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_hits", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	selfLink := fmt.Sprintf("%s://%s%s", scheme, c.Request.Host, c.Request.URL.Path)

	rss, err := h.generator.Run(*settings, hits, selfLink)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(hits)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetLogs(c *gin.Context) {
	lines := 0
	if raw := c.Query("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lines must be a positive integer"})
			return
		}
		lines = n
	}

	tail, ok, err := h.activity.Tail(lines)
	if err != nil {
		slog.Error("Error reading activity log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read activity log"})
		return
	}

	text := "(no log yet)"
	if ok {
		text = strings.Join(tail, "\n")
	}

	c.JSON(http.StatusOK, gin.H{"text": text, "lines": len(tail)})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if state, err := h.stateRepo.GetState(); err != nil {
		health["status"] = "degraded"
		health["error"] = "database unavailable"
	} else if state != nil {
		health["running"] = state.Running
	}

	if hitCount, err := h.hitRepo.GetHitCount(); err == nil {
		health["hits"] = hitCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) record(msg string) {
	if err := h.activity.Write(msg); err != nil {
		slog.Error("Failed to write activity log", "message", msg, "error", err)
	}
}

// toSettings validates a request. A redacted password keeps the stored one.
func (h *Handler) toSettings(req settingsRequest) (database.Settings, error) {
	feedURL := strings.TrimSpace(req.FeedURL)
	if feedURL != "" {
		u, err := url.Parse(feedURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return database.Settings{}, fmt.Errorf("feed_url must be an http or https URL")
		}
	}
	if req.CheckInterval < 0 {
		return database.Settings{}, fmt.Errorf("check_interval must be non-negative")
	}
	if req.SMTPPort < 0 || req.SMTPPort > 65535 {
		return database.Settings{}, fmt.Errorf("smtp_port must be between 0 and 65535")
	}

	settings := database.Settings{
		FeedURL:       feedURL,
		Keywords:      []string(req.Keywords),
		CheckInterval: cmp.Or(req.CheckInterval, database.DefaultCheckInterval),
		Enabled:       bool(req.Enabled),
		MailFrom:      strings.TrimSpace(req.EmailFrom),
		MailTo:        strings.TrimSpace(req.EmailTo),
		SMTPServer:    cmp.Or(strings.TrimSpace(req.SMTPServer), database.DefaultSMTPServer),
		SMTPPort:      cmp.Or(req.SMTPPort, database.DefaultSMTPPort),
		SMTPUsername:  strings.TrimSpace(req.SMTPUsername),
		SMTPPassword:  strings.TrimSpace(req.SMTPPassword),
	}

	if settings.SMTPPassword == redactedPassword {
		current, err := h.settingsRepo.GetSettings()
		if err != nil {
			return database.Settings{}, fmt.Errorf("failed to load current password: %w", err)
		}
		settings.SMTPPassword = ""
		if current != nil {
			settings.SMTPPassword = current.SMTPPassword
		}
	}

	return settings, nil
}

func bindSettingsForm(c *gin.Context, req *settingsRequest) error {
	var err error

	req.FeedURL = c.PostForm("feed_url")
	req.Keywords = keywordList(database.ParseKeywords(strings.Join(c.PostFormArray("keywords"), "\n")))
	req.Enabled = checkbox(parseCheckbox(c.PostForm("enabled")))
	req.EmailFrom = c.PostForm("email_from")
	req.EmailTo = c.PostForm("email_to")
	req.SMTPServer = c.PostForm("smtp_server")
	req.SMTPUsername = c.PostForm("smtp_username")
	req.SMTPPassword = c.PostForm("smtp_password")

	if req.CheckInterval, err = formInt(c, "check_interval"); err != nil {
		return err
	}
	if req.SMTPPort, err = formInt(c, "smtp_port"); err != nil {
		return err
	}

	return nil
}

func formInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.PostForm(key))
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func toSettingsResponse(settings *database.Settings) settingsResponse {
	if settings == nil {
		return settingsResponse{Keywords: []string{}}
	}

	resp := settingsResponse{
		FeedURL:       settings.FeedURL,
		Keywords:      settings.Keywords,
		CheckInterval: settings.CheckInterval,
		Enabled:       settings.Enabled,
		EmailFrom:     settings.MailFrom,
		EmailTo:       settings.MailTo,
		SMTPServer:    settings.SMTPServer,
		SMTPPort:      settings.SMTPPort,
		SMTPUsername:  settings.SMTPUsername,
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	if settings.SMTPPassword != "" {
		resp.SMTPPassword = redactedPassword
	}

	return resp
}

func toStateResponse(state *database.State) stateResponse {
	if state == nil {
		return stateResponse{}
	}

	return stateResponse{
		Running:     state.Running,
		LastChecked: formatTime(state.LastChecked),
		LastHit:     formatTime(state.LastHit),
	}
}
