package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/rss-watch/app/activitylog"
	"github.com/lysyi3m/rss-watch/app/database"
	"github.com/lysyi3m/rss-watch/app/feed"
	"github.com/lysyi3m/rss-watch/app/tasks"
)

const redactedPassword = "********"

type ActivityLogInterface interface {
	Write(msg string) error
	Tail(n int) ([]string, bool, error)
}

type GeneratorInterface interface {
	Run(settings database.Settings, hits []database.Hit, selfLink string) (string, error)
}

var (
	_ ActivityLogInterface = (*activitylog.Log)(nil)
	_ GeneratorInterface   = (*feed.Generator)(nil)
)

type Handler struct {
	settingsRepo database.SettingsRepository
	stateRepo    database.StateRepository
	hitRepo      database.HitRepository
	activity     ActivityLogInterface
	generator    GeneratorInterface
	scheduler    tasks.TaskSchedulerInterface
	version      string
}

type settingsResponse struct {
	FeedURL       string   `json:"feed_url"`
	Keywords      []string `json:"keywords"`
	CheckInterval int      `json:"check_interval"`
	Enabled       bool     `json:"enabled"`
	EmailFrom     string   `json:"email_from"`
	EmailTo       string   `json:"email_to"`
	SMTPServer    string   `json:"smtp_server"`
	SMTPPort      int      `json:"smtp_port"`
	SMTPUsername  string   `json:"smtp_username"`
	SMTPPassword  string   `json:"smtp_password"`
}

type stateResponse struct {
	Running     bool    `json:"running"`
	LastChecked *string `json:"last_checked"`
	LastHit     *string `json:"last_hit"`
}

type hitResponse struct {
	ID             int64  `json:"id"`
	Timestamp      string `json:"ts"`
	Title          string `json:"title"`
	Link           string `json:"link"`
	MatchedKeyword string `json:"matched_keyword"`
}

// settingsRequest replaces the stored settings. Absent fields take their
// zero value, so an omitted "enabled" disables the watcher.
type settingsRequest struct {
	FeedURL       string      `json:"feed_url"`
	Keywords      keywordList `json:"keywords"`
	CheckInterval int         `json:"check_interval"`
	Enabled       checkbox    `json:"enabled"`
	EmailFrom     string      `json:"email_from"`
	EmailTo       string      `json:"email_to"`
	SMTPServer    string      `json:"smtp_server"`
	SMTPPort      int         `json:"smtp_port"`
	SMTPUsername  string      `json:"smtp_username"`
	SMTPPassword  string      `json:"smtp_password"`
}

// keywordList accepts a JSON list or a newline separated string.
type keywordList []string

func (k *keywordList) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*k = database.ParseKeywords(raw)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("keywords must be a string or a list of strings")
	}
	*k = database.ParseKeywords(strings.Join(list, "\n"))
	return nil
}

// checkbox accepts a JSON boolean or an HTML checkbox value.
type checkbox bool

func (c *checkbox) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*c = checkbox(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("enabled must be a boolean or \"on\"")
	}
	*c = checkbox(parseCheckbox(s))
	return nil
}

func parseCheckbox(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.In(time.Local).Format(database.TimeLayout)
	return &s
}
