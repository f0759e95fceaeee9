package cfg

import (
	"cmp"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DataDir string `long:"data-dir" env:"DATA_DIR" default:"/data" description:"Directory holding the database and activity log"`
	DBPath  string `long:"db-path" env:"DB_PATH" description:"SQLite database path (defaults to <data-dir>/app.db)"`
	LogPath string `long:"log-path" env:"LOG_PATH" description:"Activity log path (defaults to <data-dir>/log.txt)"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"1235" description:"HTTP dashboard port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key protecting write endpoints (optional)"`
	SettingsFile string `long:"settings-file" env:"SETTINGS_FILE" description:"YAML file applied to the stored settings at startup (optional)"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Feed fetch timeout in seconds"`
	MailTimeout  int    `long:"mail-timeout" env:"MAIL_TIMEOUT" default:"30" description:"Mail delivery timeout in seconds"`
	MinInterval  int    `long:"min-interval" env:"MIN_INTERVAL" default:"10" description:"Lower bound for the check interval in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Watch/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Madrid)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return load(nil)
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validate(&raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Cfg{
		DataDir:      raw.DataDir,
		DBPath:       cmp.Or(raw.DBPath, filepath.Join(raw.DataDir, "app.db")),
		LogPath:      cmp.Or(raw.LogPath, filepath.Join(raw.DataDir, "log.txt")),
		Port:         raw.Port,
		APIAccessKey: raw.APIAccessKey,
		SettingsFile: raw.SettingsFile,
		FetchTimeout: time.Duration(raw.FetchTimeout) * time.Second,
		MailTimeout:  time.Duration(raw.MailTimeout) * time.Second,
		MinInterval:  time.Duration(raw.MinInterval) * time.Second,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(raw *rawCfg) error {
	positiveFields := map[string]int{
		"fetch timeout": raw.FetchTimeout,
		"mail timeout":  raw.MailTimeout,
		"min interval":  raw.MinInterval,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if raw.DataDir == "" && (raw.DBPath == "" || raw.LogPath == "") {
		return fmt.Errorf("data dir is required unless both db path and log path are set")
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
