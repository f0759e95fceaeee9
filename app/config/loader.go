package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/lysyi3m/rss-watch/app/database"
	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the settings file
type Loader struct {
	path string
}

// NewLoader creates a new settings file loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads, defaults and validates the settings file
func (l *Loader) Load() (*database.Settings, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid settings file %s: %w", l.path, err)
	}

	settings := file.ToSettings()
	return &settings, nil
}

// Parse decodes YAML settings, rejecting unknown keys
func Parse(data []byte) (*SettingsFile, error) {
	var file SettingsFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&file)

	if err := validate(&file); err != nil {
		return nil, err
	}

	return &file, nil
}

// setDefaults applies default values and normalizes keywords
func setDefaults(file *SettingsFile) {
	file.FeedURL = strings.TrimSpace(file.FeedURL)

	if file.CheckInterval == 0 {
		file.CheckInterval = database.DefaultCheckInterval
	}
	if file.Mail.Server == "" {
		file.Mail.Server = database.DefaultSMTPServer
	}
	if file.Mail.Port == 0 {
		file.Mail.Port = database.DefaultSMTPPort
	}

	keywords := make([]string, 0, len(file.Keywords))
	for _, keyword := range file.Keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	file.Keywords = keywords
}

// validate validates the settings
func validate(file *SettingsFile) error {
	if file.FeedURL != "" {
		u, err := url.Parse(file.FeedURL)
		if err != nil {
			return fmt.Errorf("invalid feed URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("feed URL must use http or https")
		}
	}

	if file.CheckInterval < 0 {
		return fmt.Errorf("check interval must be non-negative")
	}
	if file.Mail.Port < 0 || file.Mail.Port > 65535 {
		return fmt.Errorf("mail port must be between 0 and 65535")
	}

	for i, keyword := range file.Keywords {
		if strings.ContainsAny(keyword, "\r\n") {
			return fmt.Errorf("keyword at index %d must be a single line", i)
		}
	}

	return nil
}
