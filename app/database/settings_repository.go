package database

import (
	"cmp"
	"database/sql"
	"fmt"
	"strings"
)

var _ SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo handles the singleton settings row
type SettingsRepo struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) GetSettings() (*Settings, error) {
	var (
		feedURL, keywords, mailFrom, mailTo    sql.NullString
		smtpServer, smtpUsername, smtpPassword sql.NullString
		checkInterval, smtpPort, enabled       sql.NullInt64
	)

	err := r.db.QueryRow(`
		SELECT feed_url, keywords, check_interval, email_from, email_to,
		       smtp_server, smtp_port, smtp_username, smtp_password, enabled
		FROM settings
		WHERE id = 1
	`).Scan(
		&feedURL, &keywords, &checkInterval, &mailFrom, &mailTo,
		&smtpServer, &smtpPort, &smtpUsername, &smtpPassword, &enabled,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &Settings{
		FeedURL:       feedURL.String,
		Keywords:      ParseKeywords(keywords.String),
		CheckInterval: cmp.Or(int(checkInterval.Int64), DefaultCheckInterval),
		Enabled:       enabled.Int64 != 0,
		MailFrom:      mailFrom.String,
		MailTo:        mailTo.String,
		SMTPServer:    cmp.Or(smtpServer.String, DefaultSMTPServer),
		SMTPPort:      cmp.Or(int(smtpPort.Int64), DefaultSMTPPort),
		SMTPUsername:  smtpUsername.String,
		SMTPPassword:  smtpPassword.String,
	}, nil
}

func (r *SettingsRepo) SaveSettings(settings Settings) error {
	enabled := 0
	if settings.Enabled {
		enabled = 1
	}

	_, err := r.db.Exec(`
		INSERT INTO settings (
			id, feed_url, keywords, check_interval, email_from, email_to,
			smtp_server, smtp_port, smtp_username, smtp_password, enabled
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			feed_url = excluded.feed_url,
			keywords = excluded.keywords,
			check_interval = excluded.check_interval,
			email_from = excluded.email_from,
			email_to = excluded.email_to,
			smtp_server = excluded.smtp_server,
			smtp_port = excluded.smtp_port,
			smtp_username = excluded.smtp_username,
			smtp_password = excluded.smtp_password,
			enabled = excluded.enabled
	`, strings.TrimSpace(settings.FeedURL), strings.Join(settings.Keywords, "\n"),
		settings.CheckInterval, settings.MailFrom, settings.MailTo,
		settings.SMTPServer, settings.SMTPPort, settings.SMTPUsername,
		settings.SMTPPassword, enabled)

	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

// ParseKeywords splits a multi-line keyword field into trimmed, non-empty
// keywords in their original order. Duplicates are kept.
func ParseKeywords(raw string) []string {
	var keywords []string
	for _, line := range strings.Split(raw, "\n") {
		if keyword := strings.TrimSpace(line); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}
