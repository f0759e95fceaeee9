package config

import (
	"github.com/lysyi3m/rss-watch/app/database"
)

// ToSettings converts the file form into stored settings
func (f *SettingsFile) ToSettings() database.Settings {
	enabled := true
	if f.Enabled != nil {
		enabled = *f.Enabled
	}

	return database.Settings{
		FeedURL:       f.FeedURL,
		Keywords:      f.Keywords,
		CheckInterval: f.CheckInterval,
		Enabled:       enabled,
		MailFrom:      f.Mail.From,
		MailTo:        f.Mail.To,
		SMTPServer:    f.Mail.Server,
		SMTPPort:      f.Mail.Port,
		SMTPUsername:  f.Mail.Username,
		SMTPPassword:  f.Mail.Password,
	}
}
