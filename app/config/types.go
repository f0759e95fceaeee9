package config

// SettingsFile is the YAML form of the watcher settings
type SettingsFile struct {
	FeedURL       string     `yaml:"feed_url"`
	Keywords      []string   `yaml:"keywords"`
	CheckInterval int        `yaml:"check_interval"` // seconds
	Enabled       *bool      `yaml:"enabled"`        // defaults to true
	Mail          MailConfig `yaml:"mail"`
}

// MailConfig contains notification transport settings
type MailConfig struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}
