package cfg

import "time"

type Cfg struct {
	// Storage
	DataDir string
	DBPath  string
	LogPath string

	// Application configuration
	Port         string
	APIAccessKey string
	SettingsFile string
	FetchTimeout time.Duration
	MailTimeout  time.Duration
	MinInterval  time.Duration

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
