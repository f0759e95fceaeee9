package database

import (
	"time"
)

// TimeLayout is the text form of every timestamp column.
const TimeLayout = "2006-01-02 15:04:05"

const (
	DefaultCheckInterval = 600 // seconds
	DefaultSMTPServer    = "smtp.gmail.com"
	DefaultSMTPPort      = 587
)

type Settings struct {
	FeedURL       string
	Keywords      []string // one per line in storage, order preserved
	CheckInterval int      // seconds
	Enabled       bool

	MailFrom     string
	MailTo       string
	SMTPServer   string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

func (s Settings) Interval() time.Duration {
	return time.Duration(s.CheckInterval) * time.Second
}

type State struct {
	LastChecked *time.Time
	LastHit     *time.Time
	Running     bool
}

type Hit struct {
	ID             int64
	Timestamp      time.Time
	Title          string
	Link           string
	MatchedKeyword string
}
