package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/rss-watch/app/database"
)

// HitMessage renders the subject and plain-text body announcing a new hit.
func HitMessage(title, keyword, link string, at time.Time) (string, string) {
	subject := fmt.Sprintf("RSS match: %s", keyword)

	var body strings.Builder
	fmt.Fprintf(&body, "Title: %s\n", title)
	fmt.Fprintf(&body, "Keyword: %s\n", keyword)
	fmt.Fprintf(&body, "Link: %s\n", link)
	fmt.Fprintf(&body, "Date: %s\n", at.In(time.Local).Format(database.TimeLayout))

	return subject, body.String()
}
