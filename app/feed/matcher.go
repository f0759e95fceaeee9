package feed

import "strings"

// Match returns the first keyword, in the given order, contained in title.
// Matching is case-sensitive substring containment with no normalization.
func Match(title string, keywords []string) (string, bool) {
	if title == "" {
		return "", false
	}

	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(title, keyword) {
			return keyword, true
		}
	}

	return "", false
}
