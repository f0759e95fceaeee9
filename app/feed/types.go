package feed

// Entry is a single feed item as seen by the watcher. Missing fields are
// empty strings.
type Entry struct {
	Title string
	Link  string
}
