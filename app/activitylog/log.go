package activitylog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	DefaultTailLines = 300
	timeLayout       = "2006-01-02 15:04:05"
)

// Writer is the append-only sink the watcher reports operational events to.
type Writer interface {
	Write(msg string) error
}

var _ Writer = (*Log)(nil)

// Log appends timestamped lines to a text file that the dashboard tails.
type Log struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

func (l *Log) Path() string {
	return l.path
}

// Write appends "[YYYY-MM-DD HH:MM:SS] msg". The file and its directory are
// created on first use.
func (l *Log) Write(msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open activity log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s\n", l.now().In(time.Local).Format(timeLayout), msg)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}

	return nil
}

// Tail returns up to n trailing lines, oldest first. A missing file yields
// no lines and ok=false.
func (l *Log) Tail(n int) ([]string, bool, error) {
	if n <= 0 {
		n = DefaultTailLines
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open activity log: %w", err)
	}
	defer f.Close()

	ring := make([]string, n)
	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring[count%n] = scanner.Text()
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, true, fmt.Errorf("failed to read activity log: %w", err)
	}

	if count <= n {
		return ring[:count], true, nil
	}

	// Oldest line sits at the next write position.
	start := count % n
	return append(ring[start:], ring[:start]...), true, nil
}
