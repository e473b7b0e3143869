package feed

import (
	"fmt"
	"sync"
	"time"
)

// rejectLogger rate-limits "bad input" log lines per feed. The first rejection
// in a window is logged; later ones are counted and reported with the next
// line that gets through.
type rejectLogger struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	entries map[string]rejectLogEntry
}

type rejectLogEntry struct {
	nextEmit   time.Time
	suppressed uint64
}

func newRejectLogger(window time.Duration) *rejectLogger {
	return &rejectLogger{
		window:  window,
		now:     time.Now,
		entries: make(map[string]rejectLogEntry),
	}
}

// Process returns the line to log for a rejection on feed, or false when it
// falls inside the suppression window.
func (r *rejectLogger) Process(feed string, input string, err error) (string, bool) {
	line := fmt.Sprintf("Feed %s: rejected %q: %v", feed, truncate(input, 80), err)
	if r == nil || r.window <= 0 {
		return line, true
	}
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, found := r.entries[feed]
	if found && now.Before(entry.nextEmit) {
		entry.suppressed++
		r.entries[feed] = entry
		return "", false
	}
	if entry.suppressed > 0 {
		line = fmt.Sprintf("%s (suppressed=%d over %s)", line, entry.suppressed, r.window)
	}
	r.entries[feed] = rejectLogEntry{nextEmit: now.Add(r.window)}
	return line, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
