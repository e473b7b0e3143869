// Package stats tracks per-type, per-origin and per-feed counters for display
// in the inspector status line and periodic headless output.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Tracker tracks record statistics by type, origin and feed.
type Tracker struct {
	// counters live in sync.Map + atomic.Uint64 so per-record increments don't fight over a mutex
	typeCounts     sync.Map // string -> *atomic.Uint64
	originCounts   sync.Map // "sys:comp" -> *atomic.Uint64
	feedCounts     sync.Map // string -> *atomic.Uint64
	rejectedCounts sync.Map // feed name -> *atomic.Uint64
	total          atomic.Uint64
	start          atomic.Int64

	rateMu     sync.Mutex
	rateSecond int64
	rateCur    uint64
	ratePrev   uint64

	now func() time.Time
}

// NewTracker creates a new stats tracker
func NewTracker() *Tracker {
	t := &Tracker{now: time.Now}
	t.start.Store(t.now().UnixNano())
	return t
}

// Observe counts one accepted record from feed.
func (t *Tracker) Observe(feed, origin, typeName string) {
	incrementCounter(&t.typeCounts, typeName)
	incrementCounter(&t.originCounts, origin)
	incrementCounter(&t.feedCounts, feed)
	t.total.Add(1)
	t.tick(1)
}

// Reject counts one input line or payload from feed that did not decode.
func (t *Tracker) Reject(feed string) {
	incrementCounter(&t.rejectedCounts, feed)
}

func (t *Tracker) tick(n uint64) {
	sec := t.now().Unix()
	t.rateMu.Lock()
	switch {
	case sec == t.rateSecond:
		t.rateCur += n
	case sec == t.rateSecond+1:
		t.ratePrev = t.rateCur
		t.rateCur = n
		t.rateSecond = sec
	default:
		t.ratePrev = 0
		t.rateCur = n
		t.rateSecond = sec
	}
	t.rateMu.Unlock()
}

// Rate returns the number of records seen during the last complete second.
func (t *Tracker) Rate() uint64 {
	sec := t.now().Unix()
	t.rateMu.Lock()
	defer t.rateMu.Unlock()
	switch sec {
	case t.rateSecond:
		return t.ratePrev
	case t.rateSecond + 1:
		return t.rateCur
	default:
		return 0
	}
}

// GetTypeCounts returns a copy of per-type counts
func (t *Tracker) GetTypeCounts() map[string]uint64 { return snapshot(&t.typeCounts) }

// GetOriginCounts returns a copy of per-origin counts
func (t *Tracker) GetOriginCounts() map[string]uint64 { return snapshot(&t.originCounts) }

// GetFeedCounts returns a copy of accepted counts per feed
func (t *Tracker) GetFeedCounts() map[string]uint64 { return snapshot(&t.feedCounts) }

// GetRejectedCounts returns a copy of rejected counts per feed
func (t *Tracker) GetRejectedCounts() map[string]uint64 { return snapshot(&t.rejectedCounts) }

// GetTotal returns the number of accepted records.
func (t *Tracker) GetTotal() uint64 {
	return t.total.Load()
}

// GetRejected returns the number of rejected inputs across all feeds.
func (t *Tracker) GetRejected() uint64 {
	var total uint64
	t.rejectedCounts.Range(func(_, value any) bool {
		total += value.(*atomic.Uint64).Load()
		return true
	})
	return total
}

// GetUptime returns how long the tracker has been running
func (t *Tracker) GetUptime() time.Duration {
	return t.now().Sub(time.Unix(0, t.start.Load()))
}

// Reset resets all counters
func (t *Tracker) Reset() {
	for _, m := range []*sync.Map{&t.typeCounts, &t.originCounts, &t.feedCounts, &t.rejectedCounts} {
		m.Range(func(key, _ any) bool {
			m.Delete(key)
			return true
		})
	}
	t.total.Store(0)
	t.rateMu.Lock()
	t.rateCur, t.ratePrev, t.rateSecond = 0, 0, 0
	t.rateMu.Unlock()
	t.start.Store(t.now().UnixNano())
}

// SummaryLine is the one-line form used in the inspector status bar.
func (t *Tracker) SummaryLine() string {
	line := fmt.Sprintf("%s msgs | %s/s | %d types | %d origins",
		humanize.Comma(int64(t.GetTotal())),
		humanize.Comma(int64(t.Rate())),
		len(t.GetTypeCounts()),
		len(t.GetOriginCounts()))
	if rejected := t.GetRejected(); rejected > 0 {
		line += fmt.Sprintf(" | %s rejected", humanize.Comma(int64(rejected)))
	}
	return line
}

// SnapshotLines returns human-readable stats ready for console display.
func (t *Tracker) SnapshotLines() []string {
	lines := make([]string, 0, 4)
	lines = append(lines, fmt.Sprintf("Uptime %s | %s", t.GetUptime().Truncate(time.Second), t.SummaryLine()))
	lines = append(lines, formatCounts("Records by feed", t.GetFeedCounts(), 0))
	lines = append(lines, formatCounts("Top types", t.GetTypeCounts(), 8))
	if rejected := t.GetRejectedCounts(); len(rejected) > 0 {
		lines = append(lines, formatCounts("Rejected by feed", rejected, 0))
	}
	return lines
}

// formatCounts renders counts highest first (ties by key); limit 0 means all.
func formatCounts(label string, counts map[string]uint64, limit int) string {
	if len(counts) == 0 {
		return label + ": (none)"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	more := 0
	if limit > 0 && len(keys) > limit {
		more = len(keys) - limit
		keys = keys[:limit]
	}
	var builder strings.Builder
	builder.WriteString(label)
	builder.WriteString(": ")
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(", ")
		}
		fmt.Fprintf(&builder, "%s=%s", k, humanize.Comma(int64(counts[k])))
	}
	if more > 0 {
		fmt.Fprintf(&builder, " (+%d more)", more)
	}
	return builder.String()
}

func snapshot(m *sync.Map) map[string]uint64 {
	counts := make(map[string]uint64)
	m.Range(func(key, value any) bool {
		counts[key.(string)] = value.(*atomic.Uint64).Load()
		return true
	})
	return counts
}

func incrementCounter(m *sync.Map, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	if value, ok := m.Load(key); ok {
		value.(*atomic.Uint64).Add(1)
		return
	}
	counter := &atomic.Uint64{}
	actual, loaded := m.LoadOrStore(key, counter)
	if loaded {
		actual.(*atomic.Uint64).Add(1)
		return
	}
	counter.Add(1)
}
