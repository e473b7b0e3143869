package stats

import (
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	t := &Tracker{now: clock.Now}
	t.start.Store(clock.Now().UnixNano())
	return t, clock
}

func TestObserveCountsByDimension(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Observe("bench", "1:1", "HEARTBEAT")
	tr.Observe("bench", "1:1", "ATTITUDE")
	tr.Observe("sitl", "2:1", "HEARTBEAT")

	if tr.GetTotal() != 3 {
		t.Fatalf("expected total 3, got %d", tr.GetTotal())
	}
	if got := tr.GetTypeCounts()["HEARTBEAT"]; got != 2 {
		t.Fatalf("expected 2 heartbeats, got %d", got)
	}
	if got := tr.GetOriginCounts()["1:1"]; got != 2 {
		t.Fatalf("expected 2 from 1:1, got %d", got)
	}
	if got := tr.GetFeedCounts()["sitl"]; got != 1 {
		t.Fatalf("expected 1 from sitl, got %d", got)
	}
}

func TestRejectCountsPerFeed(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Reject("bench")
	tr.Reject("bench")
	tr.Reject("")
	if tr.GetRejected() != 2 {
		t.Fatalf("expected 2 rejected, got %d", tr.GetRejected())
	}
	if tr.GetTotal() != 0 {
		t.Fatalf("rejects must not count as records")
	}
	if !strings.Contains(tr.SummaryLine(), "2 rejected") {
		t.Fatalf("expected rejected count in summary, got %q", tr.SummaryLine())
	}
}

func TestRateUsesLastCompleteSecond(t *testing.T) {
	tr, clock := newTestTracker()
	for i := 0; i < 5; i++ {
		tr.Observe("f", "1:1", "HEARTBEAT")
	}
	if got := tr.Rate(); got != 0 {
		t.Fatalf("expected no complete second yet, got %d", got)
	}
	clock.Advance(time.Second)
	if got := tr.Rate(); got != 5 {
		t.Fatalf("expected rate 5, got %d", got)
	}
	tr.Observe("f", "1:1", "HEARTBEAT")
	if got := tr.Rate(); got != 5 {
		t.Fatalf("expected rate to stay 5 within the second, got %d", got)
	}
	clock.Advance(3 * time.Second)
	if got := tr.Rate(); got != 0 {
		t.Fatalf("expected idle rate 0, got %d", got)
	}
}

func TestSnapshotLinesOrdersByCount(t *testing.T) {
	tr, clock := newTestTracker()
	for i := 0; i < 1500; i++ {
		tr.Observe("bench", "1:1", "ATTITUDE")
	}
	tr.Observe("bench", "1:1", "HEARTBEAT")
	clock.Advance(90 * time.Second)

	lines := tr.SnapshotLines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines without rejects, got %v", lines)
	}
	if !strings.HasPrefix(lines[0], "Uptime 1m30s") || !strings.Contains(lines[0], "1,501 msgs") {
		t.Fatalf("unexpected summary line %q", lines[0])
	}
	if lines[2] != "Top types: ATTITUDE=1,500, HEARTBEAT=1" {
		t.Fatalf("unexpected type line %q", lines[2])
	}
}

func TestFormatCountsLimit(t *testing.T) {
	got := formatCounts("X", map[string]uint64{"a": 3, "b": 2, "c": 2, "d": 1}, 2)
	if got != "X: a=3, b=2 (+2 more)" {
		t.Fatalf("unexpected %q", got)
	}
	if got := formatCounts("X", nil, 0); got != "X: (none)" {
		t.Fatalf("unexpected empty %q", got)
	}
}

func TestResetClearsCounters(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Observe("f", "1:1", "HEARTBEAT")
	tr.Reject("f")
	tr.Reset()
	if tr.GetTotal() != 0 || tr.GetRejected() != 0 || len(tr.GetTypeCounts()) != 0 {
		t.Fatalf("expected empty tracker after reset")
	}
}

func TestConcurrentObserve(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				tr.Observe("f", "1:1", "HEARTBEAT")
			}
		}()
	}
	wg.Wait()
	if got := tr.GetTypeCounts()["HEARTBEAT"]; got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
}
