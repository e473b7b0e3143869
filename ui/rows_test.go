package ui

import (
	"strings"
	"testing"
	"time"

	"mavsnark/collector"
	"mavsnark/record"
	"mavsnark/viewport"
)

func segmentText(segs []segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.text)
	}
	return b.String()
}

func TestLiveSegments(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := collector.LiveRow{
		Origin:    record.Origin{SystemID: 1, ComponentID: 200},
		TypeName:  "ATTITUDE",
		Fields:    "roll: 0.1",
		UpdatedAt: at,
	}
	if got := segmentText(liveSegments(row, at.Add(1500*time.Millisecond))); got != " [  1:200]    1.5s ATTITUDE: roll: 0.1" {
		t.Fatalf("unexpected live row %q", got)
	}
	// Clock skew never shows a negative age.
	if got := segmentText(liveSegments(row, at.Add(-time.Second))); !strings.Contains(got, "0.0s") {
		t.Fatalf("expected zero age, got %q", got)
	}
}

func TestLogSegments(t *testing.T) {
	row := collector.LogRow{
		Origin:    record.Origin{SystemID: 255, ComponentID: 190},
		TypeName:  "COMMAND_ACK",
		Timestamp: time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC),
	}
	if got := segmentText(logSegmentsFormat("15:04:05")(row, time.Time{})); got != " 09:05:07 [255:190] COMMAND_ACK" {
		t.Fatalf("unexpected log row %q", got)
	}
}

func TestTitles(t *testing.T) {
	var live []collector.LiveRow
	livePane := viewport.NewPane(func() []collector.LiveRow { return live })
	live = append(live, collector.LiveRow{TypeName: "A"}, collector.LiveRow{TypeName: "B"})
	livePane.Frame(10)
	if got := liveTitle(livePane); got != " Stream [2 types[] [green][AUTO[][-] " {
		t.Fatalf("unexpected live title %q", got)
	}

	var logs []collector.LogRow
	logPane := viewport.NewPane(func() []collector.LogRow { return logs })
	if got := logTitle(logPane); got != " Events [0/0] [green][AUTO[][-] " {
		t.Fatalf("unexpected empty log title %q", got)
	}
	for n := 0; n < 1200; n++ {
		logs = append(logs, collector.LogRow{})
	}
	logPane.Frame(10)
	logPane.Top()
	if got := logTitle(logPane); got != " Events [1/1,200] " {
		t.Fatalf("unexpected log title %q", got)
	}
}
