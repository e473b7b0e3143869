package ui

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestVirtualLogViewMaintainsBoundedHistory(t *testing.T) {
	v := newVirtualLogView("System", 3)
	v.Append("one")
	v.Append("two")
	v.Append("three")
	v.Append("four")

	got := v.SnapshotText()
	if got != "... +1 more\ntwo\nthree\nfour" {
		t.Fatalf("unexpected snapshot %q", got)
	}
}

func TestVirtualLogViewFollowsTail(t *testing.T) {
	screen := newTestScreen(t, 30, 5)
	v := newVirtualLogView("System", 50)
	v.SetRect(0, 0, 30, 5)
	for _, line := range []string{"a", "b", "c", "d", "e"} {
		v.Append("line " + line)
	}
	v.Draw(screen)
	// 3 inner rows, following: c d e
	if got := rowText(screen, 1, 30); !strings.Contains(got, "line c") {
		t.Fatalf("expected tail window, first row %q", got)
	}
	if got := rowText(screen, 3, 30); !strings.Contains(got, "line e") {
		t.Fatalf("expected newest line at bottom, got %q", got)
	}
}

func TestVirtualLogViewScrollStopsFollowing(t *testing.T) {
	screen := newTestScreen(t, 30, 5)
	v := newVirtualLogView("System", 8)
	v.SetRect(0, 0, 30, 5)
	for i := 0; i < 10; i++ {
		v.Append("line")
	}
	v.Draw(screen)

	if !v.HandleScroll(tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModNone)) {
		t.Fatalf("expected home key to be handled")
	}
	v.Append("late")
	v.Draw(screen)
	v.mu.Lock()
	offset, follow := v.vp.Offset(), v.vp.AutoFollow()
	v.mu.Unlock()
	if offset != 0 || follow {
		t.Fatalf("expected manual position at top, offset=%d follow=%v", offset, follow)
	}
	if got := rowText(screen, 1, 30); !strings.Contains(got, "... +3 more") {
		t.Fatalf("expected overflow marker on first row, got %q", got)
	}

	if !v.HandleScroll(tcell.NewEventKey(tcell.KeyRune, 'G', tcell.ModNone)) {
		t.Fatalf("expected G to be handled")
	}
	v.Draw(screen)
	if got := rowText(screen, 3, 30); !strings.Contains(got, "late") {
		t.Fatalf("expected bottom after G, got %q", got)
	}
	if v.HandleScroll(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Fatalf("expected unrelated rune to pass through")
	}
}

func TestVirtualLogViewSelectionSurvivesEviction(t *testing.T) {
	screen := newTestScreen(t, 30, 5)
	v := newVirtualLogView("System", 3)
	v.SetRect(0, 0, 30, 5)
	for _, line := range []string{"a", "b", "c"} {
		v.Append(line)
	}
	v.Draw(screen)
	v.HandleScroll(tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModNone))
	v.HandleScroll(tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone))

	selectedLine := func() string {
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.rowLocked(v.vp.Selected())
	}
	if got := selectedLine(); got != "b" {
		t.Fatalf("expected b selected, got %q", got)
	}

	// First eviction swaps a for the overflow marker; later ones shift rows up.
	v.Append("d")
	v.Draw(screen)
	if got := selectedLine(); got != "b" {
		t.Fatalf("expected b to stay selected after the first eviction, got %q", got)
	}
	v.Append("e")
	v.Draw(screen)
	if got := selectedLine(); got != "... +2 more" {
		t.Fatalf("expected selection on the marker once b is evicted, got %q", got)
	}
}

func TestVirtualLogViewFollowIgnoresEviction(t *testing.T) {
	screen := newTestScreen(t, 30, 5)
	v := newVirtualLogView("System", 3)
	v.SetRect(0, 0, 30, 5)
	for _, line := range []string{"a", "b", "c", "d", "e", "f"} {
		v.Append(line)
		v.Draw(screen)
	}
	if got := rowText(screen, 3, 30); !strings.Contains(got, "f") {
		t.Fatalf("expected newest line at the bottom, got %q", got)
	}
}
