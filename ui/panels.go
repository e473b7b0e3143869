package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// focusable is a pane that takes part in focus cycling and owns its
// navigation keys while focused.
type focusable interface {
	tview.Primitive
	SetFocused(focused bool)
	HandleScroll(event *tcell.EventKey) bool
}

// focusGroup manages focus cycling and scroll dispatch for a set of panes.
type focusGroup struct {
	items []focusable
	index int
}

func newFocusGroup(items ...focusable) focusGroup {
	filtered := make([]focusable, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		filtered = append(filtered, item)
	}
	return focusGroup{items: filtered}
}

func (g *focusGroup) set(app *tview.Application, idx int) {
	if g == nil || len(g.items) == 0 {
		return
	}
	if idx < 0 || idx >= len(g.items) {
		idx = 0
	}
	g.index = idx
	for i, item := range g.items {
		item.SetFocused(i == idx)
	}
	if app != nil {
		app.SetFocus(g.items[idx])
	}
}

func (g *focusGroup) cycle(app *tview.Application, delta int) {
	if g == nil || len(g.items) == 0 {
		return
	}
	next := (g.index + delta) % len(g.items)
	if next < 0 {
		next += len(g.items)
	}
	g.set(app, next)
}

func (g *focusGroup) current() focusable {
	if g == nil || len(g.items) == 0 {
		return nil
	}
	return g.items[g.index]
}

// handleScroll routes a navigation key to the focused pane.
func (g *focusGroup) handleScroll(event *tcell.EventKey) bool {
	item := g.current()
	if item == nil || event == nil {
		return false
	}
	return item.HandleScroll(event)
}
