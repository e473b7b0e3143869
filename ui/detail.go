package ui

import (
	"strings"

	"mavsnark/record"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// detailSource describes the row currently selected in the focused pane.
type detailSource func() (title string, fields []record.Field, ok bool)

// detailView shows the key/value breakdown of the selected row. It is drawn
// after the row panes in the same frame, so it always sees the selection
// those panes just reconciled.
type detailView struct {
	*tview.Box
	source detailSource
}

func newDetailView(source detailSource) *detailView {
	d := &detailView{Box: tview.NewBox().SetBorder(true), source: source}
	applyFocusBoxStyle(d.Box, " Detail ", false)
	return d
}

func (d *detailView) Draw(screen tcell.Screen) {
	title, fields, ok := d.source()
	if ok {
		applyFocusBoxStyle(d.Box, " Detail: "+title+" ", false)
	} else {
		applyFocusBoxStyle(d.Box, " Detail ", false)
	}
	d.Box.DrawForSubclass(screen, d)

	x, y, width, height := d.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}
	keyStyle := tcell.StyleDefault.Foreground(uiTitleColor)
	valueStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	if !ok || len(fields) == 0 {
		msg := " (no fields)"
		if !ok {
			msg = " (nothing selected)"
		}
		drawText(screen, x, y, width, msg, tcell.StyleDefault.Foreground(uiAgeColor))
		return
	}

	keyWidth := 0
	for _, f := range fields {
		keyWidth = max(keyWidth, len(f.Key))
	}
	keyWidth = min(keyWidth, max(width/3, 1))

	// Lay fields out in columns when they do not fit in one.
	cols := 1
	if len(fields) > height {
		cols = (len(fields) + height - 1) / height
	}
	colWidth := width / cols
	for i, f := range fields {
		col, row := i/height, i%height
		if col >= cols || colWidth <= 0 {
			break
		}
		key := f.Key
		if len(key) > keyWidth {
			key = key[:keyWidth]
		}
		pad := keyWidth - len(key)
		segs := []segment{
			{text: " " + key, style: keyStyle},
			{text: strings.Repeat(" ", max(pad, 0)) + " : ", style: valueStyle},
			{text: f.Value, style: valueStyle},
		}
		drawSegments(screen, x+col*colWidth, y+row, colWidth, segs, tcell.StyleDefault)
	}
}
