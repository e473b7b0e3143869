package ui

import (
	"time"

	"mavsnark/viewport"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// rowList renders one viewport.Pane. Only rows in the visible window are
// formatted; the pane reconciles against its own inner height at the start of
// every Draw, so resizing and follow mode need no separate bookkeeping.
type rowList[T any] struct {
	*tview.Box
	pane    *viewport.Pane[T]
	title   func(p *viewport.Pane[T]) string
	format  func(row T, now time.Time) []segment
	now     func() time.Time
	observe func(time.Duration)
	focused bool
}

func newRowList[T any](pane *viewport.Pane[T], title func(*viewport.Pane[T]) string, format func(T, time.Time) []segment) *rowList[T] {
	l := &rowList[T]{
		Box:    tview.NewBox().SetBorder(true),
		pane:   pane,
		title:  title,
		format: format,
		now:    time.Now,
	}
	applyFocusBoxStyle(l.Box, "", false)
	return l
}

func (l *rowList[T]) SetFocused(focused bool) {
	l.focused = focused
}

func (l *rowList[T]) Draw(screen tcell.Screen) {
	started := time.Now()
	_, _, _, height := l.GetInnerRect()
	window := l.pane.Frame(max(height, 0))
	applyFocusBoxStyle(l.Box, l.title(l.pane), l.focused)
	l.Box.DrawForSubclass(screen, l)

	x, y, width, _ := l.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}
	now := l.now()
	vp := l.pane.Viewport()
	base := tcell.StyleDefault.Background(l.GetBackgroundColor())
	for i, row := range window {
		segs := l.format(row, now)
		fill := base
		if vp.Offset()+i == vp.Selected() {
			fill = base.Background(uiSelectedColor)
			if l.focused {
				fill = fill.Bold(true)
			}
			for j := range segs {
				segs[j].style = segs[j].style.Background(uiSelectedColor).Bold(l.focused)
			}
		}
		drawSegments(screen, x, y+i, width, segs, fill)
	}
	l.drawScrollbar(screen, x+width, y, height, vp.Offset(), l.pane.Total())
	if l.observe != nil {
		l.observe(time.Since(started))
	}
}

// drawScrollbar paints a thumb over the right border when the rows overflow
// the window.
func (l *rowList[T]) drawScrollbar(screen tcell.Screen, col, top, height, offset, total int) {
	start, length := scrollThumb(offset, total, height)
	if length == 0 {
		return
	}
	style := tcell.StyleDefault.Background(l.GetBackgroundColor()).Foreground(uiBorderColor)
	if l.focused {
		style = style.Foreground(uiFocusColor)
	}
	for row := start; row < start+length; row++ {
		screen.SetContent(col, top+row, '█', nil, style)
	}
}

// scrollThumb returns the thumb position and size within a track of visible
// cells, or a zero length when everything fits.
func scrollThumb(offset, total, visible int) (start, length int) {
	if visible <= 0 || total <= visible {
		return 0, 0
	}
	length = max(visible*visible/total, 1)
	maxOffset := total - visible
	offset = min(max(offset, 0), maxOffset)
	start = offset * (visible - length) / maxOffset
	return start, length
}

// HandleScroll applies a navigation key to the pane.
func (l *rowList[T]) HandleScroll(event *tcell.EventKey) bool {
	switch event.Key() {
	case tcell.KeyUp:
		l.pane.Up()
	case tcell.KeyDown:
		l.pane.Down()
	case tcell.KeyPgUp:
		l.pane.PageUp()
	case tcell.KeyPgDn:
		l.pane.PageDown()
	case tcell.KeyHome:
		l.pane.Top()
	case tcell.KeyEnd:
		l.pane.Bottom()
	case tcell.KeyRune:
		switch event.Rune() {
		case 'k':
			l.pane.Up()
		case 'j':
			l.pane.Down()
		case 'g':
			l.pane.Top()
		case 'G':
			l.pane.Bottom()
		default:
			return false
		}
	default:
		return false
	}
	return true
}
