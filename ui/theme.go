package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

const (
	accentTag   = "[#ff69b4]"
	accentReset = "[-]"
)

var (
	uiBorderColor   = tcell.ColorGray
	uiFocusColor    = tcell.ColorHotPink
	uiTitleColor    = tcell.ColorHotPink
	uiAgeColor      = tcell.ColorGray
	uiSelectedColor = tcell.ColorDarkSlateGray
	uiFollowTag     = "[green]"
)

func accentText(text string) string {
	if text == "" {
		return ""
	}
	return accentTag + text + accentReset
}

// applyFocusBoxStyle paints a pane border and title for its focus state.
func applyFocusBoxStyle(box *tview.Box, title string, focused bool) {
	if box == nil {
		return
	}
	border := uiBorderColor
	if focused {
		border = uiFocusColor
	}
	box.SetBorderColor(border)
	box.SetTitleColor(uiTitleColor)
	box.SetTitleAlign(tview.AlignLeft)
	box.SetTitle(title)
}

// segment is a run of text drawn in one style.
type segment struct {
	text  string
	style tcell.Style
}

// drawSegments draws segments left to right from x, clipping at width and
// filling the rest of the row with fill.
func drawSegments(screen tcell.Screen, x, y, width int, segs []segment, fill tcell.Style) {
	if width <= 0 {
		return
	}
	col := 0
	for _, seg := range segs {
		for _, r := range seg.text {
			if r == '\n' || r == '\r' || r == '\t' {
				r = ' '
			}
			w := runewidth.RuneWidth(r)
			if w == 0 {
				continue
			}
			if col+w > width {
				return
			}
			screen.SetContent(x+col, y, r, nil, seg.style)
			col += w
		}
	}
	for ; col < width; col++ {
		screen.SetContent(x+col, y, ' ', nil, fill)
	}
}

// drawText draws a single-style line.
func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	drawSegments(screen, x, y, width, []segment{{text: text, style: style}}, style)
}

func padLines(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = " " + line
	}
	return strings.Join(lines, "\n")
}
