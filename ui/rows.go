package ui

import (
	"fmt"
	"time"

	"mavsnark/collector"
	"mavsnark/record"
	"mavsnark/viewport"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func originLabel(o record.Origin) string {
	return fmt.Sprintf("[%3d:%-3d]", o.SystemID, o.ComponentID)
}

func messageStyle(typeColor tcell.Color, has bool) tcell.Style {
	if has {
		return tcell.StyleDefault.Foreground(typeColor)
	}
	return tcell.StyleDefault.Foreground(tcell.ColorWhite)
}

func messageText(typeName, fields string) string {
	if fields == "" {
		return typeName
	}
	return typeName + ": " + fields
}

// liveSegments renders "[sys:comp] age TYPE: fields".
func liveSegments(row collector.LiveRow, now time.Time) []segment {
	age := now.Sub(row.UpdatedAt).Seconds()
	if age < 0 {
		age = 0
	}
	return []segment{
		{text: " " + originLabel(row.Origin), style: tcell.StyleDefault.Foreground(row.Color)},
		{text: fmt.Sprintf(" %6.1fs ", age), style: tcell.StyleDefault.Foreground(uiAgeColor)},
		{text: messageText(row.TypeName, row.Fields), style: messageStyle(row.TypeColor, row.HasTypeColor)},
	}
}

// logSegmentsFormat renders "time [sys:comp] TYPE: fields" with the given
// time layout.
func logSegmentsFormat(layout string) func(collector.LogRow, time.Time) []segment {
	return func(row collector.LogRow, _ time.Time) []segment {
		return []segment{
			{text: " " + row.Timestamp.Format(layout), style: tcell.StyleDefault.Foreground(uiAgeColor)},
			{text: " " + originLabel(row.Origin) + " ", style: tcell.StyleDefault.Foreground(row.Color)},
			{text: messageText(row.TypeName, row.Fields), style: messageStyle(row.TypeColor, row.HasTypeColor)},
		}
	}
}

func followBadge(vp viewport.Viewport) string {
	if vp.AutoFollow() {
		return " " + uiFollowTag + tview.Escape("[AUTO]") + "[-]"
	}
	return ""
}

// liveTitle is " Stream [N types] [AUTO] ".
func liveTitle(p *viewport.Pane[collector.LiveRow]) string {
	counts := tview.Escape(fmt.Sprintf("[%s types]", humanize.Comma(int64(p.Total()))))
	return " Stream " + counts + followBadge(p.Viewport()) + " "
}

// logTitle is " Events [sel/total] [AUTO] ".
func logTitle(p *viewport.Pane[collector.LogRow]) string {
	total := p.Total()
	pos := 0
	if total > 0 {
		vp := p.Viewport()
		pos = vp.Selected() + 1
	}
	counts := tview.Escape(fmt.Sprintf("[%s/%s]", humanize.Comma(int64(pos)), humanize.Comma(int64(total))))
	return " Events " + counts + followBadge(p.Viewport()) + " "
}
