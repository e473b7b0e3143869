package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"mavsnark/collector"
	"mavsnark/config"
	"mavsnark/record"
	"mavsnark/stats"

	"github.com/gdamore/tcell/v2"
)

// Headless is the console front end used without a TTY. It owns the
// collector the same way the inspector does, but instead of panes it prints
// each new log row, each newly seen live key, and periodic stats.
type Headless struct {
	out        io.Writer
	coll       *collector.Collector
	records    <-chan record.Record
	tracker    *stats.Tracker
	color      bool
	interval   time.Duration
	timeFormat string
}

// NewHeadless builds a headless console writing to out. color enables ANSI
// escapes for origin and type colors.
func NewHeadless(cfg config.UIConfig, coll *collector.Collector, records <-chan record.Record, tracker *stats.Tracker, out io.Writer, color bool) *Headless {
	interval := time.Duration(cfg.StatsIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	format := cfg.TimeFormat
	if format == "" {
		format = "15:04:05"
	}
	return &Headless{
		out:        out,
		coll:       coll,
		records:    records,
		tracker:    tracker,
		color:      color,
		interval:   interval,
		timeFormat: format,
	}
}

// Run consumes records until the channel closes or ctx ends, then prints a
// final stats block. Neither ending is an error.
func (h *Headless) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.printStats()
			return nil
		case rec, ok := <-h.records:
			if !ok {
				h.println("Record stream closed")
				h.printStats()
				return nil
			}
			h.ingest(rec)
		case <-ticker.C:
			h.printStats()
		}
	}
}

func (h *Headless) ingest(rec record.Record) {
	liveBefore := len(h.coll.LiveRows())
	logBefore := len(h.coll.LogRows())
	h.coll.Ingest(rec)

	if rows := h.coll.LogRows(); len(rows) > logBefore {
		row := rows[len(rows)-1]
		h.println(h.formatLine(row.Timestamp, "log ", row.Origin, row.Color, row.TypeName, row.TypeColor, row.HasTypeColor, row.Fields))
		return
	}
	if rows := h.coll.LiveRows(); len(rows) > liveBefore {
		row := rows[len(rows)-1]
		h.println(h.formatLine(row.UpdatedAt, "live", row.Origin, row.Color, row.TypeName, row.TypeColor, row.HasTypeColor, row.Fields))
	}
}

func (h *Headless) formatLine(ts time.Time, view string, origin record.Origin, originColor tcell.Color, typeName string, typeColor tcell.Color, hasTypeColor bool, fields string) string {
	var b strings.Builder
	b.WriteString(ts.Format(h.timeFormat))
	b.WriteString(" ")
	b.WriteString(view)
	b.WriteString(" ")
	b.WriteString(colorTag(originColor))
	b.WriteString(originLabel(origin))
	b.WriteString("[-] ")
	if hasTypeColor {
		b.WriteString(colorTag(typeColor))
	}
	b.WriteString(messageText(typeName, fields))
	if hasTypeColor {
		b.WriteString("[-]")
	}
	return b.String()
}

func (h *Headless) printStats() {
	if h.tracker != nil {
		for _, line := range h.tracker.SnapshotLines() {
			h.println(line)
		}
	}
	h.println(fmt.Sprintf("Views: %d live rows, %d log rows", len(h.coll.LiveRows()), len(h.coll.LogRows())))
}

func (h *Headless) println(line string) {
	fmt.Fprintln(h.out, applyANSIMarkup(line, h.color))
}

var colorTags = map[tcell.Color]string{
	tcell.ColorRed:     "[red]",
	tcell.ColorGreen:   "[green]",
	tcell.ColorYellow:  "[yellow]",
	tcell.ColorBlue:    "[blue]",
	tcell.ColorFuchsia: "[magenta]",
	tcell.ColorAqua:    "[cyan]",
}

func colorTag(c tcell.Color) string {
	if tag, ok := colorTags[c]; ok {
		return tag
	}
	return "[white]"
}

// applyANSIMarkup turns the color tags above into ANSI escapes, or strips
// them when color is off.
func applyANSIMarkup(line string, enableColor bool) string {
	if line == "" {
		return line
	}
	if enableColor {
		return ansiColorReplacer.Replace(line)
	}
	return ansiStripReplacer.Replace(line)
}

const resetANSI = "\x1b[0m"

var ansiColorReplacer = strings.NewReplacer(
	"[red]", "\x1b[31m",
	"[green]", "\x1b[32m",
	"[yellow]", "\x1b[33m",
	"[blue]", "\x1b[34m",
	"[magenta]", "\x1b[35m",
	"[cyan]", "\x1b[36m",
	"[white]", "\x1b[37m",
	"[-]", resetANSI,
)

var ansiStripReplacer = strings.NewReplacer(
	"[red]", "",
	"[green]", "",
	"[yellow]", "",
	"[blue]", "",
	"[magenta]", "",
	"[cyan]", "",
	"[white]", "",
	"[-]", "",
)
