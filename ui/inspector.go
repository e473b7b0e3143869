// Package ui renders the collector as an interactive terminal inspector and
// provides the headless console used when no TTY is available.
package ui

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mavsnark/collector"
	"mavsnark/config"
	"mavsnark/record"
	"mavsnark/stats"
	"mavsnark/viewport"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// maxDrainPerFrame bounds the work one frame does so a burst cannot starve
// key handling; the rest stays queued in the channel for the next frame.
const maxDrainPerFrame = 20000

const noticeDuration = 5 * time.Second

// Inspector is the tview front end. Every Collector and Viewport call happens
// on the tview event goroutine: the frame scheduler queues a drain step there,
// key handlers run there, and panes reconcile inside Draw.
type Inspector struct {
	app       *tview.Application
	pages     *tview.Pages
	scheduler *frameScheduler
	metrics   *Metrics

	coll        *collector.Collector
	records     <-chan record.Record
	tracker     *stats.Tracker
	closed      bool
	holdOnClose bool

	livePane  *viewport.Pane[collector.LiveRow]
	eventPane *viewport.Pane[collector.LogRow]
	live      *rowList[collector.LiveRow]
	events    *rowList[collector.LogRow]
	detail    *detailView
	system    *virtualLogView
	status    *tview.TextView

	focus     focusGroup
	lastRows  focusable
	helpShown bool

	notice      string
	noticeUntil time.Time
	now         func() time.Time

	stopped  atomic.Bool
	stopOnce sync.Once
}

// NewInspector wires the panes and the frame scheduler. Call Run to start it.
func NewInspector(cfg config.UIConfig, coll *collector.Collector, records <-chan record.Record, tracker *stats.Tracker) *Inspector {
	app := tview.NewApplication().EnableMouse(cfg.EnableMouse)
	i := &Inspector{
		app:         app,
		pages:       tview.NewPages(),
		metrics:     NewMetrics(),
		coll:        coll,
		records:     records,
		tracker:     tracker,
		holdOnClose: cfg.HoldOnClose,
		now:         time.Now,
	}

	i.livePane = viewport.NewPane(coll.LiveRows)
	i.eventPane = viewport.NewPane(coll.LogRows)
	i.live = newRowList(i.livePane, liveTitle, liveSegments)
	i.events = newRowList(i.eventPane, logTitle, logSegmentsFormat(cfg.TimeFormat))
	i.live.observe = i.metrics.ObserveRender
	i.events.observe = i.metrics.ObserveRender
	i.detail = newDetailView(i.selectedFields)
	i.system = newVirtualLogView(" System ", cfg.SystemLines)
	i.status = tview.NewTextView().SetDynamicColors(true).SetWrap(false)

	i.focus = newFocusGroup(i.live, i.events, i.system)
	i.lastRows = i.live

	panes := tview.NewFlex().
		AddItem(i.live, 0, 1, true).
		AddItem(i.events, 0, 1, false)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(panes, 0, 3, true).
		AddItem(i.detail, 0, 1, false).
		AddItem(i.system, 8, 0, false).
		AddItem(i.status, 1, 0, false).
		AddItem(buildFooter(), 1, 0, false)

	i.pages.AddPage("main", root, true, true)
	i.pages.AddPage("help", buildHelpOverlay(), true, false)
	app.SetRoot(i.pages, true)
	app.SetInputCapture(i.handleKey)
	i.focus.set(app, 0)

	i.scheduler = newFrameScheduler(app, cfg.TargetFPS, 100*time.Millisecond, i.metrics.ObserveFrameDelay)
	i.scheduler.EveryFrame(i.frame)
	return i
}

// Run blocks until the inspector is stopped by a key, Stop, ctx, or the end
// of the record stream.
func (i *Inspector) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, i.Stop)
	defer stop()
	i.scheduler.Start()
	defer i.scheduler.Stop()
	if err := i.app.Run(); err != nil {
		return fmt.Errorf("tview inspector: %w", err)
	}
	return nil
}

// Stop ends Run. Safe to call from any goroutine, more than once.
func (i *Inspector) Stop() {
	i.stopOnce.Do(func() {
		i.stopped.Store(true)
		i.scheduler.Stop()
		i.app.Stop()
	})
}

// Metrics exposes frame and drain counters for the shutdown summary.
func (i *Inspector) Metrics() *Metrics { return i.metrics }

// Notify flashes msg on the status line for a few seconds. Safe from any
// goroutine; notices posted within one frame collapse to the latest.
func (i *Inspector) Notify(msg string) {
	i.scheduler.Schedule("notice", func() {
		i.notice = msg
		i.noticeUntil = i.now().Add(noticeDuration)
	})
}

// AppendSystem adds one line to the System pane. Safe from any goroutine.
func (i *Inspector) AppendSystem(line string) {
	i.system.Append(line)
}

// SystemWriter returns an io.Writer that feeds complete lines to the System
// pane, suitable as a log console sink.
func (i *Inspector) SystemWriter() io.Writer {
	return newPaneWriter(i.AppendSystem)
}

// frame is the per-frame step: drain, then refresh the status line. tview
// draws right after it returns.
func (i *Inspector) frame() {
	i.metrics.Drained(i.drain())
	i.updateStatus()
}

// drain moves queued records into the collector without blocking.
func (i *Inspector) drain() int {
	if i.closed {
		return 0
	}
	n := 0
	for n < maxDrainPerFrame {
		select {
		case rec, ok := <-i.records:
			if !ok {
				i.closed = true
				i.onStreamClosed()
				return n
			}
			i.coll.Ingest(rec)
			n++
		default:
			return n
		}
	}
	return n
}

func (i *Inspector) onStreamClosed() {
	if i.holdOnClose {
		log.Printf("UI: record stream closed; press q to quit")
		return
	}
	log.Printf("UI: record stream closed; exiting")
	i.Stop()
}

func (i *Inspector) updateStatus() {
	var b strings.Builder
	if i.tracker != nil {
		b.WriteString(i.tracker.SummaryLine())
		b.WriteString(" | ")
	}
	fmt.Fprintf(&b, "live %s | log %s", humanize.Comma(int64(i.livePane.Total())), humanize.Comma(int64(i.eventPane.Total())))
	if snap := i.metrics.RenderSnapshot(); snap.N > 0 {
		fmt.Fprintf(&b, " | draw p50 %s p99 %s", snap.P50.Round(time.Microsecond), snap.P99.Round(time.Microsecond))
	}
	if snap := i.metrics.FrameDelaySnapshot(); snap.N > 0 {
		fmt.Fprintf(&b, " | frame p99 %s", snap.P99.Round(time.Microsecond))
	}
	if i.closed {
		b.WriteString(" | [red]stream closed[-]")
	}
	if i.notice != "" && i.now().Before(i.noticeUntil) {
		b.WriteString(" | ")
		b.WriteString(accentText(tview.Escape(i.notice)))
	}
	i.status.SetText(padLines(b.String()))
}

// selectedFields feeds the detail pane from the row pane that last had focus.
func (i *Inspector) selectedFields() (string, []record.Field, bool) {
	if i.lastRows == focusable(i.events) {
		row, ok := i.eventPane.SelectedRow()
		if !ok {
			return "", nil, false
		}
		return fmt.Sprintf("%s %s @ %s", row.TypeName, row.Origin, row.Timestamp.Format("15:04:05.000")), record.ParseFields(row.Fields), true
	}
	row, ok := i.livePane.SelectedRow()
	if !ok {
		return "", nil, false
	}
	return fmt.Sprintf("%s %s (%s updates)", row.TypeName, row.Origin, humanize.Comma(int64(row.Updates))), record.ParseFields(row.Fields), true
}

// selectedType is the type name under the cursor in the last focused row pane.
func (i *Inspector) selectedType() (string, bool) {
	if i.lastRows == focusable(i.events) {
		row, ok := i.eventPane.SelectedRow()
		return row.TypeName, ok
	}
	row, ok := i.livePane.SelectedRow()
	return row.TypeName, ok
}

func (i *Inspector) setFocus(delta int) {
	i.focus.cycle(i.app, delta)
	if cur := i.focus.current(); cur == focusable(i.live) || cur == focusable(i.events) {
		i.lastRows = cur
	}
}

func (i *Inspector) toggleSelected() {
	name, ok := i.selectedType()
	if !ok {
		return
	}
	next := i.coll.Toggle(name)
	i.metrics.Toggle()
	log.Printf("Classifier: %s now shown in the %s view", name, next)
	i.Notify(fmt.Sprintf("%s -> %s", name, next))
}

func (i *Inspector) clearViews() {
	i.coll.Clear()
	log.Printf("UI: views cleared")
}

func (i *Inspector) toggleHelp(show bool) {
	i.helpShown = show
	if show {
		i.pages.ShowPage("help")
		i.pages.SendToFront("help")
		return
	}
	i.pages.HidePage("help")
}

func (i *Inspector) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event == nil {
		return nil
	}
	if i.helpShown {
		if event.Key() == tcell.KeyEsc || event.Rune() == '?' || event.Rune() == 'q' {
			i.toggleHelp(false)
		}
		return nil
	}

	switch event.Key() {
	case tcell.KeyCtrlC, tcell.KeyEsc:
		i.Stop()
		return nil
	case tcell.KeyTab, tcell.KeyRight:
		i.setFocus(1)
		return nil
	case tcell.KeyBacktab, tcell.KeyLeft:
		i.setFocus(-1)
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			i.Stop()
			return nil
		case 'l':
			i.setFocus(1)
			return nil
		case 'h':
			i.setFocus(-1)
			return nil
		case 't':
			i.toggleSelected()
			return nil
		case 'c':
			i.clearViews()
			return nil
		case '?':
			i.toggleHelp(true)
			return nil
		}
	}

	if i.focus.handleScroll(event) {
		return nil
	}
	return event
}

func buildFooter() *tview.TextView {
	return tview.NewTextView().SetDynamicColors(true).SetText(
		" " + accentText("Tab/h/l") + " Pane  " + accentText("j/k") + " Move  " + accentText("g/G") + " Top/Bottom  " +
			accentText("t") + " Toggle view  " + accentText("c") + " Clear  " + accentText("?") + " Help  " + accentText("q") + " Quit",
	)
}

func buildHelpOverlay() tview.Primitive {
	help := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	help.SetText(strings.TrimSpace(fmt.Sprintf(`
KEYBOARD HELP

PANES
  %[1]sTab%[2]s / %[1]sl%[2]s / Right   Next pane      %[1]sh%[2]s / Left   Previous pane

MOVEMENT
  %[1]sk%[2]s / Up   Up one row        %[1]sj%[2]s / Down   Down one row
  PgUp / PgDn    Page              %[1]sg%[2]s / Home   Top (stops following)
  %[1]sG%[2]s / End    Bottom (follows new rows)

VIEWS
  %[1]st%[2]s   Move the selected row's type to the other view
  %[1]sc%[2]s   Clear both views (view assignments are kept)

  %[1]s?%[2]s Help   %[1]sq%[2]s / Esc / Ctrl+C Quit
`, accentTag, accentReset)))
	help.SetBorder(true).SetTitle("Help")
	help.SetBorderColor(uiBorderColor)
	help.SetTitleColor(uiTitleColor)
	container := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(help, 18, 1, true).
			AddItem(nil, 0, 1, false),
			72, 1, true).
		AddItem(nil, 0, 1, false)
	return container
}
