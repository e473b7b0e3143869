package ui

import (
	"strconv"
	"strings"
	"sync"

	"mavsnark/viewport"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// virtualLogView is a bounded, virtualized view over a ring of text lines,
// used for the System pane. Append may be called from any goroutine (it is
// fed by the log writer); Draw and HandleScroll run on the UI goroutine.
// Scrolling uses the same viewport state machine as the record panes.
type virtualLogView struct {
	*tview.Box

	mu    sync.Mutex
	lines []string
	head  int
	count int
	max   int
	total uint64

	vp        viewport.Viewport
	visible   int
	baseTitle string

	renderRows []string

	cachedOverflowCount int
	cachedOverflowText  string
}

func newVirtualLogView(title string, max int) *virtualLogView {
	if max <= 0 {
		max = 1
	}
	v := &virtualLogView{
		Box:                 tview.NewBox().SetBorder(true),
		lines:               make([]string, max),
		max:                 max,
		vp:                  viewport.New(),
		baseTitle:           title,
		cachedOverflowCount: -1,
	}
	applyFocusBoxStyle(v.Box, title, false)
	return v
}

func (v *virtualLogView) SetFocused(focused bool) {
	if v == nil {
		return
	}
	applyFocusBoxStyle(v.Box, v.baseTitle, focused)
}

func (v *virtualLogView) Append(line string) {
	if v == nil || v.max <= 0 {
		return
	}
	v.mu.Lock()
	if v.count < v.max {
		pos := (v.head + v.count) % v.max
		v.lines[pos] = line
		v.count++
	} else {
		v.lines[v.head] = line
		v.head = (v.head + 1) % v.max
		// The first eviction also inserts the overflow marker row, so the
		// surviving lines keep their row numbers once.
		if int(v.total) > v.max {
			v.vp.DropHead(1)
		}
	}
	v.total++
	v.mu.Unlock()
}

func (v *virtualLogView) Draw(screen tcell.Screen) {
	if v == nil {
		return
	}
	v.Box.DrawForSubclass(screen, v)

	x, y, width, height := v.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	v.mu.Lock()
	rows, selected := v.visibleRowsLocked(height)
	focused := v.HasFocus()
	v.mu.Unlock()

	base := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(v.GetBackgroundColor())
	for i, row := range rows {
		style := base
		if focused && i == selected {
			style = style.Background(uiSelectedColor)
		}
		drawText(screen, x, y+i, width, " "+row, style)
	}
}

// HandleScroll maps navigation keys onto the viewport. Returns false for keys
// it does not own.
func (v *virtualLogView) HandleScroll(event *tcell.EventKey) bool {
	if v == nil || event == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	total := v.rowCountLocked()
	visible := max(v.visible, 1)
	switch event.Key() {
	case tcell.KeyUp:
		v.vp.SelectUp(1)
	case tcell.KeyDown:
		v.vp.SelectDown(1, total, visible)
	case tcell.KeyPgUp:
		v.vp.PageUp(visible)
	case tcell.KeyPgDn:
		v.vp.PageDown(total, visible)
	case tcell.KeyHome:
		v.vp.SelectTop()
	case tcell.KeyEnd:
		v.vp.SelectBottom(total, visible)
	case tcell.KeyRune:
		switch event.Rune() {
		case 'k':
			v.vp.SelectUp(1)
		case 'j':
			v.vp.SelectDown(1, total, visible)
		case 'g':
			v.vp.SelectTop()
		case 'G':
			v.vp.SelectBottom(total, visible)
		default:
			return false
		}
	default:
		return false
	}
	return true
}

func (v *virtualLogView) SnapshotText() string {
	if v == nil {
		return ""
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	rows := make([]string, 0, v.count+1)
	for i := 0; i < v.rowCountLocked(); i++ {
		rows = append(rows, v.rowLocked(i))
	}
	return strings.Join(rows, "\n")
}

// rowCountLocked counts buffered lines plus one leading "... +N more" marker
// once the ring has evicted anything.
func (v *virtualLogView) rowCountLocked() int {
	if int(v.total) > v.count {
		return v.count + 1
	}
	return v.count
}

func (v *virtualLogView) rowLocked(row int) string {
	if overflow := int(v.total) - v.count; overflow > 0 {
		if row == 0 {
			return v.overflowLineLocked(overflow)
		}
		row--
	}
	return v.lines[(v.head+row)%v.max]
}

// visibleRowsLocked reconciles the viewport for this frame and returns the
// window plus the selected row's index within it.
func (v *virtualLogView) visibleRowsLocked(height int) ([]string, int) {
	total := v.rowCountLocked()
	v.visible = height
	v.vp.Clamp(total, height)
	v.vp.Reconcile(total, height)

	start := v.vp.Offset()
	needed := min(height, total-start)
	if needed < 0 {
		needed = 0
	}
	if cap(v.renderRows) < needed {
		v.renderRows = make([]string, needed)
	} else {
		v.renderRows = v.renderRows[:needed]
	}
	for i := 0; i < needed; i++ {
		v.renderRows[i] = v.rowLocked(start + i)
	}
	return v.renderRows, v.vp.Selected() - start
}

func (v *virtualLogView) overflowLineLocked(overflow int) string {
	if overflow == v.cachedOverflowCount {
		return v.cachedOverflowText
	}
	var buf [32]byte
	b := buf[:0]
	b = append(b, '.', '.', '.', ' ', '+')
	b = strconv.AppendInt(b, int64(overflow), 10)
	b = append(b, ' ', 'm', 'o', 'r', 'e')
	v.cachedOverflowCount = overflow
	v.cachedOverflowText = string(b)
	return v.cachedOverflowText
}
