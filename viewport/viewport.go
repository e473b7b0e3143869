// Package viewport holds the per-pane scroll/selection state machine.
//
// A Viewport is (offset, selected, autoFollow). Every transition is a pure
// function of the current state, the operation, the row count and the visible
// height; nothing is cached between calls, so panes may be resized freely.
// Auto-follow behaves like tail -f: any manual upward move drops it, reaching
// the last row by movement or SelectBottom re-arms it, and Reconcile keeps a
// following pane pinned to the newest row.
package viewport

// Viewport is the scroll state for one pane. The zero value is a pane at the
// top with follow disabled; New returns one that follows.
type Viewport struct {
	offset     int
	selected   int
	autoFollow bool
}

// New returns a viewport that starts in follow mode.
func New() Viewport {
	return Viewport{autoFollow: true}
}

func (v Viewport) Offset() int      { return v.offset }
func (v Viewport) Selected() int    { return v.selected }
func (v Viewport) AutoFollow() bool { return v.autoFollow }

// SelectUp moves the selection up n rows and leaves follow mode.
func (v *Viewport) SelectUp(n int) {
	v.autoFollow = false
	v.selected = satSub(v.selected, n)
	if v.selected < v.offset {
		v.offset = v.selected
	}
}

// SelectDown moves the selection down n rows. Landing on the last row
// re-enables follow mode.
func (v *Viewport) SelectDown(n, total, visible int) {
	if total <= 0 {
		return
	}
	v.selected = min(satAdd(v.selected, n), total-1)
	if v.selected >= v.offset+visible {
		v.offset = satSub(v.selected, satSub(visible, 1))
	}
	v.autoFollow = v.selected == total-1
}

// SelectTop jumps to the first row and leaves follow mode.
func (v *Viewport) SelectTop() {
	v.autoFollow = false
	v.selected = 0
	v.offset = 0
}

// SelectBottom jumps to the last row and enters follow mode.
func (v *Viewport) SelectBottom(total, visible int) {
	if total <= 0 {
		return
	}
	v.autoFollow = true
	v.selected = total - 1
	v.offset = satSub(total, max(visible, 1))
}

// PageUp is SelectUp by one visible height.
func (v *Viewport) PageUp(visible int) {
	v.SelectUp(visible)
}

// PageDown is SelectDown by one visible height.
func (v *Viewport) PageDown(total, visible int) {
	v.SelectDown(visible, total, visible)
}

// Reconcile runs once per redraw. A following viewport is pinned to the tail;
// a manually positioned one is left exactly where it is.
func (v *Viewport) Reconcile(total, visible int) {
	if !v.autoFollow || total <= 0 {
		return
	}
	v.selected = total - 1
	v.offset = satSub(total, max(visible, 1))
}

// Clamp pulls the selection back inside a row set that shrank (after a
// toggle or clear), lowers the offset when the window would run past the last
// row, and keeps the selection inside a window that got shorter. While rows
// only grow and the height holds, it changes nothing.
func (v *Viewport) Clamp(total, visible int) {
	if total <= 0 {
		v.selected = 0
		v.offset = 0
		return
	}
	if v.selected > total-1 {
		v.selected = total - 1
	}
	v.offset = min(v.offset, satSub(total, max(visible, 1)))
	if v.offset > v.selected {
		v.offset = v.selected
	}
	if visible > 0 && v.selected >= v.offset+visible {
		v.offset = v.selected - visible + 1
	}
}

// DropHead accounts for n rows removed from the front of the row set, so a
// manually positioned selection stays on the same row. Rows that are gone
// pull the selection to the top. A following viewport is left to Reconcile.
func (v *Viewport) DropHead(n int) {
	if v.autoFollow || n <= 0 {
		return
	}
	v.selected = satSub(v.selected, n)
	v.offset = satSub(v.offset, n)
}

func satSub(a, b int) int {
	if b >= a {
		return 0
	}
	return a - b
}

func satAdd(a, b int) int {
	if b < 0 {
		return satSub(a, -b)
	}
	s := a + b
	if s < a {
		return int(^uint(0) >> 1)
	}
	return s
}
