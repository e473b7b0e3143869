package viewport

// Pane binds one Viewport to one row set. The row accessor is called on every
// operation so the pane always sees the current slice; it must not be cached
// by the caller across mutations of the underlying collection.
type Pane[T any] struct {
	vp       Viewport
	rows     func() []T
	visible  int
	rendered bool
}

// NewPane returns a following pane over rows.
func NewPane[T any](rows func() []T) *Pane[T] {
	return &Pane[T]{vp: New(), rows: rows}
}

// Viewport returns a copy of the current state for display.
func (p *Pane[T]) Viewport() Viewport { return p.vp }

// Total is the current row count.
func (p *Pane[T]) Total() int { return len(p.rows()) }

// Visible is the height used at the last Frame.
func (p *Pane[T]) Visible() int { return p.visible }

// Rendered reports whether Frame has run at least once.
func (p *Pane[T]) Rendered() bool { return p.rendered }

// Frame reconciles the viewport against the current row count at the given
// height and returns the rows in the visible window. Call it once per redraw,
// right before drawing.
func (p *Pane[T]) Frame(visible int) []T {
	if visible < 0 {
		visible = 0
	}
	p.visible = visible
	p.rendered = true
	rows := p.rows()
	p.vp.Clamp(len(rows), visible)
	p.vp.Reconcile(len(rows), visible)
	return window(rows, p.vp.offset, visible)
}

// Window returns the rows currently in view without changing state.
func (p *Pane[T]) Window() []T {
	return window(p.rows(), p.vp.offset, p.visible)
}

// SelectedRow returns the highlighted row, if any.
func (p *Pane[T]) SelectedRow() (T, bool) {
	rows := p.rows()
	var zero T
	if p.vp.selected < 0 || p.vp.selected >= len(rows) {
		return zero, false
	}
	return rows[p.vp.selected], true
}

func (p *Pane[T]) Up()       { p.vp.SelectUp(1) }
func (p *Pane[T]) Down()     { p.vp.SelectDown(1, p.Total(), p.visible) }
func (p *Pane[T]) PageUp()   { p.vp.PageUp(p.visible) }
func (p *Pane[T]) PageDown() { p.vp.PageDown(p.Total(), p.visible) }
func (p *Pane[T]) Top()      { p.vp.SelectTop() }
func (p *Pane[T]) Bottom()   { p.vp.SelectBottom(p.Total(), p.visible) }

func window[T any](rows []T, offset, visible int) []T {
	if offset >= len(rows) || visible <= 0 {
		return nil
	}
	end := min(offset+visible, len(rows))
	return rows[offset:end]
}
