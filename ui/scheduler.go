package ui

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rivo/tview"
)

// frameScheduler paces redraws at a target frame rate. Each tick queues one
// frame on the UI goroutine: every recurring step runs, then any one-shot
// callbacks (coalesced per id, latest wins), then tview draws. A tick that
// arrives while the previous frame is still queued is skipped, so a slow
// screen never builds a backlog.
type frameScheduler struct {
	app          *tview.Application
	mu           sync.Mutex
	steps        []func()
	pending      map[string]func()
	order        []string
	inflight     atomic.Bool
	quit         chan struct{}
	done         chan struct{}
	stopOnce     sync.Once
	started      atomic.Bool
	frameTime    time.Duration
	drainTimeout time.Duration
	observeDelay func(time.Duration)
}

func newFrameScheduler(app *tview.Application, targetFPS int, drainTimeout time.Duration, observeDelay func(time.Duration)) *frameScheduler {
	if targetFPS <= 0 {
		targetFPS = 30
	}
	if drainTimeout <= 0 {
		drainTimeout = 100 * time.Millisecond
	}
	return &frameScheduler{
		app:          app,
		pending:      make(map[string]func()),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		frameTime:    time.Second / time.Duration(targetFPS),
		drainTimeout: drainTimeout,
		observeDelay: observeDelay,
	}
}

// EveryFrame registers fn to run at the start of every frame.
func (f *frameScheduler) EveryFrame(fn func()) {
	f.mu.Lock()
	f.steps = append(f.steps, fn)
	f.mu.Unlock()
}

func (f *frameScheduler) Start() {
	if !f.started.CompareAndSwap(false, true) {
		return
	}
	go f.run()
}

// Stop ends the ticker after one final bounded flush. Safe to call twice.
func (f *frameScheduler) Stop() {
	f.stopOnce.Do(func() { close(f.quit) })
	if !f.started.Load() {
		return
	}
	select {
	case <-f.done:
	case <-time.After(f.drainTimeout):
	}
}

func (f *frameScheduler) Schedule(id string, fn func()) {
	if f == nil {
		return
	}
	f.mu.Lock()
	if _, ok := f.pending[id]; !ok {
		f.order = append(f.order, id)
	}
	f.pending[id] = fn
	f.mu.Unlock()
}

func (f *frameScheduler) run() {
	defer close(f.done)

	ticker := time.NewTicker(f.frameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.flush()
		case <-f.quit:
			f.flush()
			return
		}
	}
}

// flush queues one frame unless one is already waiting for the UI goroutine.
// Without an application the frame runs inline.
func (f *frameScheduler) flush() {
	if !f.inflight.CompareAndSwap(false, true) {
		return
	}
	f.mu.Lock()
	steps := append([]func(){}, f.steps...)
	batch := make([]func(), 0, len(f.order))
	for _, id := range f.order {
		batch = append(batch, f.pending[id])
		delete(f.pending, id)
	}
	f.order = f.order[:0]
	f.mu.Unlock()

	queuedAt := time.Now()
	frame := func() {
		defer f.inflight.Store(false)
		for _, fn := range steps {
			fn()
		}
		for _, fn := range batch {
			fn()
		}
		if f.observeDelay != nil {
			f.observeDelay(time.Since(queuedAt))
		}
	}
	if f.app == nil {
		frame()
		return
	}
	f.app.QueueUpdateDraw(frame)
}
