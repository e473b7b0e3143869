package ui

import (
	"bytes"
	"sync"
)

const paneWriterMaxBytes = 64 * 1024

// paneWriter splits writes into lines for a pane. A partial line is held
// until its newline arrives; the holding buffer is capped so a writer that
// never sends a newline cannot grow it without bound.
type paneWriter struct {
	appendLine   func(string)
	mu           sync.Mutex
	buf          []byte
	droppedBytes uint64
}

func newPaneWriter(appendLine func(string)) *paneWriter {
	return &paneWriter{appendLine: appendLine}
}

func (w *paneWriter) Write(p []byte) (int, error) {
	if w == nil || w.appendLine == nil {
		return len(p), nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx == -1 {
			break
		}
		w.appendLine(string(bytes.TrimRight(w.buf[:idx], "\r")))
		w.buf = w.buf[idx+1:]
	}
	if excess := len(w.buf) - paneWriterMaxBytes; excess > 0 {
		w.buf = w.buf[excess:]
		w.droppedBytes += uint64(excess)
	}
	if len(w.buf) == 0 {
		w.buf = nil
	}
	return len(p), nil
}

// DroppedBytes reports how much of an unterminated line was discarded.
func (w *paneWriter) DroppedBytes() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.droppedBytes
}
