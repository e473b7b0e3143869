package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mavsnark/config"
)

const (
	// stderrStampLayout prefixes console lines on the terminal and every file line.
	stderrStampLayout = "2006/01/02 15:04:05"
	// paneStampLayout is used while the System pane is the console; the pane is
	// a few dozen columns wide and the date never changes within a session.
	paneStampLayout   = "15:04:05"
	logFileDateLayout = "02-Jan-2006"
	maxPendingLog     = 16 * 1024
)

// lineSink receives complete log lines, already stripped of their newline.
type lineSink interface {
	WriteLine(line string, now time.Time)
	Close() error
}

// consoleSink is whatever currently owns the human-facing log stream: stderr
// before and after the inspector, the System pane while it runs. An empty
// layout writes lines bare.
type consoleSink struct {
	w      io.Writer
	layout string
}

func (s *consoleSink) WriteLine(line string, now time.Time) {
	if s == nil || s.w == nil {
		return
	}
	if s.layout != "" {
		line = now.UTC().Format(s.layout) + " " + line
	}
	_, _ = io.WriteString(s.w, line+"\n")
}

func (s *consoleSink) Close() error { return nil }

// logFanout is installed as the log package output for the whole run. It
// reassembles log writes into lines and copies each to the console sink and,
// when file logging is on, to the daily file. The console can be handed to the
// inspector's System pane and reclaimed for stderr without losing the file copy.
type logFanout struct {
	mu      sync.Mutex
	pending []byte
	console lineSink
	file    lineSink
	now     func() time.Time
}

func newLogFanout(console lineSink, file lineSink) *logFanout {
	return &logFanout{console: console, file: file, now: time.Now}
}

// setupLogging returns a fanout writing to console, plus the daily file sink
// when cfg enables it. A file sink that cannot be created is reported but the
// returned fanout still works console-only.
func setupLogging(cfg config.LoggingConfig, console io.Writer) (*logFanout, error) {
	fanout := newLogFanout(&consoleSink{w: console, layout: stderrStampLayout}, nil)
	if !cfg.Enabled {
		return fanout, nil
	}
	files, err := newDayFileSink(cfg.Dir, cfg.RetentionDays)
	if err != nil {
		return fanout, err
	}
	fanout.setFile(files)
	return fanout, nil
}

// handOffToPane routes console lines to the System pane writer with a short
// time prefix. The file sink is unaffected.
func (f *logFanout) handOffToPane(pane io.Writer) {
	f.setConsole(&consoleSink{w: pane, layout: paneStampLayout})
}

// reclaimConsole points console lines back at w (normally stderr) once the
// inspector has released the terminal.
func (f *logFanout) reclaimConsole(w io.Writer) {
	f.setConsole(&consoleSink{w: w, layout: stderrStampLayout})
}

func (f *logFanout) setConsole(sink lineSink) {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.console = sink
	f.mu.Unlock()
}

func (f *logFanout) setFile(sink lineSink) {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.file = sink
	f.mu.Unlock()
}

// HasFileSink reports whether file logging is active.
func (f *logFanout) HasFileSink() bool {
	if f == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file != nil
}

// Write implements io.Writer for log.SetOutput. A partial line is held until
// its newline arrives, or flushed as is once it grows past maxPendingLog.
func (f *logFanout) Write(p []byte) (int, error) {
	if f == nil {
		return len(p), nil
	}
	f.mu.Lock()
	f.pending = append(f.pending, p...)
	lines := f.takeLinesLocked()
	console, file := f.console, f.file
	f.mu.Unlock()

	if len(lines) == 0 {
		return len(p), nil
	}
	now := f.now().UTC()
	for _, line := range lines {
		if console != nil {
			console.WriteLine(line, now)
		}
		if file != nil {
			file.WriteLine(line, now)
		}
	}
	return len(p), nil
}

func (f *logFanout) takeLinesLocked() []string {
	var lines []string
	rest := f.pending
	for {
		head, tail, found := bytes.Cut(rest, []byte{'\n'})
		if !found {
			break
		}
		lines = append(lines, string(bytes.TrimRight(head, "\r")))
		rest = tail
	}
	if len(rest) > maxPendingLog {
		if line := string(bytes.TrimRight(rest, "\r")); line != "" {
			lines = append(lines, line)
		}
		rest = rest[:0]
	}
	f.pending = append(f.pending[:0], rest...)
	return lines
}

// WriteFileOnlyLine writes to the log file without touching the console. The
// periodic stats dump uses it so the System pane is not flooded.
func (f *logFanout) WriteFileOnlyLine(line string, now time.Time) {
	if f == nil {
		return
	}
	f.mu.Lock()
	file := f.file
	f.mu.Unlock()
	if file != nil {
		file.WriteLine(line, now)
	}
}

func (f *logFanout) Close() error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	console, file := f.console, f.file
	f.mu.Unlock()
	if console != nil {
		_ = console.Close()
	}
	if file != nil {
		return file.Close()
	}
	return nil
}

// dayFileSink writes to dir/02-Jan-2006.log, switching files at UTC midnight
// and pruning files older than keepDays each time a new day is opened.
type dayFileSink struct {
	mu        sync.Mutex
	dir       string
	keepDays  int
	day       string
	file      *os.File
	lastError time.Time
}

func newDayFileSink(dir string, keepDays int) (*dayFileSink, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("log directory is empty")
	}
	if keepDays <= 0 {
		keepDays = 7
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %q: %w", dir, err)
	}
	if err := pruneLogs(dir, time.Now().UTC(), keepDays); err != nil {
		fmt.Fprintf(os.Stderr, "Logging: prune failed for %s: %v\n", dir, err)
	}
	return &dayFileSink{dir: dir, keepDays: keepDays}, nil
}

func (s *dayFileSink) WriteLine(line string, now time.Time) {
	if s == nil {
		return
	}
	now = now.UTC()
	day := now.Format(logFileDateLayout)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil || s.day != day {
		s.openDayLocked(day, now)
	}
	if s.file == nil {
		return
	}
	if _, err := s.file.WriteString(now.Format(stderrStampLayout) + " " + line + "\n"); err != nil {
		s.complainLocked(now, fmt.Errorf("write: %w", err))
	}
}

func (s *dayFileSink) openDayLocked(day string, now time.Time) {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	path := filepath.Join(s.dir, logFileNameForDate(now))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.complainLocked(now, fmt.Errorf("open %s: %w", path, err))
		return
	}
	s.file = file
	s.day = day
	if err := pruneLogs(s.dir, now, s.keepDays); err != nil {
		s.complainLocked(now, fmt.Errorf("prune: %w", err))
	}
}

// complainLocked reports file errors on stderr at most once a minute. It
// bypasses the fanout so a broken file cannot loop back into itself.
func (s *dayFileSink) complainLocked(now time.Time, err error) {
	if !s.lastError.IsZero() && now.Sub(s.lastError) < time.Minute {
		return
	}
	s.lastError = now
	fmt.Fprintf(os.Stderr, "Logging: %v\n", err)
}

func (s *dayFileSink) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.day = ""
	return err
}

func logFileNameForDate(now time.Time) string {
	return now.UTC().Format(logFileDateLayout) + ".log"
}

func parseLogFileDate(name string) (time.Time, bool) {
	base, ok := strings.CutSuffix(name, ".log")
	if !ok {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(logFileDateLayout, base, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// pruneLogs deletes dated log files older than keepDays, counting today.
// Anything else in dir is left alone.
func pruneLogs(dir string, now time.Time, keepDays int) error {
	if keepDays <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	y, m, d := now.UTC().Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(keepDays - 1))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if day, ok := parseLogFileDate(entry.Name()); ok && day.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
	return nil
}
