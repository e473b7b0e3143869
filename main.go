// Program mavsnark reads MAVLink-style telemetry records from telnet, MQTT,
// file or stdin feeds and shows them in a terminal inspector: a live state
// table keyed by (origin, type) beside an append-only log of discrete
// messages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mavsnark/collector"
	"mavsnark/config"
	"mavsnark/feed"
	"mavsnark/stats"
	"mavsnark/ui"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

const (
	defaultConfigPath = "data/config"
	envConfigPath     = "MAVSNARK_CONFIG_PATH"
	suggestionLimit   = 3
)

// Purpose: Report whether stdout is a TTY for UI gating.
// Key aspects: Uses term.IsTerminal on stdout fd.
// Upstream: run UI selection.
// Downstream: term.IsTerminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Purpose: Load configuration from env/default locations.
// Key aspects: Tries the env override first, then the default dir, then built-in defaults.
// Upstream: run startup.
// Downstream: config.Load and os.IsNotExist.
func loadConfig(envPath string) (*config.Config, string, error) {
	candidates := make([]string, 0, 2)
	if envPath = strings.TrimSpace(envPath); envPath != "" {
		candidates = append(candidates, envPath)
	}
	candidates = append(candidates, defaultConfigPath)

	for _, path := range candidates {
		cfg, err := config.Load(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, path, err
		}
		return cfg, cfg.LoadedFrom, nil
	}
	return config.Default(), "built-in defaults", nil
}

// Purpose: Pick the front end for the configured mode and terminal.
// Key aspects: auto means tview on a TTY; tview without a TTY degrades to headless.
// Upstream: run.
// Downstream: None.
func resolveUIMode(mode string, tty bool) (string, string) {
	switch mode {
	case config.UIModeHeadless:
		return config.UIModeHeadless, ""
	case config.UIModeTview:
		if !tty {
			return config.UIModeHeadless, "UI: tview requires an interactive console; running headless"
		}
		return config.UIModeTview, ""
	default:
		if tty {
			return config.UIModeTview, ""
		}
		return config.UIModeHeadless, ""
	}
}

// Purpose: Build the classifier with config overrides applied.
// Key aspects: Unknown names are accepted; each yields a warning with suggestions.
// Upstream: run.
// Downstream: collector.Classifier.Set and collector.Suggest.
func buildClassifier(cfg config.ClassifierConfig) (*collector.Classifier, []string) {
	classifier := collector.NewClassifier()
	var warnings []string
	apply := func(names []string, cat collector.Category) {
		for _, raw := range names {
			name := config.NormalizeTypeName(raw)
			if name == "" {
				continue
			}
			classifier.Set(name, cat)
			if !collector.IsKnownType(name) {
				warnings = append(warnings, unknownTypeWarning(name, cat))
			}
		}
	}
	apply(cfg.LogTypes, collector.DiscreteLog)
	apply(cfg.LiveTypes, collector.LiveState)
	return classifier, warnings
}

func unknownTypeWarning(name string, cat collector.Category) string {
	msg := fmt.Sprintf("Classifier: %s pinned to %s is not a known message type", name, cat)
	if suggestions := collector.Suggest(name, suggestionLimit); len(suggestions) > 0 {
		msg += "; did you mean " + strings.Join(suggestions, ", ") + "?"
	}
	return msg
}

// Purpose: Mirror tracker snapshots into the log file while the inspector owns the screen.
// Key aspects: File-only so the System pane stays readable; exits with ctx.
// Upstream: run in tview mode.
// Downstream: logFanout.WriteFileOnlyLine.
func startStatsFileLogger(ctx context.Context, fanout *logFanout, tracker *stats.Tracker, interval time.Duration) {
	if !fanout.HasFileSink() || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				for _, line := range tracker.SnapshotLines() {
					fanout.WriteFileOnlyLine("Stats: "+line, now)
				}
			}
		}
	}()
}

func main() {
	if err := run(); err != nil {
		log.Printf("Fatal: %v", err)
		os.Exit(1)
	}
}

// Purpose: Program body; wires configuration, feeds, collector and front end.
// Key aspects: Returns when the front end returns; cancels feeds on the way out.
// Upstream: main.
// Downstream: config, feed.Start, ui.Surface.Run.
func run() error {
	log.SetFlags(0)
	fanout := newLogFanout(&consoleSink{w: os.Stderr, layout: stderrStampLayout}, nil)
	log.SetOutput(fanout)

	cfg, source, err := loadConfig(os.Getenv(envConfigPath))
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", source, err)
	}

	configured, logErr := setupLogging(cfg.Logging, os.Stderr)
	fanout = configured
	log.SetOutput(fanout)
	defer fanout.Close()
	if logErr != nil {
		log.Printf("Logging: file sink disabled: %v", logErr)
	}
	log.Printf("Loaded configuration from %s", source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	classifier, warnings := buildClassifier(cfg.Classifier)
	tracker := stats.NewTracker()
	feeds, err := feed.FromConfig(cfg.Feeds, tracker, os.Stdin)
	if err != nil {
		return fmt.Errorf("building feeds: %w", err)
	}

	tty := isStdoutTTY()
	mode, note := resolveUIMode(cfg.UI.Mode, tty)
	if note != "" {
		log.Print(note)
	}

	records := feed.Start(ctx, feeds, cfg.ChannelCapacity)
	coll := collector.New(classifier)

	var surface ui.Surface
	var inspectorMetrics *ui.Metrics
	switch mode {
	case config.UIModeTview:
		inspector := ui.NewInspector(cfg.UI, coll, records, tracker)
		// The screen belongs to tview now; log lines go to the System pane.
		fanout.handOffToPane(inspector.SystemWriter())
		if len(warnings) > 0 {
			inspector.Notify(fmt.Sprintf("%d classifier override(s) name unknown types; see System", len(warnings)))
		}
		startStatsFileLogger(ctx, fanout, tracker, time.Duration(cfg.UI.StatsIntervalSeconds)*time.Second)
		surface = inspector
		inspectorMetrics = inspector.Metrics()
	default:
		cfg.Print()
		surface = ui.NewHeadless(cfg.UI, coll, records, tracker, os.Stdout, tty)
	}
	for _, w := range warnings {
		log.Print(w)
	}
	for _, f := range feeds {
		log.Printf("Feed %s: starting", f.Name())
	}

	err = surface.Run(ctx)
	stop()
	fanout.reclaimConsole(os.Stderr)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("Shutting down: %s records, %s rejected", humanize.Comma(int64(tracker.GetTotal())), humanize.Comma(int64(tracker.GetRejected())))
	if inspectorMetrics != nil {
		log.Print(frameSummary(inspectorMetrics))
	}
	return nil
}

func frameSummary(m *ui.Metrics) string {
	delay := m.FrameDelaySnapshot()
	return fmt.Sprintf("UI: %s frames, %s records drained, %s toggles, frame delay p99 %s",
		humanize.Comma(int64(m.Frames())), humanize.Comma(int64(m.DrainedTotal())),
		humanize.Comma(int64(m.Toggles())), delay.P99.Round(time.Microsecond))
}
