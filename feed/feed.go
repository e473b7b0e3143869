// Package feed turns external traffic sources into a single stream of
// record.Record values.
//
// Every source implements Feed. Start runs a set of feeds concurrently and
// closes the shared output channel once all of them have returned, which the
// consumer treats as producer disconnection. Sends block (honoring ctx) so no
// record is ever dropped between a feed and the collector.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"mavsnark/config"
	"mavsnark/record"
)

// Feed is one record source.
type Feed interface {
	Name() string
	// Run produces records until the source is exhausted or ctx is done.
	Run(ctx context.Context, out chan<- record.Record) error
}

// Counter receives per-feed accept/reject counts. stats.Tracker implements it.
type Counter interface {
	Observe(feed, origin, typeName string)
	Reject(feed string)
}

type nopCounter struct{}

func (nopCounter) Observe(string, string, string) {}
func (nopCounter) Reject(string)                  {}

// sink is the shared decode/emit path used by every feed.
type sink struct {
	name    string
	counter Counter
	rejects *rejectLogger
	now     func() time.Time
}

func newSink(name string, counter Counter) *sink {
	if counter == nil {
		counter = nopCounter{}
	}
	return &sink{
		name:    name,
		counter: counter,
		rejects: newRejectLogger(10 * time.Second),
		now:     time.Now,
	}
}

// emit blocks until rec is accepted or ctx ends.
func (s *sink) emit(ctx context.Context, out chan<- record.Record, rec record.Record) error {
	select {
	case out <- rec:
		s.counter.Observe(s.name, rec.Origin.String(), rec.TypeName)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// line decodes one text line and emits it. Decode failures are counted and
// logged, never returned.
func (s *sink) line(ctx context.Context, out chan<- record.Record, text string) error {
	rec, err := ParseLine(text, s.now())
	if errors.Is(err, ErrEmptyLine) {
		return nil
	}
	if err != nil {
		s.reject(text, err)
		return nil
	}
	return s.emit(ctx, out, rec)
}

func (s *sink) reject(input string, err error) {
	s.counter.Reject(s.name)
	if msg, ok := s.rejects.Process(s.name, input, err); ok {
		log.Print(msg)
	}
}

// FromConfig builds the feeds described by cfg. stdin is the reader used for
// the stdin kind.
func FromConfig(cfg []config.FeedConfig, counter Counter, stdin io.Reader) ([]Feed, error) {
	feeds := make([]Feed, 0, len(cfg))
	for _, fc := range cfg {
		switch fc.Kind {
		case config.FeedTelnet:
			feeds = append(feeds, NewTelnetFeed(fc.Name, fc.Host, fc.Port, fc.Login, counter))
		case config.FeedMQTT:
			feeds = append(feeds, NewMQTTFeed(fc.Name, fc.Host, fc.Port, fc.Topic, fc.ClientID, counter))
		case config.FeedFile:
			feeds = append(feeds, NewFileFeed(fc.Name, fc.Path, counter))
		case config.FeedStdin:
			if stdin == nil {
				stdin = os.Stdin
			}
			feeds = append(feeds, NewReaderFeed(fc.Name, stdin, counter))
		default:
			return nil, fmt.Errorf("feed %s: unknown kind %q", fc.Name, fc.Kind)
		}
	}
	return feeds, nil
}

// Start runs every feed in its own goroutine and returns the shared record
// channel. The channel is closed after the last feed returns.
func Start(ctx context.Context, feeds []Feed, capacity int) <-chan record.Record {
	if capacity < 0 {
		capacity = 0
	}
	out := make(chan record.Record, capacity)
	var wg sync.WaitGroup
	for _, f := range feeds {
		wg.Add(1)
		go func(f Feed) {
			defer wg.Done()
			if err := f.Run(ctx, out); err != nil && ctx.Err() == nil {
				log.Printf("Feed %s: stopped: %v", f.Name(), err)
				return
			}
			log.Printf("Feed %s: finished", f.Name())
		}(f)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
