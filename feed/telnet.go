package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"mavsnark/record"

	"github.com/ziutek/telnet"
)

// TelnetFeed reads text records from a telnet or raw TCP line server, such as
// a bridge that prints decoded traffic. It reconnects with exponential
// backoff until ctx ends.
type TelnetFeed struct {
	name  string
	addr  string
	login string
	sink  *sink

	dialTimeout  time.Duration
	idleTimeout  time.Duration
	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewTelnetFeed creates a feed for host:port. login, when set, is sent as the
// first line after connecting.
func NewTelnetFeed(name, host string, port int, login string, counter Counter) *TelnetFeed {
	return &TelnetFeed{
		name:         name,
		addr:         net.JoinHostPort(host, strconv.Itoa(port)),
		login:        strings.TrimSpace(login),
		sink:         newSink(name, counter),
		dialTimeout:  10 * time.Second,
		idleTimeout:  5 * time.Minute,
		initialDelay: 5 * time.Second,
		maxDelay:     60 * time.Second,
	}
}

func (f *TelnetFeed) Name() string { return f.name }

// Run supervises sessions. A session that delivered at least one line resets
// the backoff.
func (f *TelnetFeed) Run(ctx context.Context, out chan<- record.Record) error {
	delay := f.initialDelay
	for {
		log.Printf("Feed %s: connecting to %s...", f.name, f.addr)
		lines, err := f.session(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lines > 0 {
			delay = f.initialDelay
		}
		log.Printf("Feed %s: session ended after %d lines: %v (retry in %s)", f.name, lines, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		delay *= 2
		if delay > f.maxDelay {
			delay = f.maxDelay
		}
	}
}

func (f *TelnetFeed) session(ctx context.Context, out chan<- record.Record) (int, error) {
	conn, err := telnet.DialTimeout("tcp", f.addr, f.dialTimeout)
	if err != nil {
		return 0, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	log.Printf("Feed %s: connection established", f.name)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if f.login != "" {
		if _, err := conn.Write([]byte(f.login + "\r\n")); err != nil {
			return 0, fmt.Errorf("login: %w", err)
		}
	}

	lines := 0
	for {
		if f.idleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(f.idleTimeout))
		}
		text, err := conn.ReadString('\n')
		if text != "" {
			lines++
			if emitErr := f.sink.line(ctx, out, strings.TrimRight(text, "\r\n")); emitErr != nil {
				return lines, emitErr
			}
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) && ctx.Err() != nil {
				return lines, ctx.Err()
			}
			return lines, fmt.Errorf("read: %w", err)
		}
	}
}
