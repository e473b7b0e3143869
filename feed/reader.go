package feed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mavsnark/record"
)

const maxLineBytes = 64 * 1024

// errLineTooLong marks a line that was cut at maxLineBytes and skipped.
var errLineTooLong = fmt.Errorf("line exceeds %d bytes", maxLineBytes)

// ReaderFeed reads newline-delimited records from an io.Reader (stdin or a
// capture file) and returns at EOF.
type ReaderFeed struct {
	name string
	open func() (io.ReadCloser, error)
	sink *sink
}

// NewReaderFeed reads from r. r is not closed.
func NewReaderFeed(name string, r io.Reader, counter Counter) *ReaderFeed {
	return &ReaderFeed{
		name: name,
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
		sink: newSink(name, counter),
	}
}

// NewFileFeed opens path when run.
func NewFileFeed(name, path string, counter Counter) *ReaderFeed {
	return &ReaderFeed{
		name: name,
		open: func() (io.ReadCloser, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", path, err)
			}
			return f, nil
		},
		sink: newSink(name, counter),
	}
}

func (f *ReaderFeed) Name() string { return f.name }

// Run reads lines until EOF, a read error or ctx cancellation. A line longer
// than maxLineBytes is rejected and skipped through its newline. A blocked
// read on stdin is abandoned, not interrupted, when ctx ends.
func (f *ReaderFeed) Run(ctx context.Context, out chan<- record.Record) error {
	rc, err := f.open()
	if err != nil {
		return err
	}
	defer rc.Close()

	reader := bufio.NewReaderSize(rc, maxLineBytes)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := readLine(reader)
		if errors.Is(err, errLineTooLong) {
			f.sink.reject(text, err)
			continue
		}
		if text != "" || err == nil {
			if lineErr := f.sink.line(ctx, out, text); lineErr != nil {
				return lineErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", f.name, err)
		}
	}
}

// readLine returns the next line without its terminator. When the line
// overflows the reader's buffer the head is returned with errLineTooLong and
// the rest is discarded up to the next newline.
func readLine(r *bufio.Reader) (string, error) {
	chunk, err := r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		head := string(chunk[:80])
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = r.ReadSlice('\n')
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return head, errLineTooLong
	}
	return strings.TrimRight(string(chunk), "\r\n"), err
}
