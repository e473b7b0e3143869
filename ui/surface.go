package ui

import "context"

// Surface is a front end that owns the collector and consumes the record
// stream. Run returns when the stream closes, ctx ends, or the user quits.
type Surface interface {
	Run(ctx context.Context) error
}

var (
	_ Surface = (*Inspector)(nil)
	_ Surface = (*Headless)(nil)
)
