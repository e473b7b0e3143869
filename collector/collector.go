// Package collector classifies decoded records into a live state table (one
// row per origin+type, overwritten in place) and a discrete log (one row per
// occurrence, append-only).
//
// A Collector is owned by exactly one goroutine. No method blocks, allocates
// beyond row growth, or fails.
package collector

import (
	"time"

	"mavsnark/record"

	"github.com/gdamore/tcell/v2"
)

// LiveRow is the latest value seen for one (origin, type) key.
type LiveRow struct {
	Origin       record.Origin
	TypeName     string
	Fields       string
	Color        tcell.Color
	TypeColor    tcell.Color
	HasTypeColor bool
	UpdatedAt    time.Time
	// Updates counts ingests folded into this row, including the first.
	Updates uint64
}

// LogRow is one occurrence of a discrete message type.
type LogRow struct {
	Origin       record.Origin
	TypeName     string
	Fields       string
	Color        tcell.Color
	TypeColor    tcell.Color
	HasTypeColor bool
	Timestamp    time.Time
}

type liveKey struct {
	origin   record.Origin
	typeName string
}

// Collector owns both row sets, the live index and the classifier.
type Collector struct {
	classifier *Classifier
	live       []LiveRow
	liveIndex  map[liveKey]int
	log        []LogRow
}

// New builds a collector. A nil classifier gets the default partition.
func New(classifier *Classifier) *Collector {
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &Collector{
		classifier: classifier,
		liveIndex:  make(map[liveKey]int),
	}
}

// Classifier exposes the collector's classifier for read access.
func (c *Collector) Classifier() *Classifier {
	return c.classifier
}

// Ingest routes one record into the live table or the log.
func (c *Collector) Ingest(rec record.Record) {
	if c.classifier.Lookup(rec.TypeName) == DiscreteLog {
		c.log = append(c.log, LogRow{
			Origin:       rec.Origin,
			TypeName:     rec.TypeName,
			Fields:       rec.Fields,
			Color:        rec.Color,
			TypeColor:    rec.TypeColor,
			HasTypeColor: rec.HasTypeColor,
			Timestamp:    rec.Timestamp,
		})
		return
	}

	key := liveKey{origin: rec.Origin, typeName: rec.TypeName}
	if idx, ok := c.liveIndex[key]; ok {
		row := &c.live[idx]
		row.Fields = rec.Fields
		row.Color = rec.Color
		row.TypeColor = rec.TypeColor
		row.HasTypeColor = rec.HasTypeColor
		row.UpdatedAt = rec.Timestamp
		row.Updates++
		return
	}
	c.liveIndex[key] = len(c.live)
	c.live = append(c.live, LiveRow{
		Origin:       rec.Origin,
		TypeName:     rec.TypeName,
		Fields:       rec.Fields,
		Color:        rec.Color,
		TypeColor:    rec.TypeColor,
		HasTypeColor: rec.HasTypeColor,
		UpdatedAt:    rec.Timestamp,
		Updates:      1,
	})
}

// Toggle moves a type to the other view and returns its new category.
// Existing rows of that type are discarded from the view it leaves; they are
// not carried over.
func (c *Collector) Toggle(typeName string) Category {
	next := c.classifier.Toggle(typeName)
	if next == DiscreteLog {
		c.dropLive(typeName)
	} else {
		c.dropLog(typeName)
	}
	return next
}

func (c *Collector) dropLive(typeName string) {
	kept := c.live[:0]
	for _, row := range c.live {
		if row.TypeName != typeName {
			kept = append(kept, row)
		}
	}
	clear(c.live[len(kept):])
	c.live = kept
	c.rebuildIndex()
}

func (c *Collector) dropLog(typeName string) {
	kept := c.log[:0]
	for _, row := range c.log {
		if row.TypeName != typeName {
			kept = append(kept, row)
		}
	}
	clear(c.log[len(kept):])
	c.log = kept
}

func (c *Collector) rebuildIndex() {
	clear(c.liveIndex)
	for i, row := range c.live {
		c.liveIndex[liveKey{origin: row.Origin, typeName: row.TypeName}] = i
	}
}

// LiveRows returns the live table in first-seen order. The slice is borrowed:
// callers must not modify it or hold it across Ingest/Toggle/Clear.
func (c *Collector) LiveRows() []LiveRow {
	return c.live
}

// LogRows returns the discrete log in arrival order. Same borrowing rules as
// LiveRows.
func (c *Collector) LogRows() []LogRow {
	return c.log
}

// Clear empties both views. Classifier assignments survive.
func (c *Collector) Clear() {
	c.live = nil
	c.log = nil
	clear(c.liveIndex)
}
