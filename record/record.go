// Package record defines the decoded message handed from feeds to the
// collector, plus the display hints derived from it.
//
// A Record is immutable once built. Origin and type colors are pure functions
// of the record's address and type name so every row for the same producer
// renders the same way across redraws and restarts.
package record

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
)

// Origin identifies a logical producer (system id + component id).
// Many message types share one Origin.
type Origin struct {
	SystemID    uint8
	ComponentID uint8
}

func (o Origin) String() string {
	return fmt.Sprintf("%d:%d", o.SystemID, o.ComponentID)
}

// Record is one decoded message.
type Record struct {
	Origin    Origin
	TypeName  string
	Fields    string
	Timestamp time.Time

	// Color paints the origin; TypeColor (when HasTypeColor) paints the message.
	Color        tcell.Color
	TypeColor    tcell.Color
	HasTypeColor bool
}

// New builds a Record and fills in its display hints.
func New(origin Origin, typeName, fields string, ts time.Time) Record {
	rec := Record{
		Origin:    origin,
		TypeName:  typeName,
		Fields:    fields,
		Timestamp: ts,
		Color:     OriginColor(origin),
	}
	rec.TypeColor, rec.HasTypeColor = TypeColor(typeName)
	return rec
}

var originPalette = []tcell.Color{
	tcell.ColorRed,
	tcell.ColorGreen,
	tcell.ColorYellow,
	tcell.ColorBlue,
	tcell.ColorFuchsia,
	tcell.ColorAqua,
}

// OriginColor picks a stable palette entry for a producer.
func OriginColor(o Origin) tcell.Color {
	idx := (int(o.SystemID)*31 + int(o.ComponentID)) % len(originPalette)
	return originPalette[idx]
}

var typeColors = map[string]tcell.Color{
	"HEARTBEAT":           tcell.ColorFuchsia,
	"MANUAL_CONTROL":      tcell.ColorGreen,
	"ATTITUDE":            tcell.ColorBlue,
	"GLOBAL_POSITION_INT": tcell.ColorBlue,
}

// TypeColor returns the highlight color for a message type, if it has one.
func TypeColor(typeName string) (tcell.Color, bool) {
	c, ok := typeColors[typeName]
	return c, ok
}
