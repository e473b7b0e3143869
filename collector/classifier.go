package collector

import "strings"

// Category decides which view a message type lands in.
type Category int

const (
	// LiveState rows are upserted per (origin, type).
	LiveState Category = iota
	// DiscreteLog rows are appended per occurrence.
	DiscreteLog
)

func (c Category) String() string {
	switch c {
	case LiveState:
		return "live"
	case DiscreteLog:
		return "log"
	default:
		return "unknown"
	}
}

func (c Category) flip() Category {
	if c == DiscreteLog {
		return LiveState
	}
	return DiscreteLog
}

// discreteTypes are the one-shot message types: command and mission protocol,
// parameter and safety setters.
var discreteTypes = map[string]struct{}{
	"COMMAND_INT":                  {},
	"COMMAND_LONG":                 {},
	"COMMAND_ACK":                  {},
	"COMMAND_CANCEL":               {},
	"MISSION_ITEM":                 {},
	"MISSION_ITEM_INT":             {},
	"MISSION_REQUEST":              {},
	"MISSION_REQUEST_INT":          {},
	"MISSION_REQUEST_LIST":         {},
	"MISSION_REQUEST_PARTIAL_LIST": {},
	"MISSION_SET_CURRENT":          {},
	"MISSION_WRITE_PARTIAL_LIST":   {},
	"MISSION_COUNT":                {},
	"MISSION_CLEAR_ALL":            {},
	"MISSION_ACK":                  {},
	"SET_MODE":                     {},
	"SET_GPS_GLOBAL_ORIGIN":        {},
	"SET_HOME_POSITION":            {},
	"PARAM_SET":                    {},
	"PARAM_EXT_SET":                {},
	"SAFETY_SET_ALLOWED_AREA":      {},
}

// discretePrefixes catch command-protocol types outside the table above.
var discretePrefixes = []string{"COMMAND_"}

// DefaultCategory is the static placement of a type before any toggle.
// Unknown names fall back to LiveState.
func DefaultCategory(typeName string) Category {
	if _, ok := discreteTypes[typeName]; ok {
		return DiscreteLog
	}
	for _, prefix := range discretePrefixes {
		if strings.HasPrefix(typeName, prefix) {
			return DiscreteLog
		}
	}
	return LiveState
}

// Classifier maps type names to categories. Only explicit assignments are
// stored; everything else resolves through DefaultCategory.
// Not safe for concurrent use; owned by a single Collector.
type Classifier struct {
	overrides map[string]Category
}

// NewClassifier returns a classifier seeded with the default partition.
func NewClassifier() *Classifier {
	return &Classifier{overrides: make(map[string]Category)}
}

// Lookup returns the current category for a type.
func (c *Classifier) Lookup(typeName string) Category {
	if cat, ok := c.overrides[typeName]; ok {
		return cat
	}
	return DefaultCategory(typeName)
}

// Set pins a type to a category. Assigning the default removes the override.
func (c *Classifier) Set(typeName string, cat Category) {
	if cat == DefaultCategory(typeName) {
		delete(c.overrides, typeName)
		return
	}
	c.overrides[typeName] = cat
}

// Toggle flips a type's category and returns the new one.
func (c *Classifier) Toggle(typeName string) Category {
	next := c.Lookup(typeName).flip()
	c.Set(typeName, next)
	return next
}

// Overrides returns a copy of the explicit assignments.
func (c *Classifier) Overrides() map[string]Category {
	out := make(map[string]Category, len(c.overrides))
	for k, v := range c.overrides {
		out[k] = v
	}
	return out
}
