package feed

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"mavsnark/record"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrEmptyLine is returned for blank input lines; callers skip them silently.
var ErrEmptyLine = errors.New("empty line")

// ParseLine decodes one text line of the form
//
//	[RFC3339-time] SYS:COMP TYPE fields...
//
// Fields may be wrapped in braces, as in "HEARTBEAT { type: QUADROTOR }".
// Lines starting with '{' are JSON records and go through DecodeJSON. now is
// the capture time used when the line carries none.
func ParseLine(line string, now time.Time) (record.Record, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return record.Record{}, ErrEmptyLine
	}
	if line[0] == '{' {
		return DecodeJSON([]byte(line), now)
	}

	token, rest := nextToken(line)
	ts := now
	if parsed, err := time.Parse(time.RFC3339Nano, token); err == nil {
		ts = parsed
		token, rest = nextToken(rest)
	}

	origin, err := parseOrigin(token)
	if err != nil {
		return record.Record{}, err
	}

	typeName, rest := nextToken(rest)
	typeName = strings.TrimSuffix(typeName, ":")
	if typeName == "" {
		return record.Record{}, fmt.Errorf("missing message type in %q", line)
	}
	return record.New(origin, typeName, trimBraces(rest), ts), nil
}

func nextToken(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx+1:])
}

func parseOrigin(token string) (record.Origin, error) {
	token = strings.TrimSuffix(strings.TrimPrefix(token, "["), "]")
	sysText, compText, ok := strings.Cut(token, ":")
	if !ok {
		return record.Origin{}, fmt.Errorf("bad origin %q: want SYS:COMP", token)
	}
	sys, err := strconv.ParseUint(sysText, 10, 8)
	if err != nil {
		return record.Origin{}, fmt.Errorf("bad system id %q: %w", sysText, err)
	}
	comp, err := strconv.ParseUint(compText, 10, 8)
	if err != nil {
		return record.Origin{}, fmt.Errorf("bad component id %q: %w", compText, err)
	}
	return record.Origin{SystemID: uint8(sys), ComponentID: uint8(comp)}, nil
}

func trimBraces(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start != 0 || end <= start {
		return s
	}
	return strings.TrimSpace(s[start+1 : end])
}

// jsonRecord is the wire shape of one JSON record.
type jsonRecord struct {
	Sys    *int                `json:"sys"`
	Comp   *int                `json:"comp"`
	Type   string              `json:"type"`
	Fields jsoniter.RawMessage `json:"fields"`
	Time   int64               `json:"t"` // unix milliseconds
}

// DecodeJSON decodes {"sys":1,"comp":1,"type":"HEARTBEAT","fields":...,"t":ms}.
// fields may be a preformatted string or an object, which is flattened to
// "key: value" pairs in sorted key order.
func DecodeJSON(payload []byte, now time.Time) (record.Record, error) {
	var msg jsonRecord
	if err := json.Unmarshal(payload, &msg); err != nil {
		return record.Record{}, fmt.Errorf("decode json record: %w", err)
	}
	if msg.Sys == nil || msg.Comp == nil {
		return record.Record{}, errors.New("json record missing sys/comp")
	}
	if *msg.Sys < 0 || *msg.Sys > 255 || *msg.Comp < 0 || *msg.Comp > 255 {
		return record.Record{}, fmt.Errorf("json record origin %d:%d out of range", *msg.Sys, *msg.Comp)
	}
	typeName := strings.TrimSpace(msg.Type)
	if typeName == "" {
		return record.Record{}, errors.New("json record missing type")
	}
	fields, err := flattenFields(msg.Fields)
	if err != nil {
		return record.Record{}, err
	}
	ts := now
	if msg.Time > 0 {
		ts = time.UnixMilli(msg.Time)
	}
	origin := record.Origin{SystemID: uint8(*msg.Sys), ComponentID: uint8(*msg.Comp)}
	return record.New(origin, typeName, fields, ts), nil
}

func flattenFields(raw jsoniter.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("decode json fields: %w", err)
	}
	switch v := value.(type) {
	case string:
		return trimBraces(strings.TrimSpace(v)), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+formatValue(v[k]))
		}
		return strings.Join(parts, ", "), nil
	default:
		return "", fmt.Errorf("json fields must be string or object, got %T", value)
	}
}

// formatValue renders scalars bare and re-encodes arrays and objects as
// compact JSON.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return "null"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
