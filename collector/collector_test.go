package collector

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"mavsnark/record"
)

func rec(sys, comp uint8, typeName, fields string) record.Record {
	return record.New(record.Origin{SystemID: sys, ComponentID: comp}, typeName, fields, time.Unix(0, 0))
}

func TestHeartbeatUpsertsSingleRow(t *testing.T) {
	c := New(nil)
	c.Ingest(rec(1, 1, "HEARTBEAT", "custom_mode: 0"))
	c.Ingest(rec(1, 1, "HEARTBEAT", "custom_mode: 4"))

	rows := c.LiveRows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 live row, got %d", len(rows))
	}
	if rows[0].Fields != "custom_mode: 4" {
		t.Fatalf("expected latest fields, got %q", rows[0].Fields)
	}
	if rows[0].Updates != 2 {
		t.Fatalf("expected 2 updates, got %d", rows[0].Updates)
	}
	if len(c.LogRows()) != 0 {
		t.Fatalf("expected empty log, got %d rows", len(c.LogRows()))
	}
}

func TestCommandsAppendToLogInOrder(t *testing.T) {
	c := New(nil)
	c.Ingest(rec(1, 1, "COMMAND_LONG", "command: MAV_CMD_COMPONENT_ARM_DISARM"))
	c.Ingest(rec(1, 1, "COMMAND_ACK", "result: MAV_RESULT_ACCEPTED"))

	logRows := c.LogRows()
	if len(logRows) != 2 {
		t.Fatalf("expected 2 log rows, got %d", len(logRows))
	}
	if logRows[0].TypeName != "COMMAND_LONG" || logRows[1].TypeName != "COMMAND_ACK" {
		t.Fatalf("unexpected log order: %s, %s", logRows[0].TypeName, logRows[1].TypeName)
	}
	if len(c.LiveRows()) != 0 {
		t.Fatalf("expected no live rows, got %d", len(c.LiveRows()))
	}
}

func TestLiveRowsKeepFirstSeenOrder(t *testing.T) {
	c := New(nil)
	c.Ingest(rec(1, 1, "HEARTBEAT", "a"))
	c.Ingest(rec(1, 1, "ATTITUDE", "b"))
	c.Ingest(rec(2, 1, "HEARTBEAT", "c"))
	c.Ingest(rec(1, 1, "HEARTBEAT", "d"))
	c.Ingest(rec(1, 1, "ATTITUDE", "e"))

	rows := c.LiveRows()
	want := []struct {
		origin record.Origin
		name   string
		fields string
	}{
		{record.Origin{SystemID: 1, ComponentID: 1}, "HEARTBEAT", "d"},
		{record.Origin{SystemID: 1, ComponentID: 1}, "ATTITUDE", "e"},
		{record.Origin{SystemID: 2, ComponentID: 1}, "HEARTBEAT", "c"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		if rows[i].Origin != w.origin || rows[i].TypeName != w.name || rows[i].Fields != w.fields {
			t.Fatalf("row %d: expected %+v, got %+v", i, w, rows[i])
		}
	}
}

func TestUpsertRefreshesTimestamp(t *testing.T) {
	c := New(nil)
	origin := record.Origin{SystemID: 1, ComponentID: 1}
	c.Ingest(record.New(origin, "VFR_HUD", "alt: 1", time.Unix(10, 0)))
	c.Ingest(record.New(origin, "VFR_HUD", "alt: 2", time.Unix(20, 0)))
	if got := c.LiveRows()[0].UpdatedAt; !got.Equal(time.Unix(20, 0)) {
		t.Fatalf("expected updated timestamp 20, got %v", got)
	}
}

func TestToggleLiveToLogDropsRowsAndRoutesToLog(t *testing.T) {
	c := New(nil)
	c.Ingest(rec(1, 1, "HEARTBEAT", "a"))
	c.Ingest(rec(1, 1, "ATTITUDE", "b"))
	c.Ingest(rec(2, 1, "HEARTBEAT", "c"))

	if got := c.Toggle("HEARTBEAT"); got != DiscreteLog {
		t.Fatalf("expected HEARTBEAT to move to log, got %v", got)
	}
	rows := c.LiveRows()
	if len(rows) != 1 || rows[0].TypeName != "ATTITUDE" {
		t.Fatalf("expected only ATTITUDE to remain, got %+v", rows)
	}
	if len(c.LogRows()) != 0 {
		t.Fatalf("expected toggle not to migrate rows, got %d log rows", len(c.LogRows()))
	}

	c.Ingest(rec(1, 1, "HEARTBEAT", "x"))
	c.Ingest(rec(1, 1, "HEARTBEAT", "y"))
	if len(c.LogRows()) != 2 {
		t.Fatalf("expected 2 log rows after toggle, got %d", len(c.LogRows()))
	}

	// index must still point at the surviving ATTITUDE row
	c.Ingest(rec(1, 1, "ATTITUDE", "z"))
	rows = c.LiveRows()
	if len(rows) != 1 || rows[0].Fields != "z" {
		t.Fatalf("expected ATTITUDE upsert in place, got %+v", rows)
	}
}

func TestToggleLogToLiveDropsLogRowsAndUpsertsFresh(t *testing.T) {
	c := New(nil)
	c.Ingest(rec(1, 1, "COMMAND_LONG", "a"))
	c.Ingest(rec(1, 1, "MISSION_ACK", "b"))
	c.Ingest(rec(1, 1, "COMMAND_LONG", "c"))

	if got := c.Toggle("COMMAND_LONG"); got != LiveState {
		t.Fatalf("expected COMMAND_LONG to move to live, got %v", got)
	}
	logRows := c.LogRows()
	if len(logRows) != 1 || logRows[0].TypeName != "MISSION_ACK" {
		t.Fatalf("expected only MISSION_ACK to remain, got %+v", logRows)
	}

	c.Ingest(rec(1, 1, "COMMAND_LONG", "d"))
	c.Ingest(rec(1, 1, "COMMAND_LONG", "e"))
	live := c.LiveRows()
	if len(live) != 1 || live[0].Fields != "e" || live[0].Updates != 2 {
		t.Fatalf("expected one fresh live row with latest fields, got %+v", live)
	}

	if got := c.Toggle("COMMAND_LONG"); got != DiscreteLog {
		t.Fatalf("expected second toggle to restore log, got %v", got)
	}
	if len(c.LiveRows()) != 0 {
		t.Fatalf("expected live rows dropped on toggle back, got %d", len(c.LiveRows()))
	}
	if cat := c.Classifier().Lookup("COMMAND_LONG"); cat != DiscreteLog {
		t.Fatalf("expected default restored, got %v", cat)
	}
	if len(c.Classifier().Overrides()) != 0 {
		t.Fatalf("expected no overrides after double toggle, got %v", c.Classifier().Overrides())
	}
}

func TestClearKeepsClassifier(t *testing.T) {
	c := New(nil)
	c.Toggle("HEARTBEAT")
	c.Ingest(rec(1, 1, "HEARTBEAT", "a"))
	c.Ingest(rec(1, 1, "ATTITUDE", "b"))
	c.Clear()

	if len(c.LiveRows()) != 0 || len(c.LogRows()) != 0 {
		t.Fatalf("expected empty views after clear")
	}
	c.Ingest(rec(1, 1, "HEARTBEAT", "c"))
	c.Ingest(rec(1, 1, "ATTITUDE", "d"))
	if len(c.LogRows()) != 1 || len(c.LiveRows()) != 1 {
		t.Fatalf("expected toggle to survive clear, live=%d log=%d", len(c.LiveRows()), len(c.LogRows()))
	}
}

func TestUnknownTypeDefaultsToLive(t *testing.T) {
	c := New(nil)
	c.Ingest(rec(9, 9, "VENDOR_SPECIFIC_THING", "x: 1"))
	if len(c.LiveRows()) != 1 {
		t.Fatalf("expected unknown type to land in live table")
	}
}

func TestSeparateCollectorsDoNotShareClassifier(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.Toggle("HEARTBEAT")
	if b.Classifier().Lookup("HEARTBEAT") != LiveState {
		t.Fatalf("expected independent classifiers")
	}
}

// Random ingest/toggle sequences checked against a straightforward model.
func TestCollectorMatchesModel(t *testing.T) {
	types := []string{"HEARTBEAT", "ATTITUDE", "COMMAND_LONG", "MISSION_ACK", "SYS_STATUS"}
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		c := New(nil)
		cats := make(map[string]Category)
		for _, name := range types {
			cats[name] = DefaultCategory(name)
		}
		type key struct {
			origin record.Origin
			name   string
		}
		liveOrder := []key{}
		liveFields := map[key]string{}
		var logModel []string

		for step := 0; step < 200; step++ {
			name := types[rng.Intn(len(types))]
			if rng.Intn(20) == 0 {
				c.Toggle(name)
				cats[name] = cats[name].flip()
				if cats[name] == DiscreteLog {
					kept := liveOrder[:0]
					for _, k := range liveOrder {
						if k.name == name {
							delete(liveFields, k)
							continue
						}
						kept = append(kept, k)
					}
					liveOrder = kept
				} else {
					kept := logModel[:0]
					for _, entry := range logModel {
						if !strings.HasPrefix(entry, name+"|") {
							kept = append(kept, entry)
						}
					}
					logModel = kept
				}
				continue
			}
			origin := record.Origin{SystemID: uint8(rng.Intn(3)), ComponentID: 1}
			fields := fmt.Sprintf("step: %d", step)
			c.Ingest(record.New(origin, name, fields, time.Unix(int64(step), 0)))
			if cats[name] == DiscreteLog {
				logModel = append(logModel, name+"|"+fields)
				continue
			}
			k := key{origin: origin, name: name}
			if _, ok := liveFields[k]; !ok {
				liveOrder = append(liveOrder, k)
			}
			liveFields[k] = fields
		}

		live := c.LiveRows()
		if len(live) != len(liveOrder) {
			t.Fatalf("run %d: expected %d live rows, got %d", run, len(liveOrder), len(live))
		}
		for i, k := range liveOrder {
			if live[i].Origin != k.origin || live[i].TypeName != k.name || live[i].Fields != liveFields[k] {
				t.Fatalf("run %d row %d: expected %+v=%q, got %+v", run, i, k, liveFields[k], live[i])
			}
		}
		logRows := c.LogRows()
		if len(logRows) != len(logModel) {
			t.Fatalf("run %d: expected %d log rows, got %d", run, len(logModel), len(logRows))
		}
		for i, entry := range logModel {
			if got := logRows[i].TypeName + "|" + logRows[i].Fields; got != entry {
				t.Fatalf("run %d log %d: expected %q, got %q", run, i, entry, got)
			}
		}
	}
}

func BenchmarkIngestUpsert(b *testing.B) {
	c := New(nil)
	recs := make([]record.Record, 0, 256)
	for sys := 0; sys < 16; sys++ {
		for _, name := range []string{"HEARTBEAT", "ATTITUDE", "VFR_HUD", "SYS_STATUS", "GPS_RAW_INT", "RC_CHANNELS", "BATTERY_STATUS", "ALTITUDE", "ODOMETRY", "VIBRATION", "RAW_IMU", "SCALED_IMU", "TIMESYNC", "SYSTEM_TIME", "PING", "WIND_COV"} {
			recs = append(recs, rec(uint8(sys), 1, name, "x: 1"))
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Ingest(recs[i%len(recs)])
	}
}
