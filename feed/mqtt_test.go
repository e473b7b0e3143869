package feed

import (
	"context"
	"testing"
	"time"

	"mavsnark/record"
)

type testMessage struct {
	payload []byte
}

func (m testMessage) Duplicate() bool { return false }
func (m testMessage) Qos() byte       { return 0 }
func (m testMessage) Retained() bool  { return false }
func (m testMessage) Topic() string   { return "mav/1/1" }
func (m testMessage) MessageID() uint16 {
	return 0
}
func (m testMessage) Payload() []byte { return m.payload }
func (m testMessage) Ack()            {}

func TestMessageHandlerCopiesPayload(t *testing.T) {
	f := NewMQTTFeed("broker", "localhost", 1883, "mav/#", "test", nil)
	buf := []byte(`{"sys":1,"comp":1,"type":"HEARTBEAT"}`)
	f.messageHandler(nil, testMessage{payload: buf})
	buf[0] = 'X'

	select {
	case got := <-f.processing:
		if got[0] != '{' {
			t.Fatalf("expected handler to copy payload, got %q", got)
		}
	default:
		t.Fatalf("expected payload queued")
	}
}

func TestMessageHandlerReturnsAfterDone(t *testing.T) {
	f := NewMQTTFeed("broker", "localhost", 1883, "mav/#", "test", nil)
	f.processing = make(chan []byte)
	close(f.done)
	returned := make(chan struct{})
	go func() {
		f.messageHandler(nil, testMessage{payload: []byte("x")})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatalf("handler blocked after feed stopped")
	}
}

func TestHandlePayload(t *testing.T) {
	counter := newCountingCounter()
	f := NewMQTTFeed("broker", "localhost", 1883, "mav/#", "", counter)
	if f.clientID == "" {
		t.Fatalf("expected generated client id")
	}
	out := make(chan record.Record, 4)
	ctx := context.Background()

	payloads := [][]byte{
		[]byte(`{"sys":1,"comp":1,"type":"HEARTBEAT","fields":{"type":"QUADROTOR"}}`),
		[]byte("2:1 MISSION_ACK type: ACCEPTED"),
		[]byte(`{"type":"HEARTBEAT"}`),
		[]byte(""),
	}
	for _, p := range payloads {
		if err := f.handlePayload(ctx, out, p); err != nil {
			t.Fatalf("handlePayload error: %v", err)
		}
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	first := <-out
	if first.Fields != "type: QUADROTOR" {
		t.Fatalf("unexpected fields %q", first.Fields)
	}
	if second := <-out; second.TypeName != "MISSION_ACK" {
		t.Fatalf("unexpected type %s", second.TypeName)
	}
	if counter.rejects("broker") != 1 {
		t.Fatalf("expected 1 reject, got %d", counter.rejects("broker"))
	}
}
