package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"mavsnark/record"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTFeed subscribes to a topic and decodes each payload as a JSON record
// (or, failing a leading '{', as a text line).
//
// Paho delivers messages on its own goroutine; the handler copies each payload
// onto a bounded queue drained by Run. When the queue is full the handler
// blocks, which pushes back on the broker instead of dropping records.
type MQTTFeed struct {
	name     string
	broker   string
	topic    string
	clientID string
	sink     *sink

	processing chan []byte
	done       chan struct{}
}

// NewMQTTFeed creates a feed for tcp://host:port subscribed to topic.
func NewMQTTFeed(name, host string, port int, topic, clientID string, counter Counter) *MQTTFeed {
	if clientID == "" {
		clientID = fmt.Sprintf("mavsnark-%d", time.Now().Unix())
	}
	return &MQTTFeed{
		name:       name,
		broker:     fmt.Sprintf("tcp://%s:%d", host, port),
		topic:      topic,
		clientID:   clientID,
		sink:       newSink(name, counter),
		processing: make(chan []byte, 1024),
		done:       make(chan struct{}),
	}
}

func (f *MQTTFeed) Name() string { return f.name }

func (f *MQTTFeed) options() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(f.broker)
	opts.SetClientID(f.clientID)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	opts.SetOnConnectHandler(f.onConnect)
	opts.SetConnectionLostHandler(f.onConnectionLost)
	return opts
}

// Run connects, then drains the payload queue until ctx ends.
func (f *MQTTFeed) Run(ctx context.Context, out chan<- record.Record) error {
	client := mqtt.NewClient(f.options())
	log.Printf("Feed %s: connecting to MQTT broker at %s...", f.name, f.broker)
	// With connect-retry enabled the token only completes once connected or
	// on Disconnect, so do not block on it here.
	client.Connect()
	defer func() {
		close(f.done)
		if client.IsConnected() {
			client.Unsubscribe(f.topic)
		}
		client.Disconnect(250)
		log.Printf("Feed %s: MQTT client stopped", f.name)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload := <-f.processing:
			if err := f.handlePayload(ctx, out, payload); err != nil {
				return err
			}
		}
	}
}

func (f *MQTTFeed) onConnect(client mqtt.Client) {
	log.Printf("Feed %s: connected, subscribing to topic: %s", f.name, f.topic)
	token := client.Subscribe(f.topic, 0, f.messageHandler)
	if token.Wait() && token.Error() != nil {
		log.Printf("Feed %s: failed to subscribe: %v", f.name, token.Error())
		return
	}
	log.Printf("Feed %s: subscribed, receiving records...", f.name)
}

func (f *MQTTFeed) onConnectionLost(_ mqtt.Client, err error) {
	log.Printf("Feed %s: connection lost: %v (will reconnect)", f.name, err)
}

// messageHandler runs on the paho goroutine. The payload is copied since paho
// may reuse its buffer.
func (f *MQTTFeed) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	payload := append([]byte(nil), msg.Payload()...)
	select {
	case f.processing <- payload:
	case <-f.done:
	}
}

func (f *MQTTFeed) handlePayload(ctx context.Context, out chan<- record.Record, payload []byte) error {
	rec, err := ParseLine(string(payload), f.sink.now())
	if errors.Is(err, ErrEmptyLine) {
		return nil
	}
	if err != nil {
		f.sink.reject(string(payload), err)
		return nil
	}
	return f.sink.emit(ctx, out, rec)
}
