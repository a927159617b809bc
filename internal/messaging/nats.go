package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"Postboard/internal/core/posts"
)

var _ posts.EventPublisher = (*NATSPublisher)(nil)

// NATSPublisher publishes post events on subjects named after the event type
// (post.created, post.liked, ...)
type NATSPublisher struct {
	conn *nats.Conn
}

// Connect dials the NATS server, retrying while it comes up
func Connect(url string, attempts int, wait time.Duration) (*nats.Conn, error) {
	if attempts < 1 {
		attempts = 1
	}

	var conn *nats.Conn
	var err error
	for i := 0; i < attempts; i++ {
		conn, err = nats.Connect(url,
			nats.Name("postboard"),
			nats.MaxReconnects(-1),
		)
		if err == nil {
			return conn, nil
		}
		if i < attempts-1 {
			log.Printf("Waiting for NATS to be ready... (%v)", err)
			time.Sleep(wait)
		}
	}
	return nil, fmt.Errorf("failed to connect to NATS at %s after %d attempts: %w", url, attempts, err)
}

// NewNATSPublisher creates an event publisher on an open connection
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Publish encodes the event as JSON and publishes it
func (p *NATSPublisher) Publish(_ context.Context, event posts.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	if err := p.conn.Publish(string(event.Type), data); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Subscribe delivers every post event to handler until the subscription is drained
func Subscribe(conn *nats.Conn, handler func(posts.Event)) (*nats.Subscription, error) {
	return conn.Subscribe("post.*", eventHandler(handler))
}

func eventHandler(handler func(posts.Event)) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var event posts.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("Dropping undecodable message on %s: %v", msg.Subject, err)
			return
		}
		handler(event)
	}
}
