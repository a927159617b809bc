package messaging

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Postboard/internal/core/posts"
)

func TestNATSPublisher_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("Skipping test - no NATS connection configured")
	}

	conn, err := Connect(url, 3, 100*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	received := make(chan posts.Event, 1)
	sub, err := Subscribe(conn, func(e posts.Event) { received <- e })
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })
	require.NoError(t, conn.Flush())

	event := posts.Event{
		OccurredAt: time.Now().UTC().Truncate(time.Millisecond),
		Type:       posts.EventPostLiked,
		PostID:     "p1",
		UserID:     "u1",
	}
	require.NoError(t, NewNATSPublisher(conn).Publish(context.Background(), event))

	select {
	case got := <-received:
		assert.Equal(t, event, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", 2, time.Millisecond)
	assert.Error(t, err)
}

func TestEventHandler(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	var received []posts.Event
	handle := eventHandler(func(event posts.Event) { received = append(received, event) })

	handle(&nats.Msg{Subject: "post.liked", Data: []byte(`{"type":"post.liked","postId":"p1","userId":"u1"}`)})
	require.Len(t, received, 1)
	assert.Equal(t, posts.EventPostLiked, received[0].Type)
	assert.Empty(t, logs.String())

	handle(&nats.Msg{Subject: "post.liked", Data: []byte("{not json")})
	assert.Len(t, received, 1)
	assert.Contains(t, logs.String(), "Dropping undecodable message on post.liked")
}
