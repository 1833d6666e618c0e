package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

func newTestHub(t *testing.T) *ChatHub {
	t.Helper()
	hub := NewChatHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	return hub
}

func newTestClient(sessionID string, operator bool) *ChatClient {
	return &ChatClient{
		SessionID: sessionID,
		Operator:  operator,
		Send:      make(chan []byte, 8),
	}
}

// waitForSubscribers blocks until the hub's run loop has absorbed the
// registrations; Register hands the client to the loop asynchronously.
func waitForSubscribers(t *testing.T, hub *ChatHub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.SubscriberCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d subscribers", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func recvEvent(t *testing.T, client *ChatClient) *model.WSEvent {
	t.Helper()
	select {
	case data := <-client.Send:
		var event model.WSEvent
		require.NoError(t, json.Unmarshal(data, &event))
		return &event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for hub event")
		return nil
	}
}

func TestHubDeliversMessageToSessionSubscriber(t *testing.T) {
	hub := newTestHub(t)

	client := newTestClient("sess-1", false)
	hub.Register(client)
	waitForSubscribers(t, hub, 1)

	hub.PublishMessage(&model.Message{SessionID: "sess-1", Seq: 1, Sender: model.SenderVisitor, Text: "oi"})

	event := recvEvent(t, client)
	assert.Equal(t, "message", event.Type)
}

func TestHubScopesVisitorClientsToTheirSession(t *testing.T) {
	hub := newTestHub(t)

	mine := newTestClient("sess-1", false)
	other := newTestClient("sess-2", false)
	console := newTestClient("", true)
	hub.Register(mine)
	hub.Register(other)
	hub.Register(console)
	waitForSubscribers(t, hub, 3)

	hub.PublishMessage(&model.Message{SessionID: "sess-1", Seq: 1, Sender: model.SenderBot, Text: "olá"})

	recvEvent(t, mine)
	recvEvent(t, console)

	select {
	case <-other.Send:
		t.Fatal("subscriber of another session must not receive the event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubPublishSessionEvent(t *testing.T) {
	hub := newTestHub(t)

	client := newTestClient("sess-1", false)
	hub.Register(client)
	waitForSubscribers(t, hub, 1)

	owner := "op-1"
	hub.PublishSession(&model.Session{ID: "sess-1", Status: model.StatusHuman, OwnerOperatorID: &owner})

	event := recvEvent(t, client)
	assert.Equal(t, "session", event.Type)

	var sess model.Session
	require.NoError(t, json.Unmarshal(event.Data, &sess))
	assert.Equal(t, model.StatusHuman, sess.Status)
}

func TestHubDropsEventsForSlowSubscriber(t *testing.T) {
	hub := newTestHub(t)

	slow := &ChatClient{SessionID: "sess-1", Send: make(chan []byte)} // unbuffered, nobody reading
	hub.Register(slow)
	waitForSubscribers(t, hub, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.PublishMessage(&model.Message{SessionID: "sess-1", Seq: int64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish must never block on a slow subscriber")
	}
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := newTestHub(t)

	client := newTestClient("sess-1", false)
	hub.Register(client)
	waitForSubscribers(t, hub, 1)
	hub.Unregister(client)

	select {
	case _, open := <-client.Send:
		assert.False(t, open, "send channel must be closed on unregister")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	// Publishing after unregister reaches nobody and must not panic.
	hub.PublishMessage(&model.Message{SessionID: "sess-1", Seq: 2})
}
