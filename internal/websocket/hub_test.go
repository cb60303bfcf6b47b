package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubClient(id, userID string) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Send:   make(chan []byte, 4),
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := newHubClient("conn-1", "u1")
	c2 := newHubClient("conn-2", "u2")

	hub.Register <- c1
	hub.Register <- c2

	require.Eventually(t, func() bool {
		return hub.GetClientCount() == 2
	}, time.Second, 10*time.Millisecond)

	assert.True(t, hub.HasClient("conn-1"))
	assert.True(t, hub.HasClient("conn-2"))
	assert.False(t, hub.HasClient("conn-9"))

	hub.Unregister <- c1

	require.Eventually(t, func() bool {
		return hub.GetClientCount() == 1
	}, time.Second, 10*time.Millisecond)
	assert.False(t, hub.HasClient("conn-1"))

	// unregister closes the client's send channel
	_, open := <-c1.Send
	assert.False(t, open)
}

func TestHubBroadcastToUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	mine := newHubClient("conn-1", "u1")
	mineToo := newHubClient("conn-2", "u1")
	other := newHubClient("conn-3", "u2")

	hub.Register <- mine
	hub.Register <- mineToo
	hub.Register <- other

	require.Eventually(t, func() bool {
		return hub.GetClientCount() == 3
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToUser("u1", []byte(`{"type":"ping"}`))

	for _, c := range []*Client{mine, mineToo} {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"ping"}`, string(msg))
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive the message", c.ID)
		}
	}

	select {
	case msg := <-other.Send:
		t.Fatalf("unexpected message for other user: %s", msg)
	default:
	}
}
