package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func registerClient(t *testing.T, hub *Hub, userID uint) *Client {
	t.Helper()
	before := hub.SessionCount(userID)
	client := hub.NewClient(userID, nil)
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.SessionCount(userID) == before+1
	}, time.Second, 5*time.Millisecond)
	return client
}

func receive(t *testing.T, client *Client) CartUpdate {
	t.Helper()
	select {
	case msg, ok := <-client.Send:
		require.True(t, ok, "send channel closed")
		var update CartUpdate
		require.NoError(t, json.Unmarshal(msg, &update))
		return update
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cart update")
	}
	return CartUpdate{}
}

func TestHub_NotifyReachesEverySessionOfUser(t *testing.T) {
	hub, _ := startHub(t)
	tab1 := registerClient(t, hub, 1)
	tab2 := registerClient(t, hub, 1)
	other := registerClient(t, hub, 2)

	hub.NotifyCartChanged(1, 5)

	assert.Equal(t, CartUpdate{Type: "cart_updated", ItemCount: 5}, receive(t, tab1))
	assert.Equal(t, CartUpdate{Type: "cart_updated", ItemCount: 5}, receive(t, tab2))
	select {
	case <-other.Send:
		t.Fatal("user 2 must not receive user 1's update")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_NotifyOfflineUserIsNoop(t *testing.T) {
	hub, _ := startHub(t)

	assert.False(t, hub.IsUserOnline(42))
	hub.NotifyCartChanged(42, 1)
	assert.False(t, hub.IsUserOnline(42))
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)
	client := registerClient(t, hub, 7)

	hub.Unregister(client)

	require.Eventually(t, func() bool {
		return !hub.IsUserOnline(7)
	}, time.Second, 5*time.Millisecond)
	_, ok := <-client.Send
	assert.False(t, ok)

	// A second unregister for the same session is harmless.
	hub.Unregister(client)
}

func TestHub_StopClosesAllSessions(t *testing.T) {
	hub, cancel := startHub(t)
	a := registerClient(t, hub, 1)
	b := registerClient(t, hub, 2)

	cancel()

	for _, c := range []*Client{a, b} {
		select {
		case _, ok := <-c.Send:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("session not closed on shutdown")
		}
	}

	// Calls after shutdown must not block.
	done := make(chan struct{})
	go func() {
		hub.Register(hub.NewClient(3, nil))
		hub.Unregister(a)
		hub.NotifyCartChanged(1, 1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub call blocked after shutdown")
	}
}
