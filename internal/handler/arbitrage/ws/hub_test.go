package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/krobus00/arbitrage-service/internal/service/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	mux := http.NewServeMux()
	hub.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestHubPingPong(t *testing.T) {
	bus := notification.NewBus()
	conn := dial(t, NewHub(bus, nil))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(message))
}

func TestHubDeliversBusEvents(t *testing.T) {
	bus := notification.NewBus()
	hub := NewHub(bus, nil)
	conn := dial(t, hub)

	require.Eventually(t, func() bool { return bus.Size() == 1 }, 5*time.Second, 10*time.Millisecond)

	bus.Broadcast(context.Background(), entity.NotificationEvent{
		Type:          "arbitrage_completed",
		OpportunityID: "op-1",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event entity.NotificationEvent
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, "arbitrage_completed", event.Type)
	assert.Equal(t, "op-1", event.OpportunityID)
}

func TestHubUnsubscribesOnDisconnect(t *testing.T) {
	bus := notification.NewBus()
	hub := NewHub(bus, nil)
	conn := dial(t, hub)

	require.Eventually(t, func() bool { return bus.Size() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return bus.Size() == 0 && hub.Size() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestClientNotifyAfterClose(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}

	require.NoError(t, c.Notify(context.Background(), entity.NotificationEvent{Type: "a"}))
	assert.ErrorIs(t, c.Notify(context.Background(), entity.NotificationEvent{Type: "b"}), ErrClientSlow)

	c.close()
	c.close()
	assert.ErrorIs(t, c.Notify(context.Background(), entity.NotificationEvent{Type: "c"}), ErrClientClosed)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example"})

	allowed := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	allowed.Header.Set("Origin", "https://app.example")
	assert.True(t, check(allowed))

	denied := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	denied.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(denied))

	assert.True(t, originChecker([]string{"*"})(denied))
	assert.True(t, originChecker(nil)(denied))
}
