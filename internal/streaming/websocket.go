package streaming

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"dhankavach/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the family app connects from a native client; CORS is enforced on the REST routes
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHub streams a household's events to connected family members
type WebSocketHub struct {
	bus    *EventBus
	logger *logger.Logger

	mu      sync.Mutex
	clients int
}

// NewWebSocketHub creates a hub fed by bus
func NewWebSocketHub(bus *EventBus, log *logger.Logger) *WebSocketHub {
	return &WebSocketHub{bus: bus, logger: log.WithComponent("websocket-hub")}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients
}

// ServeWebSocket upgrades the request and streams events for the profile_id
// query parameter. Clients may narrow the event types by sending a
// Subscription as JSON.
func (h *WebSocketHub) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	profileID := r.URL.Query().Get("profile_id")
	if profileID == "" {
		http.Error(w, "profile_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	events, unsubscribe := h.bus.Subscribe(&Subscription{ProfileID: profileID})
	client := &wsClient{
		conn:   conn,
		events: events,
		logger: h.logger.WithProfileID(profileID),
	}
	client.types.Store(&[]EventType{})

	h.mu.Lock()
	h.clients++
	h.mu.Unlock()
	client.logger.Info().Msg("client connected")

	go client.writePump()
	go func() {
		client.readPump()
		unsubscribe()
		h.mu.Lock()
		h.clients--
		h.mu.Unlock()
		client.logger.Info().Msg("client disconnected")
	}()
}

type wsClient struct {
	conn   *websocket.Conn
	events <-chan *Event
	types  atomic.Pointer[[]EventType]
	logger *logger.Logger
}

// readPump keeps the read deadline fresh and applies type filters sent by
// the client. It returns when the connection drops.
func (c *wsClient) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(4 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		var sub Subscription
		if err := json.Unmarshal(message, &sub); err == nil {
			c.types.Store(&sub.Types)
			c.logger.Debug().Int("types", len(sub.Types)).Msg("subscription updated")
		}
	}
}

// writePump forwards events until the bus closes the channel
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.events:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			filter := Subscription{Types: *c.types.Load()}
			if !filter.Matches(event) {
				continue
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
