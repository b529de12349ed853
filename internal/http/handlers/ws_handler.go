package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/nft-checkout/backend/internal/events"
	"go.uber.org/zap"
)

// WSHub pushes session events to connected buyers so they do not have to
// hammer the poll endpoint. Connections subscribe to a single session id;
// knowing the id is the capability.
type WSHub struct {
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[string][]*websocket.Conn
}

func NewWSHub(subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		subscriber:  subscriber,
		log:         log,
		connections: make(map[string][]*websocket.Conn),
	}
}

func (h *WSHub) Start(ctx context.Context) {
	_ = h.subscriber.Subscribe(ctx, events.StreamSession, func(event events.Event) {
		h.dispatch(event)
	})
}

func (h *WSHub) dispatch(event events.Event) {
	sessionID := event.SessionID()
	if sessionID == "" {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[sessionID] {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	sessionID := conn.Query("sessionId")
	if sessionID == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing sessionId"}`))
		conn.Close()
		return
	}

	h.mu.Lock()
	h.connections[sessionID] = append(h.connections[sessionID], conn)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		conns := h.connections[sessionID]
		for i, c := range conns {
			if c == conn {
				h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.connections[sessionID]) == 0 {
			delete(h.connections, sessionID)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Drain reads until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
