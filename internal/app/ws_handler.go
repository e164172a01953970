package app

import (
	"context"
	"sync"

	"reservation-client/internal/shared/eventbus"
	"reservation-client/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// updateMessage is what open dashboards receive when state changes server-side.
type updateMessage struct {
	Type string `json:"type"`
}

// UpdateHub pushes session and reservation change notices to connected
// dashboards over websocket so open views refresh without polling.
type UpdateHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]chan updateMessage
	log   logger.Logger
}

// NewUpdateHub creates the hub and subscribes it to the change events.
func NewUpdateHub(bus eventbus.EventBusInterface, log logger.Logger) *UpdateHub {
	if log == nil {
		log = logger.NewLogger()
	}
	hub := &UpdateHub{
		conns: make(map[*websocket.Conn]chan updateMessage),
		log:   log.WithComponent("update-hub"),
	}

	forward := func(ctx context.Context, event eventbus.Event) error {
		hub.broadcast(updateMessage{Type: event.Type()})
		return nil
	}
	bus.Subscribe(eventbus.EventSessionChanged, forward)
	bus.Subscribe(eventbus.EventReservationChanged, forward)

	return hub
}

// broadcast queues the message for every connection. Sends are non-blocking:
// the bus may be dispatching under the session store mutex, and a slow reader
// only misses a refresh hint, not data.
func (h *UpdateHub) broadcast(msg updateMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.conns {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Upgrade rejects non-websocket requests on the /ws route.
func (h *UpdateHub) Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler serves one dashboard connection until the peer closes it.
func (h *UpdateHub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ch := make(chan updateMessage, 8)

		h.mu.Lock()
		h.conns[conn] = ch
		h.mu.Unlock()
		defer func() {
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
		}()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case msg := <-ch:
				if err := conn.WriteJSON(msg); err != nil {
					h.log.Debugf("Dropping update connection: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	})
}
