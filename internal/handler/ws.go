package handler

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/vitaleevo/namtechpro-sub001/internal/middleware"
	"github.com/vitaleevo/namtechpro-sub001/internal/model"
	"github.com/vitaleevo/namtechpro-sub001/internal/service"
)

// WSHandler upgrades widget and console connections into hub subscriptions.
// Visitors subscribe to one session via ?session_id= (knowing the opaque id
// is the capability); operators authenticate via ?token= and receive events
// for every session.
type WSHandler struct {
	hub        *service.ChatHub
	sessionSvc *service.SessionService
	jwtSecret  string
}

func NewWSHandler(hub *service.ChatHub, sessionSvc *service.SessionService, jwtSecret string) *WSHandler {
	return &WSHandler{hub: hub, sessionSvc: sessionSvc, jwtSecret: jwtSecret}
}

func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	if token := c.Query("token"); token != "" {
		opID, _, err := middleware.ParseOperatorToken(h.jwtSecret, token)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals("operator_id", opID)
		return websocket.New(h.handleConnection)(c)
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(401).JSON(fiber.Map{"error": "session_id or token required"})
	}
	if _, err := h.sessionSvc.Get(c.Context(), sessionID); err != nil {
		return respondChatError(c, err)
	}
	c.Locals("session_id", sessionID)
	return websocket.New(h.handleConnection)(c)
}

func (h *WSHandler) handleConnection(c *websocket.Conn) {
	sessionID, _ := c.Locals("session_id").(string)
	opID, _ := c.Locals("operator_id").(string)

	client := &service.ChatClient{
		Conn:       c,
		SessionID:  sessionID,
		Operator:   opID != "",
		OperatorID: opID,
		Send:       make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	// Writer goroutine
	go func() {
		defer c.Close()
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader loop: pings keep the connection alive; closing the socket (or
	// going silent past the deadline) unsubscribes with no server-side
	// side effects.
	c.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}
		c.SetReadDeadline(time.Now().Add(60 * time.Second))

		var event model.WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}

		switch event.Type {
		case "ping":
			pong, _ := json.Marshal(model.WSEvent{Type: "pong"})
			select {
			case client.Send <- pong:
			default:
			}
		default:
			log.Printf("[ws] unknown event type %q", event.Type)
		}
	}
}
