package service

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

// ChatClient is one connected widget or console subscriber. Visitor clients
// carry the session id they follow; operator clients receive events for every
// session so the console's directory view stays live.
type ChatClient struct {
	Conn       *websocket.Conn
	SessionID  string
	Operator   bool
	OperatorID string
	Send       chan []byte
}

// ChatHub fans out committed chat events to connected subscribers. Delivery is
// at-least-once and best-effort per connection: a subscriber that cannot keep
// up is dropped, never blocking the publisher, and catches up via the
// sinceSequence watermark on reconnect or poll.
type ChatHub struct {
	clients    map[*ChatClient]bool
	register   chan *ChatClient
	unregister chan *ChatClient
	mu         sync.RWMutex
	done       chan struct{}
}

func NewChatHub() *ChatHub {
	return &ChatHub{
		clients:    make(map[*ChatClient]bool),
		register:   make(chan *ChatClient),
		unregister: make(chan *ChatClient),
		done:       make(chan struct{}),
	}
}

func (h *ChatHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[hub] subscriber connected (session=%s operator=%v total=%d)", client.SessionID, client.Operator, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[hub] subscriber disconnected (total=%d)", total)

		case <-h.done:
			return
		}
	}
}

func (h *ChatHub) Shutdown() {
	close(h.done)
}

func (h *ChatHub) Register(client *ChatClient) {
	h.register <- client
}

func (h *ChatHub) Unregister(client *ChatClient) {
	h.unregister <- client
}

// PublishMessage notifies subscribers of sessionID (and all operator clients)
// of a newly committed message. Callers must only publish after the store
// write has returned.
func (h *ChatHub) PublishMessage(msg *model.Message) {
	h.publish(msg.SessionID, model.NewMessageEvent(msg))
}

// PublishSession notifies subscribers of a session status/ownership change.
func (h *ChatHub) PublishSession(sess *model.Session) {
	h.publish(sess.ID, model.NewSessionEvent(sess))
}

func (h *ChatHub) publish(sessionID string, event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.SessionID != sessionID && !client.Operator {
			continue
		}
		select {
		case client.Send <- data:
		default:
			// Slow subscriber: drop the event rather than block the append path.
		}
	}
}

func (h *ChatHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
