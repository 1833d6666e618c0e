package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
	"github.com/vitaleevo/namtechpro-sub001/internal/service"
)

// ChatHandler is the visitor-facing side of the chat gateway: the widget
// starts sessions, sends messages or quick-reply selections, and polls for
// new messages with a since-sequence watermark.
type ChatHandler struct {
	sessionSvc *service.SessionService
	chatSvc    *service.ChatService
}

func NewChatHandler(sessionSvc *service.SessionService, chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{sessionSvc: sessionSvc, chatSvc: chatSvc}
}

// StartSession creates a new conversation in bot status.
// POST /api/v1/chat/sessions
func (h *ChatHandler) StartSession(c *fiber.Ctx) error {
	var req model.StartSessionRequest
	// Body is optional; an empty body starts an anonymous session.
	_ = c.BodyParser(&req)

	sess, err := h.sessionSvc.Start(c.Context(), strings.TrimSpace(req.VisitorName))
	if err != nil {
		return respondChatError(c, err)
	}
	return c.Status(201).JSON(sess)
}

// GetSession returns the current session snapshot.
// GET /api/v1/chat/sessions/:id
func (h *ChatHandler) GetSession(c *fiber.Ctx) error {
	sess, err := h.sessionSvc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondChatError(c, err)
	}
	return c.JSON(sess)
}

// SendMessage appends a visitor message; while the bot owns the session the
// scripted reply comes back in the same response.
// POST /api/v1/chat/sessions/:id/messages
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req model.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	msgs, err := h.chatSvc.SendVisitorMessage(c.Context(), c.Params("id"), strings.TrimSpace(req.Text))
	if err != nil {
		return respondChatError(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// SelectOption sends a quick-reply label as the visitor's message.
// POST /api/v1/chat/sessions/:id/select
func (h *ChatHandler) SelectOption(c *fiber.Ctx) error {
	var req model.SelectOptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	msgs, err := h.chatSvc.SelectOption(c.Context(), c.Params("id"), strings.TrimSpace(req.Option))
	if err != nil {
		return respondChatError(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// SetName sets the visitor's display name once.
// PUT /api/v1/chat/sessions/:id/name
func (h *ChatHandler) SetName(c *fiber.Ctx) error {
	var req model.SetNameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.VisitorName)
	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "visitor_name is required"})
	}

	if err := h.sessionSvc.SetVisitorName(c.Context(), c.Params("id"), name); err != nil {
		return respondChatError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// GetMessages is the polling read: everything after ?since=N, oldest first.
// GET /api/v1/chat/sessions/:id/messages?since=0
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	since, _ := strconv.ParseInt(c.Query("since", "0"), 10, 64)

	sess, msgs, err := h.chatSvc.Read(c.Context(), c.Params("id"), since)
	if err != nil {
		return respondChatError(c, err)
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	return c.JSON(fiber.Map{"session": sess, "messages": msgs})
}
