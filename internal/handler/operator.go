package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
	"github.com/vitaleevo/namtechpro-sub001/internal/service"
)

// OperatorHandler is the console side of the chat gateway. All routes sit
// behind the operator JWT middleware; the acting operator id comes from
// locals, never from the request body.
type OperatorHandler struct {
	sessionSvc *service.SessionService
	chatSvc    *service.ChatService
	handoffSvc *service.HandoffService
}

func NewOperatorHandler(sessionSvc *service.SessionService, chatSvc *service.ChatService, handoffSvc *service.HandoffService) *OperatorHandler {
	return &OperatorHandler{sessionSvc: sessionSvc, chatSvc: chatSvc, handoffSvc: handoffSvc}
}

func operatorID(c *fiber.Ctx) string {
	id, _ := c.Locals("operator_id").(string)
	return id
}

// ListSessions returns sessions by recency, optionally filtered by status.
// GET /api/v1/console/sessions?status=human&limit=50
func (h *OperatorHandler) ListSessions(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	var status *model.SessionStatus
	if raw := c.Query("status"); raw != "" {
		st := model.SessionStatus(raw)
		if !st.Valid() {
			return c.Status(400).JSON(fiber.Map{"error": "status must be bot, human or closed"})
		}
		status = &st
	}

	sessions, err := h.sessionSvc.List(c.Context(), status, limit)
	if err != nil {
		return respondChatError(c, err)
	}
	if sessions == nil {
		sessions = []*model.Session{}
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// ListAttention returns the work queue: human sessions plus unclaimed
// escalated bot sessions.
// GET /api/v1/console/sessions/attention
func (h *OperatorHandler) ListAttention(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	sessions, err := h.sessionSvc.ListNeedingAttention(c.Context(), limit)
	if err != nil {
		return respondChatError(c, err)
	}
	if sessions == nil {
		sessions = []*model.Session{}
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// Claim takes ownership of a bot session. On a lost race the response names
// the winning operator so the console can self-correct without retrying.
// POST /api/v1/console/sessions/:id/claim
func (h *OperatorHandler) Claim(c *fiber.Ctx) error {
	sess, err := h.handoffSvc.Claim(c.Context(), c.Params("id"), operatorID(c))
	if err != nil {
		return respondChatError(c, err)
	}
	return c.JSON(sess)
}

// Release hands the session back to the bot.
// POST /api/v1/console/sessions/:id/release
func (h *OperatorHandler) Release(c *fiber.Ctx) error {
	sess, err := h.handoffSvc.Release(c.Context(), c.Params("id"), operatorID(c))
	if err != nil {
		return respondChatError(c, err)
	}
	return c.JSON(sess)
}

// Close ends the session. A closed session accepts no further messages; a
// returning visitor starts a new one.
// POST /api/v1/console/sessions/:id/close
func (h *OperatorHandler) Close(c *fiber.Ctx) error {
	sess, err := h.sessionSvc.Close(c.Context(), c.Params("id"), operatorID(c))
	if err != nil {
		return respondChatError(c, err)
	}
	return c.JSON(sess)
}

// SendMessage appends an operator reply to an owned session.
// POST /api/v1/console/sessions/:id/messages
func (h *OperatorHandler) SendMessage(c *fiber.Ctx) error {
	var req model.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	msg, err := h.chatSvc.SendOperatorMessage(c.Context(), c.Params("id"), operatorID(c), strings.TrimSpace(req.Text))
	if err != nil {
		return respondChatError(c, err)
	}
	return c.JSON(msg)
}

// GetMessages mirrors the visitor polling read for the console.
// GET /api/v1/console/sessions/:id/messages?since=0
func (h *OperatorHandler) GetMessages(c *fiber.Ctx) error {
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
