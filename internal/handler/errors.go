package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
	"github.com/vitaleevo/namtechpro-sub001/internal/service"
)

// respondChatError maps engine errors to HTTP responses. Business errors are
// surfaced as-is for the caller's UI; anything else is a transient failure
// and hidden behind a generic 500.
func respondChatError(c *fiber.Ctx, err error) error {
	var claimed *model.AlreadyClaimedError
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "session not found"})
	case errors.Is(err, model.ErrSessionClosed):
		return c.Status(410).JSON(fiber.Map{"error": "session closed"})
	case errors.As(err, &claimed):
		return c.Status(409).JSON(fiber.Map{
			"error":             "already claimed",
			"owner_operator_id": claimed.OwnerOperatorID,
		})
	case errors.Is(err, model.ErrAlreadyClaimed):
		return c.Status(409).JSON(fiber.Map{"error": "already claimed"})
	case errors.Is(err, model.ErrStaleOwner):
		return c.Status(403).JSON(fiber.Map{"error": "not the session owner"})
	case errors.Is(err, model.ErrInvalidTransition):
		return c.Status(409).JSON(fiber.Map{"error": "invalid transition"})
	case errors.Is(err, service.ErrEmptyMessage):
		return c.Status(400).JSON(fiber.Map{"error": "text is required"})
	default:
		log.Printf("[http] internal error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "internal error"})
	}
}
