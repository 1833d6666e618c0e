package handler

import (
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
	"github.com/vitaleevo/namtechpro-sub001/internal/repository"
	"github.com/vitaleevo/namtechpro-sub001/internal/service"
)

// LeadHandler takes contact-form submissions from the site and lists them in
// the console.
type LeadHandler struct {
	leadRepo *repository.LeadRepository
	webhooks *service.OpsWebhookService
}

func NewLeadHandler(leadRepo *repository.LeadRepository, webhooks *service.OpsWebhookService) *LeadHandler {
	return &LeadHandler{leadRepo: leadRepo, webhooks: webhooks}
}

// Create stores a new lead and alerts the sales channel.
// POST /api/v1/leads
func (h *LeadHandler) Create(c *fiber.Ctx) error {
	var req model.LeadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Message == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name, email and message are required"})
	}

	lead, err := h.leadRepo.Create(c.Context(), &req)
	if err != nil {
		log.Printf("[leads] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "internal error"})
	}

	h.webhooks.SendLeadAlert(lead.Name, lead.Email, lead.Phone)
	return c.Status(201).JSON(lead)
}

// List returns recent leads for the console.
// GET /api/v1/console/leads?limit=50
func (h *LeadHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	leads, err := h.leadRepo.List(c.Context(), limit)
	if err != nil {
		log.Printf("[leads] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "internal error"})
	}
	if leads == nil {
		leads = []*model.Lead{}
	}
	return c.JSON(fiber.Map{"leads": leads})
}
