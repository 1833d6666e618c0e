package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// OpsWebhookService sends rich embeds to the team's Discord channels via
// webhooks: escalations to #atendimento, new leads to #comercial. URLs left
// empty disable the corresponding alert.
type OpsWebhookService struct {
	webhookSupport string
	webhookLeads   string
	client         *http.Client
}

func NewOpsWebhookService(support, leads string) *OpsWebhookService {
	return &OpsWebhookService{
		webhookSupport: support,
		webhookLeads:   leads,
		client:         &http.Client{Timeout: 10 * time.Second},
	}
}

type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

func (s *OpsWebhookService) send(webhookURL string, payload discordWebhookPayload) {
	if webhookURL == "" {
		return
	}
	go func() {
		body, err := json.Marshal(payload)
		if err != nil {
			log.Printf("[ops-webhook] marshal error: %v", err)
			return
		}
		resp, err := s.client.Post(webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("[ops-webhook] send error: %v", err)
			return
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			log.Printf("[ops-webhook] HTTP %d for webhook", resp.StatusCode)
		}
	}()
}

// SendEscalationAlert pings the support channel when a visitor asks for a
// human, so someone claims the session quickly.
func (s *OpsWebhookService) SendEscalationAlert(sessionID, visitorName string) {
	if visitorName == "" {
		visitorName = "Visitante"
	}
	s.send(s.webhookSupport, discordWebhookPayload{
		Username: "NamTech Pro Atendimento",
		Embeds: []discordEmbed{{
			Title:       "🔔 Pedido de atendimento humano",
			Description: fmt.Sprintf("%s está aguardando um atendente no chat do site.", visitorName),
			Color:       0xF1C40F, // Gold
			Fields: []discordField{
				{Name: "Sessão", Value: sessionID, Inline: true},
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	})
}

// SendLeadAlert posts a new contact-form lead to the sales channel.
func (s *OpsWebhookService) SendLeadAlert(name, email, phone string) {
	fields := []discordField{
		{Name: "E-mail", Value: email, Inline: true},
	}
	if phone != "" {
		fields = append(fields, discordField{Name: "Telefone", Value: phone, Inline: true})
	}
	s.send(s.webhookLeads, discordWebhookPayload{
		Username: "NamTech Pro Comercial",
		Embeds: []discordEmbed{{
			Title:     fmt.Sprintf("💼 Novo lead: %s", name),
			Color:     0x2ECC71, // Green
			Fields:    fields,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	})
}
