package service

import (
	"context"
	"log"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

// HandoffService mediates ownership of sessions between operators. Claims are
// decided at the instant they hit the store's conditional write: there is no
// queue of waiting operators, the loser is told who won.
type HandoffService struct {
	sessions SessionStore
	messages MessageStore
	hub      *ChatHub
	webhooks *OpsWebhookService
}

func NewHandoffService(sessions SessionStore, messages MessageStore, hub *ChatHub, webhooks *OpsWebhookService) *HandoffService {
	return &HandoffService{sessions: sessions, messages: messages, hub: hub, webhooks: webhooks}
}

// Claim atomically takes ownership of a bot session. Exactly one of N
// concurrent claims succeeds; the rest fail with *model.AlreadyClaimedError
// naming the winner. A claim is always a valid escalation path, whether or
// not the bot flagged the session first.
func (s *HandoffService) Claim(ctx context.Context, sessionID, operatorID string) (*model.Session, error) {
	sess, err := s.sessions.Claim(ctx, sessionID, operatorID)
	if err != nil {
		return nil, err
	}

	s.hub.PublishSession(sess)

	// Visitor-facing notice so the widget shows the handoff explicitly.
	if msg, err := s.messages.AppendMessage(ctx, sessionID, model.SenderBot, "Você está falando com um atendente agora.", nil); err != nil {
		log.Printf("[handoff] claim notice append failed: %v", err)
	} else {
		s.hub.PublishMessage(msg)
	}

	return sess, nil
}

// Release hands an owned session back to the bot. Only the current owner may
// release; the session becomes claimable again immediately.
func (s *HandoffService) Release(ctx context.Context, sessionID, operatorID string) (*model.Session, error) {
	sess, err := s.sessions.Release(ctx, sessionID, operatorID)
	if err != nil {
		return nil, err
	}

	s.hub.PublishSession(sess)

	if msg, err := s.messages.AppendMessage(ctx, sessionID, model.SenderBot, "O atendimento voltou para o assistente virtual. Se precisar, é só chamar um atendente de novo.", nil); err != nil {
		log.Printf("[handoff] release notice append failed: %v", err)
	} else {
		s.hub.PublishMessage(msg)
	}

	return sess, nil
}

// Escalate flags a bot session as waiting for a human and alerts the ops
// channel. The session stays in bot status until an operator claims it.
func (s *HandoffService) Escalate(ctx context.Context, sessionID string) error {
	if err := s.sessions.MarkEscalated(ctx, sessionID); err != nil {
		return err
	}

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	s.hub.PublishSession(sess)
	s.webhooks.SendEscalationAlert(sess.ID, sess.VisitorName)
	return nil
}
