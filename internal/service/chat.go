package service

import (
	"context"
	"errors"
	"log"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

var ErrEmptyMessage = errors.New("message text must not be empty")

// ChatService is the messaging core: visitor and operator appends, bot
// replies and the read-since primitive that both polling and push delivery
// are built on.
type ChatService struct {
	sessions SessionStore
	messages MessageStore
	bot      *BotScript
	handoff  *HandoffService
	hub      *ChatHub
}

func NewChatService(sessions SessionStore, messages MessageStore, bot *BotScript, handoff *HandoffService, hub *ChatHub) *ChatService {
	return &ChatService{sessions: sessions, messages: messages, bot: bot, handoff: handoff, hub: hub}
}

// SendVisitorMessage appends the visitor's message and, while the session is
// under bot handling, the scripted reply right behind it. If the script
// escalates, the session is flagged after the explanatory reply is appended,
// so the visitor always sees why the bot went quiet.
func (s *ChatService) SendVisitorMessage(ctx context.Context, sessionID, text string) ([]*model.Message, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.StatusClosed {
		return nil, model.ErrSessionClosed
	}

	msg, err := s.messages.AppendMessage(ctx, sessionID, model.SenderVisitor, text, nil)
	if err != nil {
		return nil, err
	}
	s.hub.PublishMessage(msg)
	appended := []*model.Message{msg}

	if sess.Status != model.StatusBot {
		return appended, nil
	}

	history, err := s.messages.ListMessages(ctx, sessionID, 0)
	if err != nil {
		return appended, err
	}
	reply := s.bot.Reply(history, text)

	botMsg, err := s.messages.AppendMessage(ctx, sessionID, model.SenderBot, reply.Text, reply.Options)
	if err != nil {
		// The session may have been closed or claimed between the two
		// appends; the visitor message itself is committed either way.
		log.Printf("[chat] bot reply append failed (session=%s): %v", sessionID, err)
		return appended, nil
	}
	s.hub.PublishMessage(botMsg)
	appended = append(appended, botMsg)

	if reply.Escalate {
		if err := s.handoff.Escalate(ctx, sessionID); err != nil {
			log.Printf("[chat] escalation failed (session=%s): %v", sessionID, err)
		}
	}

	return appended, nil
}

// SelectOption is sugar for SendVisitorMessage with the chosen quick-reply
// label as the message text.
func (s *ChatService) SelectOption(ctx context.Context, sessionID, optionLabel string) ([]*model.Message, error) {
	return s.SendVisitorMessage(ctx, sessionID, optionLabel)
}

// SendOperatorMessage appends an operator reply. The caller must currently
// own the session; no scripted reply follows.
func (s *ChatService) SendOperatorMessage(ctx context.Context, sessionID, operatorID, text string) (*model.Message, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.StatusClosed {
		return nil, model.ErrSessionClosed
	}
	if sess.Status != model.StatusHuman || sess.OwnerOperatorID == nil || *sess.OwnerOperatorID != operatorID {
		return nil, model.ErrStaleOwner
	}

	msg, err := s.messages.AppendMessage(ctx, sessionID, model.SenderOperator, text, nil)
	if err != nil {
		return nil, err
	}
	s.hub.PublishMessage(msg)
	return msg, nil
}

// Read returns the session and every message with sequence greater than
// sinceSeq. It is idempotent: replaying the same watermark returns the same
// messages, which is what makes polling and push interchangeable.
func (s *ChatService) Read(ctx context.Context, sessionID string, sinceSeq int64) (*model.Session, []*model.Message, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.messages.ListMessages(ctx, sessionID, sinceSeq)
	if err != nil {
		return nil, nil, err
	}
	return sess, msgs, nil
}
