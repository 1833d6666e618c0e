package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

// SessionService owns session lifecycle: creation, the status transition
// table and the directory projections the console reads.
type SessionService struct {
	sessions SessionStore
	hub      *ChatHub
}

func NewSessionService(sessions SessionStore, hub *ChatHub) *SessionService {
	return &SessionService{sessions: sessions, hub: hub}
}

// Start creates a session in bot status with no messages. It never fails for
// business reasons; the visitor's first message follows immediately.
func (s *SessionService) Start(ctx context.Context, visitorName string) (*model.Session, error) {
	now := time.Now().UTC()
	sess := &model.Session{
		ID:             uuid.NewString(),
		Status:         model.StatusBot,
		VisitorName:    visitorName,
		LastActivityAt: now,
		CreatedAt:      now,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	return s.sessions.GetSession(ctx, id)
}

// SetVisitorName sets the display name once; it is a no-op on sessions that
// already have one.
func (s *SessionService) SetVisitorName(ctx context.Context, id, name string) error {
	if _, err := s.sessions.GetSession(ctx, id); err != nil {
		return err
	}
	return s.sessions.SetVisitorName(ctx, id, name)
}

// Transition applies a requested status edge after validating it against the
// lifecycle table. human→* edges require the acting operator to be the
// current owner. The store performs the actual write conditionally, so a
// concurrent change between validation and write still resolves safely.
func (s *SessionService) Transition(ctx context.Context, id string, target model.SessionStatus, actingOperatorID string) (*model.Session, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(sess.Status, target); err != nil {
		return nil, err
	}
	if sess.Status == model.StatusHuman && (sess.OwnerOperatorID == nil || *sess.OwnerOperatorID != actingOperatorID) {
		return nil, model.ErrStaleOwner
	}

	var updated *model.Session
	switch target {
	case model.StatusHuman:
		updated, err = s.sessions.Claim(ctx, id, actingOperatorID)
	case model.StatusBot:
		updated, err = s.sessions.Release(ctx, id, actingOperatorID)
	case model.StatusClosed:
		updated, err = s.sessions.CloseSession(ctx, id)
	default:
		return nil, model.ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	s.hub.PublishSession(updated)
	return updated, nil
}

// Close ends a session from the console. Closing a human session requires
// ownership; closing a bot session is open to any operator.
func (s *SessionService) Close(ctx context.Context, id, operatorID string) (*model.Session, error) {
	return s.Transition(ctx, id, model.StatusClosed, operatorID)
}

// List is the "all sessions by recency" directory view.
func (s *SessionService) List(ctx context.Context, status *model.SessionStatus, limit int) ([]*model.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.sessions.ListSessions(ctx, status, limit)
}

// ListNeedingAttention is the console's work queue: sessions currently with a
// human plus escalated bot sessions no one has claimed yet.
func (s *SessionService) ListNeedingAttention(ctx context.Context, limit int) ([]*model.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.sessions.ListNeedingAttention(ctx, limit)
}
