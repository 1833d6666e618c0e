package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

// MemoryStore is an in-memory implementation of the session and message store
// contracts. It backs the unit tests and is handy for running the server
// without Postgres; one mutex guards all state, which trivially gives the
// same per-session serialization the SQL implementation gets from row locks.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	messages map[string][]*model.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.Session),
		messages: make(map[string][]*model.Message),
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return copySession(sess), nil
}

func (s *MemoryStore) SetVisitorName(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}
	if sess.VisitorName == "" {
		sess.VisitorName = name
	}
	return nil
}

func (s *MemoryStore) MarkEscalated(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}
	if sess.Status == model.StatusBot {
		sess.Escalated = true
	}
	return nil
}

func (s *MemoryStore) Claim(_ context.Context, id, operatorID string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	switch {
	case sess.Status == model.StatusClosed:
		return nil, model.ErrSessionClosed
	case sess.OwnerOperatorID != nil:
		return nil, &model.AlreadyClaimedError{OwnerOperatorID: *sess.OwnerOperatorID}
	}
	sess.Status = model.StatusHuman
	sess.OwnerOperatorID = &operatorID
	sess.LastActivityAt = time.Now().UTC()
	return copySession(sess), nil
}

func (s *MemoryStore) Release(_ context.Context, id, operatorID string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	switch {
	case sess.Status == model.StatusClosed:
		return nil, model.ErrSessionClosed
	case sess.Status != model.StatusHuman:
		return nil, model.ErrInvalidTransition
	case sess.OwnerOperatorID == nil || *sess.OwnerOperatorID != operatorID:
		return nil, model.ErrStaleOwner
	}
	sess.Status = model.StatusBot
	sess.OwnerOperatorID = nil
	sess.Escalated = false
	sess.LastActivityAt = time.Now().UTC()
	return copySession(sess), nil
}

func (s *MemoryStore) CloseSession(_ context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	if sess.Status == model.StatusClosed {
		return nil, model.ErrSessionClosed
	}
	sess.Status = model.StatusClosed
	sess.OwnerOperatorID = nil
	sess.LastActivityAt = time.Now().UTC()
	return copySession(sess), nil
}

func (s *MemoryStore) ListSessions(_ context.Context, status *model.SessionStatus, limit int) ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Session
	for _, sess := range s.sessions {
		if status != nil && sess.Status != *status {
			continue
		}
		out = append(out, copySession(sess))
	}
	sortByActivity(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListNeedingAttention(_ context.Context, limit int) ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Session
	for _, sess := range s.sessions {
		if sess.Status == model.StatusHuman || (sess.Status == model.StatusBot && sess.Escalated) {
			out = append(out, copySession(sess))
		}
	}
	sortByActivity(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CloseIdle(_ context.Context, cutoff time.Time) ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var closed []*model.Session
	for _, sess := range s.sessions {
		if sess.Status == model.StatusClosed || !sess.LastActivityAt.Before(cutoff) {
			continue
		}
		sess.Status = model.StatusClosed
		sess.OwnerOperatorID = nil
		closed = append(closed, copySession(sess))
	}
	return closed, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, sessionID string, sender model.Sender, text string, options []string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	if sess.Status == model.StatusClosed {
		return nil, model.ErrSessionClosed
	}

	sess.LastSeq++
	sess.LastActivityAt = time.Now().UTC()
	msg := &model.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Seq:       sess.LastSeq,
		Sender:    sender,
		Text:      text,
		Options:   append([]string(nil), options...),
		CreatedAt: sess.LastActivityAt,
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return copyMessage(msg), nil
}

func (s *MemoryStore) ListMessages(_ context.Context, sessionID string, sinceSeq int64) ([]*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Message
	for _, msg := range s.messages[sessionID] {
		if msg.Seq > sinceSeq {
			out = append(out, copyMessage(msg))
		}
	}
	return out, nil
}

func copySession(sess *model.Session) *model.Session {
	cp := *sess
	if sess.OwnerOperatorID != nil {
		owner := *sess.OwnerOperatorID
		cp.OwnerOperatorID = &owner
	}
	return &cp
}

func copyMessage(msg *model.Message) *model.Message {
	cp := *msg
	cp.Options = append([]string(nil), msg.Options...)
	return &cp
}

func sortByActivity(sessions []*model.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivityAt.After(sessions[j].LastActivityAt)
	})
}
