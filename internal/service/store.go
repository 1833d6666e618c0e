package service

import (
	"context"
	"time"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

// SessionStore is the conditional-write contract the chat engine needs from
// its backing store. Claim, Release and Close must each be atomic against
// concurrent calls on the same session: the state check and the write happen
// as one operation, and losers get the sentinel errors from the model package.
type SessionStore interface {
	CreateSession(ctx context.Context, sess *model.Session) error

	// GetSession returns model.ErrSessionNotFound for unknown ids.
	GetSession(ctx context.Context, id string) (*model.Session, error)

	// SetVisitorName sets the display name once; later calls on a named
	// session are no-ops.
	SetVisitorName(ctx context.Context, id, name string) error

	// MarkEscalated flags a bot-status session as waiting for a human.
	MarkEscalated(ctx context.Context, id string) error

	// Claim atomically moves an unowned bot session to human status owned by
	// operatorID. Fails with *model.AlreadyClaimedError when another operator
	// holds the session, model.ErrSessionClosed on closed sessions.
	Claim(ctx context.Context, id, operatorID string) (*model.Session, error)

	// Release returns an owned session to bot status and clears the owner and
	// escalation flag. Only the current owner may release (model.ErrStaleOwner);
	// releasing a bot session is model.ErrInvalidTransition.
	Release(ctx context.Context, id, operatorID string) (*model.Session, error)

	// CloseSession moves a bot or human session to closed and clears the
	// owner. Closing an already closed session is model.ErrSessionClosed.
	CloseSession(ctx context.Context, id string) (*model.Session, error)

	// ListSessions returns sessions ordered by last activity, newest first,
	// optionally filtered by status.
	ListSessions(ctx context.Context, status *model.SessionStatus, limit int) ([]*model.Session, error)

	// ListNeedingAttention returns human sessions plus escalated bot sessions.
	ListNeedingAttention(ctx context.Context, limit int) ([]*model.Session, error)

	// CloseIdle closes every open session whose last activity is before the
	// cutoff and returns the sessions it closed.
	CloseIdle(ctx context.Context, cutoff time.Time) ([]*model.Session, error)
}

// MessageStore appends to and reads the per-session ordered message log.
type MessageStore interface {
	// AppendMessage assigns the next sequence for the session, stores the
	// message and bumps the session's activity timestamp, all serialized per
	// session. Fails with model.ErrSessionClosed on closed sessions.
	AppendMessage(ctx context.Context, sessionID string, sender model.Sender, text string, options []string) (*model.Message, error)

	// ListMessages returns messages with Seq > sinceSeq in ascending order.
	// Repeating a read from the same watermark returns the same messages.
	ListMessages(ctx context.Context, sessionID string, sinceSeq int64) ([]*model.Message, error)
}
