package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

// MessageRepository persists the per-session append-only message log.
type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// AppendMessage appends one message inside a transaction that locks the
// session row. The row lock serializes concurrent appends to the same session
// (appends to different sessions run in parallel), so the assigned sequence
// is strictly monotonic per session and never ties.
func (r *MessageRepository) AppendMessage(ctx context.Context, sessionID string, sender model.Sender, text string, options []string) (*model.Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status model.SessionStatus
	var lastSeq int64
	err = tx.QueryRow(ctx, `
		SELECT status, last_seq FROM chat_sessions WHERE id = $1 FOR UPDATE
	`, sessionID).Scan(&status, &lastSeq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	if status == model.StatusClosed {
		return nil, model.ErrSessionClosed
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Seq:       lastSeq + 1,
		Sender:    sender,
		Text:      text,
		Options:   options,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO chat_messages (id, session_id, seq, sender, text, options)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, msg.ID, msg.SessionID, msg.Seq, msg.Sender, msg.Text, optionsJSON).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE chat_sessions SET last_seq = $2, last_activity_at = NOW() WHERE id = $1
	`, sessionID, msg.Seq)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns messages with seq > sinceSeq ordered ascending.
func (r *MessageRepository) ListMessages(ctx context.Context, sessionID string, sinceSeq int64) ([]*model.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, seq, sender, text, options, created_at
		FROM chat_messages
		WHERE session_id = $1 AND seq > $2
		ORDER BY seq ASC
	`, sessionID, sinceSeq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*model.Message
	for rows.Next() {
		var m model.Message
		var optionsJSON []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Seq, &m.Sender, &m.Text, &optionsJSON, &m.CreatedAt); err != nil {
			return nil, err
		}
		if len(optionsJSON) > 0 {
			if err := json.Unmarshal(optionsJSON, &m.Options); err != nil {
				return nil, err
			}
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}
