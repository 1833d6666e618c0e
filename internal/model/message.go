package model

import "time"

type Sender string

const (
	SenderVisitor  Sender = "visitor"
	SenderBot      Sender = "bot"
	SenderOperator Sender = "operator"
)

// Message is a single chat turn inside a session. Seq is a per-session
// strictly monotonic sequence assigned at append time; reads are ordered by
// Seq so clock ties can never reorder a conversation.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Seq       int64     `json:"seq"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Options   []string  `json:"options,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
