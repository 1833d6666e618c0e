package model

import "time"

type SessionStatus string

const (
	StatusBot    SessionStatus = "bot"
	StatusHuman  SessionStatus = "human"
	StatusClosed SessionStatus = "closed"
)

// Valid reports whether s is one of the known session statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusBot, StatusHuman, StatusClosed:
		return true
	}
	return false
}

// Session is one continuous visitor conversation. A session starts under bot
// handling, may be claimed by exactly one operator at a time, and ends closed.
// OwnerOperatorID is non-nil if and only if Status is "human".
type Session struct {
	ID              string        `json:"id"`
	Status          SessionStatus `json:"status"`
	VisitorName     string        `json:"visitor_name,omitempty"`
	OwnerOperatorID *string       `json:"owner_operator_id,omitempty"`
	Escalated       bool          `json:"escalated"`
	LastSeq         int64         `json:"last_seq"`
	LastActivityAt  time.Time     `json:"last_activity_at"`
	CreatedAt       time.Time     `json:"created_at"`
}

type StartSessionRequest struct {
	VisitorName string `json:"visitor_name"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type SelectOptionRequest struct {
	Option string `json:"option"`
}

type SetNameRequest struct {
	VisitorName string `json:"visitor_name"`
}
