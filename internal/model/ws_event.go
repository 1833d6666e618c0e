package model

import "encoding/json"

type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessageEvent wraps an appended message for push delivery.
func NewMessageEvent(msg *Message) *WSEvent {
	data, _ := json.Marshal(msg)
	return &WSEvent{Type: "message", Data: data}
}

// NewSessionEvent wraps a session snapshot after a status/ownership change.
func NewSessionEvent(sess *Session) *WSEvent {
	data, _ := json.Marshal(sess)
	return &WSEvent{Type: "session", Data: data}
}
