package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// IdleSweeper closes sessions that have seen no activity for longer than the
// configured timeout. It runs off the request path on a cron ticker; a sweep
// racing a fresh append loses to it (the append bumps the activity timestamp
// under the session's row lock) or the append observes the closed status.
type IdleSweeper struct {
	sessions SessionStore
	hub      *ChatHub
	timeout  time.Duration
	cron     *cron.Cron
}

func NewIdleSweeper(sessions SessionStore, hub *ChatHub, timeout time.Duration) *IdleSweeper {
	return &IdleSweeper{
		sessions: sessions,
		hub:      hub,
		timeout:  timeout,
		cron:     cron.New(),
	}
}

// Start schedules the sweep at the given interval and runs the ticker.
func (s *IdleSweeper) Start(interval time.Duration) error {
	if _, err := s.cron.AddFunc("@every "+interval.String(), s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[sweep] idle sweeper started (interval=%s timeout=%s)", interval, s.timeout)
	return nil
}

func (s *IdleSweeper) Stop() {
	s.cron.Stop()
}

func (s *IdleSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	closed, err := s.sessions.CloseIdle(ctx, time.Now().UTC().Add(-s.timeout))
	if err != nil {
		log.Printf("[sweep] close idle sessions: %v", err)
		return
	}
	if len(closed) == 0 {
		return
	}

	for _, sess := range closed {
		s.hub.PublishSession(sess)
	}
	log.Printf("[sweep] closed %d idle session(s)", len(closed))
}
