package model

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionClosed     = errors.New("session is closed")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrStaleOwner        = errors.New("operator does not own this session")
	ErrAlreadyClaimed    = errors.New("session already claimed")
)

// AlreadyClaimedError reports a lost claim race and names the operator who
// won it, so the console can show who picked the session up instead of
// retrying blindly. errors.Is(err, ErrAlreadyClaimed) matches it.
type AlreadyClaimedError struct {
	OwnerOperatorID string
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("session already claimed by operator %s", e.OwnerOperatorID)
}

func (e *AlreadyClaimedError) Is(target error) bool {
	return target == ErrAlreadyClaimed
}
