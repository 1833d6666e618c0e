package service

import (
	"github.com/qmuntal/stateless"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

// Lifecycle triggers. Each permitted edge of the session state machine is
// reached through exactly one trigger.
var (
	triggerClaim   stateless.Trigger = "Claim"
	triggerRelease stateless.Trigger = "Release"
	triggerClose   stateless.Trigger = "Close"
)

// newLifecycleMachine builds the session state machine positioned at the
// given status:
//
//	bot   --Claim-->   human
//	human --Release--> bot
//	bot|human --Close--> closed
//	closed: terminal, no edges out
func newLifecycleMachine(current model.SessionStatus) *stateless.StateMachine {
	m := stateless.NewStateMachine(current)
	m.Configure(model.StatusBot).
		Permit(triggerClaim, model.StatusHuman).
		Permit(triggerClose, model.StatusClosed)
	m.Configure(model.StatusHuman).
		Permit(triggerRelease, model.StatusBot).
		Permit(triggerClose, model.StatusClosed)
	m.Configure(model.StatusClosed)
	return m
}

// triggerFor maps a requested target status to the trigger that reaches it.
func triggerFor(target model.SessionStatus) (stateless.Trigger, bool) {
	switch target {
	case model.StatusHuman:
		return triggerClaim, true
	case model.StatusBot:
		return triggerRelease, true
	case model.StatusClosed:
		return triggerClose, true
	}
	return nil, false
}

// ValidateTransition checks the from→to edge against the lifecycle table.
// Edges out of a closed session fail with model.ErrSessionClosed; any other
// missing edge fails with model.ErrInvalidTransition.
func ValidateTransition(from, to model.SessionStatus) error {
	trigger, ok := triggerFor(to)
	if !ok || from == to {
		return model.ErrInvalidTransition
	}
	if from == model.StatusClosed {
		return model.ErrSessionClosed
	}
	canFire, err := newLifecycleMachine(from).CanFire(trigger)
	if err != nil || !canFire {
		return model.ErrInvalidTransition
	}
	return nil
}
