package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vitaleevo/namtechpro-sub001/internal/model"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    model.SessionStatus
		to      model.SessionStatus
		wantErr error
	}{
		{"bot to human", model.StatusBot, model.StatusHuman, nil},
		{"bot to closed", model.StatusBot, model.StatusClosed, nil},
		{"human to bot", model.StatusHuman, model.StatusBot, nil},
		{"human to closed", model.StatusHuman, model.StatusClosed, nil},
		{"bot to bot", model.StatusBot, model.StatusBot, model.ErrInvalidTransition},
		{"human to human", model.StatusHuman, model.StatusHuman, model.ErrInvalidTransition},
		{"closed to bot", model.StatusClosed, model.StatusBot, model.ErrSessionClosed},
		{"closed to human", model.StatusClosed, model.StatusHuman, model.ErrSessionClosed},
		{"closed to closed", model.StatusClosed, model.StatusClosed, model.ErrInvalidTransition},
		{"unknown target", model.StatusBot, model.SessionStatus("archived"), model.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
