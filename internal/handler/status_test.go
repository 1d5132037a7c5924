package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"microfin/internal/model"
	"microfin/internal/workflow"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: model.ErrNotFound, want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("loan x: %w", model.ErrNotFound), want: http.StatusNotFound},
		{name: "insufficient funds", err: model.ErrInsufficientFunds, want: http.StatusConflict},
		{name: "terminal state", err: workflow.ErrTerminalState, want: http.StatusConflict},
		{name: "requires approval", err: model.ErrRequiresApproval, want: http.StatusUnprocessableEntity},
		{name: "invalid amount", err: model.ErrInvalidAmount, want: http.StatusBadRequest},
		{name: "anything else", err: errors.New("boom"), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}
