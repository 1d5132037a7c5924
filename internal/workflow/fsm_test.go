package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"microfin/internal/workflow"
)

func TestAdvanceChain(t *testing.T) {
	status := workflow.StatusPendingStage1

	status, err := workflow.Advance(status)
	assert.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingStage2, status)

	status, err = workflow.Advance(status)
	assert.NoError(t, err)
	assert.Equal(t, workflow.StatusPendingStage3, status)

	status, err = workflow.Advance(status)
	assert.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, status)
}

func TestAdvanceTerminal(t *testing.T) {
	for _, status := range []string{workflow.StatusApproved, workflow.StatusRejected} {
		next, err := workflow.Advance(status)
		assert.ErrorIs(t, err, workflow.ErrTerminalState)
		assert.Equal(t, status, next, "terminal status must not move")
	}
}

func TestReject(t *testing.T) {
	tests := []struct {
		name    string
		current string
		want    string
		wantErr error
	}{
		{name: "reject from stage 1", current: workflow.StatusPendingStage1, want: workflow.StatusRejected},
		{name: "reject from stage 2", current: workflow.StatusPendingStage2, want: workflow.StatusRejected},
		{name: "reject from stage 3", current: workflow.StatusPendingStage3, want: workflow.StatusRejected},
		{name: "reject approved fails", current: workflow.StatusApproved, want: workflow.StatusApproved, wantErr: workflow.ErrTerminalState},
		{name: "reject rejected fails", current: workflow.StatusRejected, want: workflow.StatusRejected, wantErr: workflow.ErrTerminalState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := workflow.Reject(tt.current)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, workflow.IsTerminal(workflow.StatusPendingStage1))
	assert.False(t, workflow.IsTerminal(workflow.StatusPendingStage2))
	assert.False(t, workflow.IsTerminal(workflow.StatusPendingStage3))
	assert.True(t, workflow.IsTerminal(workflow.StatusApproved))
	assert.True(t, workflow.IsTerminal(workflow.StatusRejected))
}

func TestStage(t *testing.T) {
	assert.Equal(t, 1, workflow.Stage(workflow.StatusPendingStage1))
	assert.Equal(t, 2, workflow.Stage(workflow.StatusPendingStage2))
	assert.Equal(t, 3, workflow.Stage(workflow.StatusPendingStage3))
	assert.Equal(t, 0, workflow.Stage(workflow.StatusApproved))
	assert.Equal(t, 0, workflow.Stage("GARBAGE"))
}
