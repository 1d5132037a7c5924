// Package workflow implements the staged approval chain shared by loan
// disbursement and restricted withdrawal requests. Three distinct authorizers
// each move an item exactly one step forward; no single role can reach
// APPROVED alone.
package workflow

import "errors"

// Status values. The three pending stages are ordered; APPROVED and REJECTED
// are terminal.
const (
	StatusPendingStage1 = "PENDING_STAGE_1"
	StatusPendingStage2 = "PENDING_STAGE_2"
	StatusPendingStage3 = "PENDING_STAGE_3"
	StatusApproved      = "APPROVED"
	StatusRejected      = "REJECTED"
)

// ErrTerminalState is returned when Advance or Reject is called on an item
// already at APPROVED or REJECTED.
var ErrTerminalState = errors.New("approval status is terminal")

// transitions is the full state machine: each status maps to the only status
// Advance may move it to. Absence from the table means terminal. Skipping a
// stage or advancing a rejected item is structurally unreachable.
var transitions = map[string]string{
	StatusPendingStage1: StatusPendingStage2,
	StatusPendingStage2: StatusPendingStage3,
	StatusPendingStage3: StatusApproved,
}

// Advance returns the next status in the chain, moving exactly one step
// forward. Calling it on a terminal status returns ErrTerminalState and the
// status unchanged.
func Advance(current string) (string, error) {
	next, ok := transitions[current]
	if !ok {
		return current, ErrTerminalState
	}
	return next, nil
}

// Reject resolves a pending item to REJECTED. An already-terminal item cannot
// be rejected.
func Reject(current string) (string, error) {
	if IsTerminal(current) {
		return current, ErrTerminalState
	}
	return StatusRejected, nil
}

// IsTerminal reports whether no further transition is permitted from status.
func IsTerminal(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// Stage returns the 1-based pending stage of status, or 0 for terminal or
// unknown statuses. Used to record which authorizer cleared which stage.
func Stage(status string) int {
	switch status {
	case StatusPendingStage1:
		return 1
	case StatusPendingStage2:
		return 2
	case StatusPendingStage3:
		return 3
	}
	return 0
}
