package model

import "errors"

// Ledger error taxonomy. Services wrap these with context via fmt.Errorf %w;
// handlers map them to HTTP status codes with errors.Is.
var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("record not found")
	ErrRequiresApproval  = errors.New("withdrawal requires staged approval")
)
