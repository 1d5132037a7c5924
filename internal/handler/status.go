package handler

import (
	"errors"
	"net/http"

	"microfin/internal/model"
	"microfin/internal/workflow"
)

// errorStatus maps the engine's error taxonomy to HTTP status codes. Anything
// outside the taxonomy is a caller mistake (bad payload, unparseable field)
// and reads as 400.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInsufficientFunds):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrTerminalState):
		return http.StatusConflict
	case errors.Is(err, model.ErrRequiresApproval):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
