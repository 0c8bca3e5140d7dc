package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/driplinehq/dripline-backend/internal/errors"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError maps repository sentinel errors onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	var (
		recipientNF *appErrors.ErrRecipientNotFound
		stepNF      *appErrors.ErrDripStepNotFound
		sendNF      *appErrors.ErrScheduledSendNotFound
		notPending  *appErrors.ErrSendNotPending
	)
	switch {
	case errors.As(err, &recipientNF), errors.As(err, &stepNF), errors.As(err, &sendNF):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &notPending):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
