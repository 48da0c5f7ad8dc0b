package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Cvetanski/dev-t/internal/core"
	applog "github.com/Cvetanski/dev-t/internal/log"
)

// Every API outcome travels over HTTP 200 with an embedded error flag;
// clients must inspect the error field, not the status code. Only the
// transport concerns (auth, method, rate limit) use real status codes.
const (
	msgAddSuccess        = "You Successfully added your expense"
	msgDeleteSuccess     = "You Successfully deleted expense"
	msgInsufficientFunds = "You don't enough finances on your account"
	msgUnexpected        = "Something went wrong"
)

func writeJSON(w http.ResponseWriter, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondMessage(w http.ResponseWriter, message string) {
	writeJSON(w, map[string]any{"error": false, "message": message})
}

func respondData(w http.ResponseWriter, key string, value any) {
	writeJSON(w, map[string]any{"error": false, key: value})
}

func respondValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, map[string]any{"error": true, "message": message})
}

// respondError maps domain errors onto the flat envelope. Unknown errors
// are logged and reported generically.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	message := msgUnexpected
	switch {
	case errors.Is(err, core.ErrInsufficientFunds):
		message = msgInsufficientFunds
	case errors.Is(err, core.ErrExpenseNotFound):
		message = "Expense not found"
	case errors.Is(err, core.ErrCategoryNotFound):
		message = "Category not found"
	case errors.Is(err, core.ErrInvalidAmount):
		message = "The amount must be a non-negative integer"
	case errors.Is(err, core.ErrDescriptionTooLong):
		message = err.Error()
	default:
		slog.ErrorContext(ctx, "Request failed", applog.FieldError, err)
	}
	writeJSON(w, map[string]any{"error": true, "message": message})
}
