package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{Success: true, Data: data})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// Specific errors are matched before kinds, in order.
var specificErrors = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrInvalidCredentials, ErrInvalidCredentials},
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrInvalidDate, ErrInvalidDate},
	{domain.ErrInvalidBalance, ErrInvalidBalance},
	{domain.ErrInvalidPeriod, ErrInvalidPeriod},
	{domain.ErrInvalidAccountType, ErrInvalidAccountType},
	{domain.ErrInvalidCategoryType, ErrInvalidCategoryType},
	{domain.ErrNameRequired, ErrNameRequired},
	{domain.ErrAccountNotOwned, ErrAccountNotOwned},
	{domain.ErrSubcategoryNotOwned, ErrSubcategoryNotOwned},
	{domain.ErrInvalidReorder, ErrInvalidReorder},
	{domain.ErrWeakPassword, ErrWeakPassword},
	{domain.ErrInvalidEmail, ErrInvalidEmail},
	{domain.ErrUnknownSubcategory, ErrUnknownSubcategory},
	{domain.ErrHasTransactions, ErrHasTransactions},
	{domain.ErrVersionConflict, ErrVersionConflict},
	{domain.ErrEmailTaken, ErrEmailTaken},
	{domain.ErrLedgerWrite, ErrLedgerWrite},
}

var errorKinds = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrValidation, ErrValidationFailed},
	{domain.ErrNotFound, ErrResourceNotFound},
	{domain.ErrInvalidReference, ErrInvalidReference},
	{domain.ErrConflict, ErrConflict},
}

func appErrorFor(err error) *AppError {
	for _, m := range specificErrors {
		if errors.Is(err, m.err) {
			return m.appErr
		}
	}
	for _, m := range errorKinds {
		if errors.Is(err, m.err) {
			return m.appErr
		}
	}
	return nil
}

func RespondDomainError(w http.ResponseWriter, err error) {
	appErr := appErrorFor(err)
	if appErr == nil {
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}
	RespondAppError(w, appErr, nil)
}
