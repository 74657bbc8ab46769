package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInvalidReference   = &AppError{http.StatusUnprocessableEntity, "INVALID_REFERENCE", "Referenced resource does not exist"}
	ErrConflict           = &AppError{http.StatusConflict, "CONFLICT", "Request conflicts with current state"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero, below 1000000000000 and have at most two decimals"}
	ErrInvalidPeriod       = &AppError{http.StatusBadRequest, "INVALID_PERIOD", "Invalid year or month"}
	ErrInvalidDate         = &AppError{http.StatusBadRequest, "INVALID_DATE", "Date is required"}
	ErrInvalidBalance      = &AppError{http.StatusBadRequest, "INVALID_BALANCE", "Balance must have at most two decimals"}
	ErrInvalidAccountType  = &AppError{http.StatusBadRequest, "INVALID_ACCOUNT_TYPE", "Account type must be cash, bank, credit_card or digital_wallet"}
	ErrInvalidCategoryType = &AppError{http.StatusBadRequest, "INVALID_CATEGORY_TYPE", "Category type must be income or expense"}
	ErrNameRequired        = &AppError{http.StatusBadRequest, "NAME_REQUIRED", "Name is required"}
	ErrAccountNotOwned     = &AppError{http.StatusBadRequest, "ACCOUNT_NOT_OWNED", "Account does not belong to user"}
	ErrSubcategoryNotOwned = &AppError{http.StatusBadRequest, "SUBCATEGORY_NOT_OWNED", "Subcategory does not belong to user"}
	ErrInvalidReorder      = &AppError{http.StatusBadRequest, "INVALID_REORDER", "Reorder list must name every subcategory of one category exactly once"}
	ErrWeakPassword        = &AppError{http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters"}
	ErrInvalidEmail        = &AppError{http.StatusBadRequest, "INVALID_EMAIL", "Invalid email"}
	ErrUnknownSubcategory  = &AppError{http.StatusUnprocessableEntity, "UNKNOWN_SUBCATEGORY", "Subcategory does not resolve to a category"}
	ErrHasTransactions     = &AppError{http.StatusConflict, "HAS_TRANSACTIONS", "Resource is referenced by transactions"}
	ErrVersionConflict     = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrEmailTaken          = &AppError{http.StatusConflict, "EMAIL_TAKEN", "Email already registered"}
	ErrLedgerWrite         = &AppError{http.StatusConflict, "LEDGER_WRITE_FAILED", "Ledger write failed, no changes were applied"}
	ErrIdempotencyConflict = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
