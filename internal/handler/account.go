package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/logging"
	"github.com/josh-kwaku/pocket-ledger/internal/service"
)

type accountService interface {
	CreateAccount(ctx context.Context, in service.AccountInput) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, in service.AccountUpdate) (*domain.Account, error)
	DeleteAccount(ctx context.Context, userID, id uuid.UUID) error
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountRequest struct {
	Name           string           `json:"name"`
	Type           string           `json:"type"`
	InitialBalance *decimal.Decimal `json:"initial_balance"`
	Currency       string           `json:"currency"`
	IsDefault      *bool            `json:"is_default"`
}

func (r accountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Type == "" {
		errs = append(errs, FieldError{Field: "type", Message: "required"})
	} else if !domain.AccountType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be cash, bank, credit_card, or digital_wallet"})
	}
	return errs
}

func (r accountRequest) input(userID uuid.UUID) service.AccountInput {
	in := service.AccountInput{
		UserID:   userID,
		Name:     r.Name,
		Type:     domain.AccountType(r.Type),
		Currency: r.Currency,
	}
	if r.InitialBalance != nil {
		in.InitialBalance = *r.InitialBalance
	}
	if r.IsDefault != nil {
		in.IsDefault = *r.IsDefault
	}
	return in
}

// update leaves omitted initial_balance and is_default nil so the stored
// values are kept.
func (r accountRequest) update(userID, id uuid.UUID) service.AccountUpdate {
	return service.AccountUpdate{
		UserID:         userID,
		ID:             id,
		Name:           r.Name,
		Type:           domain.AccountType(r.Type),
		InitialBalance: r.InitialBalance,
		IsDefault:      r.IsDefault,
	}
}

type accountDTO struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Currency       string          `json:"currency"`
	IsDefault      bool            `json:"is_default"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance,
		CurrentBalance: a.CurrentBalance,
		Currency:       a.Currency,
		IsDefault:      a.IsDefault,
		CreatedAt:      a.CreatedAt,
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.input(userID))
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := pathID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := h.accounts.UpdateAccount(r.Context(), req.update(userID, id))
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to update account", "error", err, "account_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := pathID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), userID, id); err != nil {
		logging.FromContext(r.Context()).Warn("failed to delete account", "error", err, "account_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]uuid.UUID{"id": id})
}
