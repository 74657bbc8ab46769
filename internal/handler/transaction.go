package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/logging"
	"github.com/josh-kwaku/pocket-ledger/internal/service/ledger"
)

const dateLayout = "2006-01-02"

type ledgerService interface {
	Create(ctx context.Context, req ledger.CreateRequest) (*domain.Transaction, error)
	Update(ctx context.Context, req ledger.UpdateRequest) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.TransactionView, error)
	List(ctx context.Context, userID uuid.UUID, f domain.TransactionFilter) (*ledger.Page, error)
	Verify(ctx context.Context, userID uuid.UUID) ([]domain.BalanceDrift, error)
}

type TransactionHandler struct {
	ledger ledgerService
}

func NewTransactionHandler(ledger ledgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type transactionRequest struct {
	AccountID     string          `json:"account_id"`
	SubcategoryID string          `json:"subcategory_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	Note          string          `json:"note"`
}

type parsedEntry struct {
	accountID     uuid.UUID
	subcategoryID uuid.UUID
	date          time.Time
}

func (r transactionRequest) Validate() (parsedEntry, []FieldError) {
	var errs []FieldError
	var p parsedEntry
	p.accountID = parseUUID(r.AccountID, "account_id", &errs)
	p.subcategoryID = parseUUID(r.SubcategoryID, "subcategory_id", &errs)
	if !domain.ValidAmount(r.Amount) {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero, below 1000000000000 and have at most two decimals"})
	}
	if r.Date == "" {
		errs = append(errs, FieldError{Field: "date", Message: "required"})
	} else if d, err := time.Parse(dateLayout, r.Date); err != nil {
		errs = append(errs, FieldError{Field: "date", Message: "must be YYYY-MM-DD"})
	} else {
		p.date = d
	}
	return p, errs
}

type transactionDTO struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       uuid.UUID       `json:"account_id"`
	SubcategoryID   uuid.UUID       `json:"subcategory_id"`
	Amount          decimal.Decimal `json:"amount"`
	Note            string          `json:"note"`
	Date            string          `json:"date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Type            string          `json:"type,omitempty"`
	AccountName     string          `json:"account_name,omitempty"`
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName    string          `json:"category_name,omitempty"`
	CategoryColor   string          `json:"category_color,omitempty"`
	SubcategoryName string          `json:"subcategory_name,omitempty"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:            t.ID,
		AccountID:     t.AccountID,
		SubcategoryID: t.SubcategoryID,
		Amount:        t.Amount,
		Note:          t.Note,
		Date:          t.Date.Format(dateLayout),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func toTransactionViewDTO(v *domain.TransactionView) transactionDTO {
	dto := toTransactionDTO(&v.Transaction)
	categoryID := v.CategoryID
	dto.Type = string(v.Type)
	dto.AccountName = v.AccountName
	dto.CategoryID = &categoryID
	dto.CategoryName = v.CategoryName
	dto.CategoryColor = v.CategoryColor
	dto.SubcategoryName = v.SubcategoryName
	return dto
}

type transactionPageDTO struct {
	Transactions []transactionDTO `json:"transactions"`
	Total        int              `json:"total"`
	Page         int              `json:"page"`
	Limit        int              `json:"limit"`
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, fields := req.Validate()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.ledger.Create(r.Context(), ledger.CreateRequest{
		UserID:        userID,
		AccountID:     entry.accountID,
		SubcategoryID: entry.subcategoryID,
		Amount:        req.Amount,
		Date:          entry.date,
		Note:          req.Note,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create transaction", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(t))
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, fields := req.Validate()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.ledger.Update(r.Context(), ledger.UpdateRequest{
		UserID:        userID,
		TransactionID: id,
		AccountID:     entry.accountID,
		SubcategoryID: entry.subcategoryID,
		Amount:        req.Amount,
		Date:          entry.date,
		Note:          req.Note,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to update transaction", "error", err, "transaction_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.ledger.Delete(r.Context(), userID, id); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete transaction", "error", err, "transaction_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]uuid.UUID{"id": id})
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	v, err := h.ledger.Get(r.Context(), userID, id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionViewDTO(v))
}

func parseTransactionFilter(r *http.Request) (domain.TransactionFilter, []FieldError) {
	var fields []FieldError
	f := domain.TransactionFilter{
		AccountID:     queryUUID(r, "account_id", &fields),
		CategoryID:    queryUUID(r, "category_id", &fields),
		SubcategoryID: queryUUID(r, "subcategory_id", &fields),
		Year:          queryInt(r, "year", &fields),
		Month:         queryInt(r, "month", &fields),
		Page:          queryInt(r, "page", &fields),
		Limit:         queryInt(r, "limit", &fields),
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		typ := domain.CategoryType(raw)
		if !typ.IsValid() {
			fields = append(fields, FieldError{Field: "type", Message: "must be income or expense"})
		}
		f.Type = &typ
	}
	return f, fields
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	f, fields := parseTransactionFilter(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	page, err := h.ledger.List(r.Context(), userID, f)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list transactions", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(page.Transactions))
	for i := range page.Transactions {
		dtos[i] = toTransactionViewDTO(&page.Transactions[i])
	}
	RespondSuccess(w, http.StatusOK, transactionPageDTO{
		Transactions: dtos,
		Total:        page.Total,
		Page:         page.Page,
		Limit:        page.Limit,
	})
}

type driftDTO struct {
	AccountID uuid.UUID       `json:"account_id"`
	Name      string          `json:"name"`
	Stored    decimal.Decimal `json:"stored_balance"`
	Expected  decimal.Decimal `json:"expected_balance"`
}

type verifyResponse struct {
	Consistent bool       `json:"consistent"`
	Drift      []driftDTO `json:"drift"`
}

func (h *TransactionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	drift, err := h.ledger.Verify(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to verify ledger", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]driftDTO, len(drift))
	for i, d := range drift {
		dtos[i] = driftDTO{AccountID: d.AccountID, Name: d.Name, Stored: d.Stored, Expected: d.Expected}
	}
	if len(drift) > 0 {
		logging.FromContext(r.Context()).Warn("ledger drift detected", "accounts", len(drift))
	}
	RespondSuccess(w, http.StatusOK, verifyResponse{Consistent: len(drift) == 0, Drift: dtos})
}
