package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/logging"
)

type categoryService interface {
	ListCategories(ctx context.Context, userID uuid.UUID) ([]domain.Category, error)
	CreateCategory(ctx context.Context, userID uuid.UUID, name, color string, typ domain.CategoryType) (*domain.Category, error)
	CreateSubcategory(ctx context.Context, userID, categoryID uuid.UUID, name string) (*domain.Subcategory, error)
	Reorder(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
	DeleteCategory(ctx context.Context, userID, id uuid.UUID) error
	DeleteSubcategory(ctx context.Context, userID, id uuid.UUID) error
}

type CategoryHandler struct {
	categories categoryService
}

func NewCategoryHandler(categories categoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

type createCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Type  string `json:"type"`
}

func (r createCategoryRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !domain.CategoryType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be income or expense"})
	}
	return errs
}

type createSubcategoryRequest struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

type reorderRequest struct {
	IDs []string `json:"subcategory_ids"`
}

type subcategoryDTO struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	SortOrder  int       `json:"sort_order"`
}

type categoryDTO struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Color         string           `json:"color"`
	Type          string           `json:"type"`
	CreatedAt     time.Time        `json:"created_at"`
	Subcategories []subcategoryDTO `json:"subcategories"`
}

func toSubcategoryDTO(s *domain.Subcategory) subcategoryDTO {
	return subcategoryDTO{ID: s.ID, CategoryID: s.CategoryID, Name: s.Name, SortOrder: s.SortOrder}
}

func toCategoryDTO(c *domain.Category) categoryDTO {
	subs := make([]subcategoryDTO, len(c.Subcategories))
	for i := range c.Subcategories {
		subs[i] = toSubcategoryDTO(&c.Subcategories[i])
	}
	return categoryDTO{
		ID:            c.ID,
		Name:          c.Name,
		Color:         c.Color,
		Type:          string(c.Type),
		CreatedAt:     c.CreatedAt,
		Subcategories: subs,
	}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	categories, err := h.categories.ListCategories(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list categories", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]categoryDTO, len(categories))
	for i := range categories {
		dtos[i] = toCategoryDTO(&categories[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	category, err := h.categories.CreateCategory(r.Context(), userID, req.Name, req.Color, domain.CategoryType(req.Type))
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create category", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toCategoryDTO(category))
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.categories.DeleteCategory(r.Context(), userID, id); err != nil {
		logging.FromContext(r.Context()).Warn("failed to delete category", "error", err, "category_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]uuid.UUID{"id": id})
}

func (h *CategoryHandler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createSubcategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var fields []FieldError
	categoryID := parseUUID(req.CategoryID, "category_id", &fields)
	if req.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "required"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	sub, err := h.categories.CreateSubcategory(r.Context(), userID, categoryID, req.Name)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create subcategory", "error", err, "category_id", categoryID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toSubcategoryDTO(sub))
}

func (h *CategoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, appErr := currentUser(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var fields []FieldError
	if len(req.IDs) == 0 {
		fields = append(fields, FieldError{Field: "subcategory_ids", Message: "required"})
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			fields = append(fields, FieldError{Field: "subcategory_ids", Message: "must contain only uuids"})
			break
		}
		ids = append(ids, id)
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.categories.Reorder(r.Context(), userID, ids); err != nil {
		logging.FromContext(r.Context()).Warn("failed to reorder subcategories", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]int{"reordered": len(ids)})
}

func (h *CategoryHandler) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
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

	if err := h.categories.DeleteSubcategory(r.Context(), userID, id); err != nil {
		logging.FromContext(r.Context()).Warn("failed to delete subcategory", "error", err, "subcategory_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]uuid.UUID{"id": id})
}
