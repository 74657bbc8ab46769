package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/logging"
	"github.com/josh-kwaku/pocket-ledger/internal/repository"
)

type categoryRepo interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.Category) error
	ListWithSubcategories(ctx context.Context, userID uuid.UUID) ([]domain.Category, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) (*domain.Category, error)
	CountTransactions(ctx context.Context, q repository.Querier, id uuid.UUID) (int, error)
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type subcategoryRepo interface {
	Resolve(ctx context.Context, q repository.Querier, userID, id uuid.UUID) (*repository.SubcategoryRef, error)
	ResolveMany(ctx context.Context, q repository.Querier, userID uuid.UUID, ids []uuid.UUID) ([]repository.SubcategoryRef, error)
	ListIDsByCategory(ctx context.Context, q repository.Querier, categoryID uuid.UUID) ([]uuid.UUID, error)
	Create(ctx context.Context, tx *sql.Tx, s *domain.Subcategory) error
	SetSortOrder(ctx context.Context, tx *sql.Tx, id uuid.UUID, sortOrder int) error
	CountTransactions(ctx context.Context, q repository.Querier, id uuid.UUID) (int, error)
	Delete(ctx context.Context, tx *sql.Tx, s *domain.Subcategory) error
}

type CategoryService struct {
	categories    categoryRepo
	subcategories subcategoryRepo
	db            *sql.DB
}

func NewCategoryService(categories categoryRepo, subcategories subcategoryRepo, db *sql.DB) *CategoryService {
	return &CategoryService{categories: categories, subcategories: subcategories, db: db}
}

func (s *CategoryService) ListCategories(ctx context.Context, userID uuid.UUID) ([]domain.Category, error) {
	categories, err := s.categories.ListWithSubcategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, userID uuid.UUID, name, color string, typ domain.CategoryType) (*domain.Category, error) {
	log := logging.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("CreateCategory: %w", domain.ErrNameRequired)
	}
	if !typ.IsValid() {
		return nil, fmt.Errorf("CreateCategory: %w", domain.ErrInvalidCategoryType)
	}
	if color = strings.TrimSpace(color); color == "" {
		color = domain.DefaultCategoryColor
	}

	c := &domain.Category{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		Color:         color,
		Type:          typ,
		CreatedAt:     time.Now().UTC(),
		Subcategories: []domain.Subcategory{},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateCategory: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.categories.Create(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("CreateCategory: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateCategory: commit: %w", err)
	}

	log.Info("category created", "category_id", c.ID, "type", c.Type)
	return c, nil
}

// CreateSubcategory appends name at the end of the category's order.
func (s *CategoryService) CreateSubcategory(ctx context.Context, userID, categoryID uuid.UUID, name string) (*domain.Subcategory, error) {
	log := logging.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("CreateSubcategory: %w", domain.ErrNameRequired)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateSubcategory: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.categories.GetForUpdate(ctx, tx, userID, categoryID); err != nil {
		return nil, fmt.Errorf("CreateSubcategory: %w", err)
	}

	sub := &domain.Subcategory{ID: uuid.New(), CategoryID: categoryID, Name: name}
	if err := s.subcategories.Create(ctx, tx, sub); err != nil {
		return nil, fmt.Errorf("CreateSubcategory: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateSubcategory: commit: %w", err)
	}

	log.Info("subcategory created", "subcategory_id", sub.ID, "category_id", categoryID, "sort_order", sub.SortOrder)
	return sub, nil
}

// Reorder assigns sort_order = position + 1. The ids must be exactly the
// subcategories of one of the caller's categories; nothing is written
// otherwise.
func (s *CategoryService) Reorder(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	log := logging.FromContext(ctx)

	if len(ids) == 0 || hasDuplicates(ids) {
		return fmt.Errorf("Reorder: %w", domain.ErrInvalidReorder)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Reorder: begin tx: %w", err)
	}
	defer tx.Rollback()

	refs, err := s.subcategories.ResolveMany(ctx, tx, userID, ids)
	if err != nil {
		return fmt.Errorf("Reorder: %w", err)
	}
	if len(refs) != len(ids) {
		return fmt.Errorf("Reorder: %d of %d subcategories: %w", len(ids)-len(refs), len(ids), domain.ErrNotFound)
	}

	categoryID := refs[0].CategoryID
	for _, ref := range refs[1:] {
		if ref.CategoryID != categoryID {
			return fmt.Errorf("Reorder: mixed categories: %w", domain.ErrInvalidReorder)
		}
	}

	if _, err := s.categories.GetForUpdate(ctx, tx, userID, categoryID); err != nil {
		return fmt.Errorf("Reorder: %w", err)
	}
	siblings, err := s.subcategories.ListIDsByCategory(ctx, tx, categoryID)
	if err != nil {
		return fmt.Errorf("Reorder: %w", err)
	}
	if !sameIDs(siblings, ids) {
		return fmt.Errorf("Reorder: %d ids for %d subcategories: %w", len(ids), len(siblings), domain.ErrInvalidReorder)
	}

	for i, id := range ids {
		if err := s.subcategories.SetSortOrder(ctx, tx, id, i+1); err != nil {
			return fmt.Errorf("Reorder: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Reorder: commit: %w", err)
	}

	log.Info("subcategories reordered", "category_id", categoryID, "count", len(ids))
	return nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteCategory: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.categories.GetForUpdate(ctx, tx, userID, id); err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}

	n, err := s.categories.CountTransactions(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("DeleteCategory: %d transactions: %w", n, domain.ErrHasTransactions)
	}

	if err := s.categories.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteCategory: commit: %w", err)
	}

	log.Info("category deleted", "category_id", id)
	return nil
}

// DeleteSubcategory removes the subcategory and closes the gap in its
// siblings' order.
func (s *CategoryService) DeleteSubcategory(ctx context.Context, userID, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteSubcategory: begin tx: %w", err)
	}
	defer tx.Rollback()

	ref, err := s.subcategories.Resolve(ctx, tx, userID, id)
	if err != nil {
		return fmt.Errorf("DeleteSubcategory: %w", err)
	}
	if _, err := s.categories.GetForUpdate(ctx, tx, userID, ref.CategoryID); err != nil {
		return fmt.Errorf("DeleteSubcategory: %w", err)
	}
	// sort_order may have moved while waiting for the category lock
	if ref, err = s.subcategories.Resolve(ctx, tx, userID, id); err != nil {
		return fmt.Errorf("DeleteSubcategory: %w", err)
	}

	n, err := s.subcategories.CountTransactions(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("DeleteSubcategory: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("DeleteSubcategory: %d transactions: %w", n, domain.ErrHasTransactions)
	}

	if err := s.subcategories.Delete(ctx, tx, &ref.Subcategory); err != nil {
		return fmt.Errorf("DeleteSubcategory: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteSubcategory: commit: %w", err)
	}

	log.Info("subcategory deleted", "subcategory_id", id, "category_id", ref.CategoryID)
	return nil
}

func hasDuplicates(ids []uuid.UUID) bool {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

// sameIDs reports whether want holds exactly the ids in have. Both are
// duplicate free.
func sameIDs(have, want []uuid.UUID) bool {
	if len(have) != len(want) {
		return false
	}
	set := make(map[uuid.UUID]struct{}, len(have))
	for _, id := range have {
		set[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
