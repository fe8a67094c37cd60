package inventory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mconcas/pantrybot-backend/pkg/db/models"
	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
)

// ReservedDelimiter separates segments inside callback tokens; user-supplied
// names must not contain it so tokens stay unambiguous.
const ReservedDelimiter = ":"

// ServiceParams groups dependencies for the inventory service.
type ServiceParams struct {
	Repo              *Repository
	DefaultCategories []string
	ItemsPageSize     int
	BarcodePageSize   int
	ReviewPageSize    int
}

// Service exposes the owner-scoped inventory contract consumed by the
// conversational flows and the scan engine.
type Service interface {
	EnsureDefaultCategories(ctx context.Context, ownerID int64) error
	Categories(ctx context.Context, ownerID int64) ([]CategorySummary, error)
	CategoryNames(ctx context.Context, ownerID int64) ([]string, error)
	AddCategory(ctx context.Context, ownerID int64, name string) (bool, error)
	DeleteCategory(ctx context.Context, ownerID int64, name string) error

	AddItem(ctx context.Context, params AddItemParams) (uuid.UUID, error)
	GroupedItems(ctx context.Context, ownerID int64, category string) ([]GroupedProduct, error)
	DeleteOneUnit(ctx context.Context, ownerID int64, barcode, category string) (bool, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID, ownerID int64) (bool, error)
	SearchItems(ctx context.Context, ownerID int64, query string) ([]models.Item, error)

	UnverifiedProducts(ctx context.Context, ownerID int64) ([]models.Item, error)
	VerifyProduct(ctx context.Context, ownerID int64, barcode string) (int, error)
	RenameProduct(ctx context.Context, ownerID int64, barcode, newName string) (int, error)
	RetargetBarcode(ctx context.Context, ownerID int64, oldBarcode, newBarcode string) (int, string, error)
	RemoveProduct(ctx context.Context, ownerID int64, barcode string) (int, error)

	CachedProduct(ctx context.Context, barcode string) (*models.CachedProduct, error)
	CacheProduct(ctx context.Context, params CacheProductParams) (uuid.UUID, error)
}

type service struct {
	repo              *Repository
	defaultCategories []string
	itemsPageSize     int
	barcodePageSize   int
	reviewPageSize    int
}

// NewService builds an inventory service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory repo is required")
	}
	return &service{
		repo:              params.Repo,
		defaultCategories: params.DefaultCategories,
		itemsPageSize:     params.ItemsPageSize,
		barcodePageSize:   params.BarcodePageSize,
		reviewPageSize:    params.ReviewPageSize,
	}, nil
}

func (s *service) EnsureDefaultCategories(ctx context.Context, ownerID int64) error {
	return s.repo.EnsureCategories(ctx, ownerID, s.defaultCategories)
}

// Categories lists the owner's categories with aggregated unit counts,
// ordered by creation time.
func (s *service) Categories(ctx context.Context, ownerID int64) ([]CategorySummary, error) {
	categories, err := s.repo.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.CategoryQuantities(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	summaries := make([]CategorySummary, 0, len(categories))
	for _, cat := range categories {
		summaries = append(summaries, CategorySummary{
			Name:      cat.Name,
			CreatedAt: cat.CreatedAt,
			Quantity:  totals[cat.Name],
		})
	}
	return summaries, nil
}

func (s *service) CategoryNames(ctx context.Context, ownerID int64) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}
	return names, nil
}

func (s *service) AddCategory(ctx context.Context, ownerID int64, name string) (bool, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
	}
	if strings.Contains(trimmed, ReservedDelimiter) {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "category name contains reserved characters")
	}
	return s.repo.AddCategory(ctx, ownerID, trimmed)
}

// DeleteCategory enforces the referential guard: a category still referenced
// by items cannot be removed.
func (s *service) DeleteCategory(ctx context.Context, ownerID int64, name string) error {
	items, err := s.repo.ListItems(ctx, ownerID, name, 1)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has items")
	}
	deleted, err := s.repo.DeleteCategory(ctx, ownerID, name)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *service) AddItem(ctx context.Context, params AddItemParams) (uuid.UUID, error) {
	if params.Barcode == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	if params.Category == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	return s.repo.AddItem(ctx, params)
}

// GroupedItems folds the owner's lots in a category into one line per
// barcode, quantities summed, oldest lot id retained for ordering.
func (s *service) GroupedItems(ctx context.Context, ownerID int64, category string) ([]GroupedProduct, error) {
	items, err := s.repo.ListItems(ctx, ownerID, category, s.itemsPageSize)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*GroupedProduct, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		entry, ok := grouped[item.Barcode]
		if !ok {
			entry = &GroupedProduct{
				Barcode:     item.Barcode,
				ProductName: item.ProductName,
				Category:    item.Category,
				Verified:    item.Verified,
				OldestID:    item.ID,
				AddedAt:     item.AddedAt,
			}
			grouped[item.Barcode] = entry
			order = append(order, item.Barcode)
		}
		entry.Quantity += item.Quantity
		// verification is a product-level fact: one verified lot means the
		// name was confirmed, so later unverified lots don't demote it
		entry.Verified = entry.Verified || item.Verified
		// rows arrive newest-first, so the last row seen is the oldest lot
		entry.OldestID = item.ID
		if item.AddedAt.After(entry.AddedAt) {
			entry.AddedAt = item.AddedAt
		}
	}

	result := make([]GroupedProduct, 0, len(order))
	for _, barcode := range order {
		result = append(result, *grouped[barcode])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AddedAt.After(result[j].AddedAt)
	})
	return result, nil
}

// DeleteOneUnit removes the oldest lot matching the barcode in a category.
func (s *service) DeleteOneUnit(ctx context.Context, ownerID int64, barcode, category string) (bool, error) {
	deleted, err := s.repo.DeleteItemsByBarcode(ctx, ownerID, barcode, category, 1)
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

func (s *service) DeleteItem(ctx context.Context, itemID uuid.UUID, ownerID int64) (bool, error) {
	return s.repo.DeleteItem(ctx, itemID, ownerID)
}

func (s *service) SearchItems(ctx context.Context, ownerID int64, query string) ([]models.Item, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}
	return s.repo.SearchItems(ctx, ownerID, trimmed, 0)
}

func (s *service) UnverifiedProducts(ctx context.Context, ownerID int64) ([]models.Item, error) {
	return s.repo.UnverifiedItems(ctx, ownerID, s.reviewPageSize)
}

func (s *service) VerifyProduct(ctx context.Context, ownerID int64, barcode string) (int, error) {
	return s.repo.VerifyItemsByBarcode(ctx, ownerID, barcode, "")
}

// RenameProduct verifies and renames every lot under the barcode, and writes
// the corrected name back into the shared product cache so later scans
// inherit the fix.
func (s *service) RenameProduct(ctx context.Context, ownerID int64, barcode, newName string) (int, error) {
	trimmed := strings.TrimSpace(newName)
	if trimmed == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
	}
	if strings.Contains(trimmed, ReservedDelimiter) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product name contains reserved characters")
	}
	count, err := s.repo.VerifyItemsByBarcode(ctx, ownerID, barcode, trimmed)
	if err != nil {
		return 0, err
	}
	if _, err := s.repo.CacheProduct(ctx, CacheProductParams{Barcode: barcode, ProductName: trimmed}); err != nil {
		return count, err
	}
	return count, nil
}

// RetargetBarcode moves every lot from oldBarcode to newBarcode. When the
// new barcode already has a cache entry, its trusted name is adopted and the
// lots are verified in the same pass.
func (s *service) RetargetBarcode(ctx context.Context, ownerID int64, oldBarcode, newBarcode string) (int, string, error) {
	trimmed := strings.TrimSpace(newBarcode)
	if trimmed == "" {
		return 0, "", pkgerrors.New(pkgerrors.CodeValidation, "barcode cannot be empty")
	}
	if strings.Contains(trimmed, ReservedDelimiter) {
		return 0, "", pkgerrors.New(pkgerrors.CodeValidation, "barcode contains reserved characters")
	}
	moved, err := s.repo.RetargetBarcode(ctx, ownerID, oldBarcode, trimmed)
	if err != nil {
		return 0, "", err
	}
	if moved == 0 {
		return 0, "", nil
	}

	cached, err := s.repo.CachedProduct(ctx, trimmed)
	if err != nil {
		return moved, "", err
	}
	if cached == nil {
		return moved, "", nil
	}
	if _, err := s.repo.VerifyItemsByBarcode(ctx, ownerID, trimmed, cached.ProductName); err != nil {
		return moved, "", err
	}
	return moved, cached.ProductName, nil
}

// RemoveProduct deletes every lot matching the barcode across all categories.
func (s *service) RemoveProduct(ctx context.Context, ownerID int64, barcode string) (int, error) {
	return s.repo.DeleteItemsByBarcode(ctx, ownerID, barcode, "", 0)
}

func (s *service) CachedProduct(ctx context.Context, barcode string) (*models.CachedProduct, error) {
	return s.repo.CachedProduct(ctx, barcode)
}

func (s *service) CacheProduct(ctx context.Context, params CacheProductParams) (uuid.UUID, error) {
	if params.Barcode == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	return s.repo.CacheProduct(ctx, params)
}
