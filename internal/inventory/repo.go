package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mconcas/pantrybot-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultItemsPageSize   = 200
	defaultBarcodePageSize = 50
)

// Repository encapsulates owner-partitioned inventory persistence. Absence is
// reported as zero values, never as an error; callers branch on emptiness.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an inventory repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EnsureCategories idempotently creates any missing categories from names.
func (r *Repository) EnsureCategories(ctx context.Context, ownerID int64, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, err := r.AddCategory(ctx, ownerID, name); err != nil {
			return err
		}
	}
	return nil
}

// AddCategory inserts a category, reporting false when the exact name already
// exists for the owner. The per-owner unique constraint makes the probe
// race-safe.
func (r *Repository) AddCategory(ctx context.Context, ownerID int64, name string) (bool, error) {
	category := models.Category{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(&category)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteCategory removes a category by exact name. Referential policy (no
// delete while items reference the category) lives in the service layer.
func (r *Repository) DeleteCategory(ctx context.Context, ownerID int64, name string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Delete(&models.Category{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListCategories returns the owner's categories ordered by creation time.
func (r *Repository) ListCategories(ctx context.Context, ownerID int64) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&categories).Error
	return categories, err
}

// AddItem inserts one new lot; it never merges into an existing one.
func (r *Repository) AddItem(ctx context.Context, params AddItemParams) (uuid.UUID, error) {
	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	item := models.Item{
		ID:          uuid.New(),
		OwnerID:     params.OwnerID,
		Barcode:     params.Barcode,
		ProductName: params.ProductName,
		Category:    params.Category,
		Quantity:    quantity,
		AddedAt:     time.Now().UTC(),
		ExpiryDate:  params.ExpiryDate,
		ProductInfo: params.ProductInfo,
		Verified:    params.Verified,
	}
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return uuid.Nil, err
	}
	return item.ID, nil
}

// ListItems returns the owner's items newest-first, optionally filtered by
// exact category, capped at the items page size.
func (r *Repository) ListItems(ctx context.Context, ownerID int64, category string, limit int) ([]models.Item, error) {
	if limit <= 0 {
		limit = defaultItemsPageSize
	}
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var items []models.Item
	err := query.Order("added_at DESC").Limit(limit).Find(&items).Error
	return items, err
}

// FindItemsByBarcode returns matching lots oldest-first so unit removal
// consumes the oldest lot.
func (r *Repository) FindItemsByBarcode(ctx context.Context, ownerID int64, barcode, category string, limit int) ([]models.Item, error) {
	if limit <= 0 {
		limit = defaultBarcodePageSize
	}
	query := r.db.WithContext(ctx).Where("owner_id = ? AND barcode = ?", ownerID, barcode)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var items []models.Item
	err := query.Order("added_at ASC").Limit(limit).Find(&items).Error
	return items, err
}

// UpdateItem applies a typed partial update; false when the id is unknown.
func (r *Repository) UpdateItem(ctx context.Context, itemID uuid.UUID, patch ItemPatch) (bool, error) {
	updates := patch.assignments()
	if len(updates) == 0 {
		return false, errors.New("empty item patch")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteItem removes a lot only when it belongs to ownerID. A foreign owner's
// id yields false, indistinguishable from not-found.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID, ownerID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", itemID, ownerID).
		Delete(&models.Item{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteItemsByBarcode removes up to limit oldest-first matching lots and
// returns the count removed. limit <= 0 removes every match.
func (r *Repository) DeleteItemsByBarcode(ctx context.Context, ownerID int64, barcode, category string, limit int) (int, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("owner_id = ? AND barcode = ?", ownerID, barcode)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	query = query.Order("added_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var ids []uuid.UUID
	if err := query.Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.Item{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// UnverifiedItems returns unverified lots newest-first, deduplicated to one
// row per barcode so review prompts once per product rather than per lot.
func (r *Repository) UnverifiedItems(ctx context.Context, ownerID int64, size int) ([]models.Item, error) {
	if size <= 0 {
		size = 20
	}
	var rows []models.Item
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND verified = ?", ownerID, false).
		Order("added_at DESC").
		Limit(defaultItemsPageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows))
	deduped := make([]models.Item, 0, size)
	for _, row := range rows {
		if _, ok := seen[row.Barcode]; ok {
			continue
		}
		seen[row.Barcode] = struct{}{}
		deduped = append(deduped, row)
		if len(deduped) == size {
			break
		}
	}
	return deduped, nil
}

// VerifyItemsByBarcode marks every lot sharing the barcode verified,
// optionally renaming, across all of the owner's categories.
func (r *Repository) VerifyItemsByBarcode(ctx context.Context, ownerID int64, barcode string, newName string) (int, error) {
	updates := map[string]any{"verified": true}
	if newName != "" {
		updates["product_name"] = newName
	}
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("owner_id = ? AND barcode = ?", ownerID, barcode).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// RetargetBarcode moves every lot under oldBarcode to newBarcode.
func (r *Repository) RetargetBarcode(ctx context.Context, ownerID int64, oldBarcode, newBarcode string) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("owner_id = ? AND barcode = ?", ownerID, oldBarcode).
		Update("barcode", newBarcode)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// SearchItems matches product names case-insensitively for an owner.
func (r *Repository) SearchItems(ctx context.Context, ownerID int64, query string, limit int) ([]models.Item, error) {
	if limit <= 0 {
		limit = 30
	}
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND LOWER(product_name) LIKE LOWER(?)", ownerID, "%"+query+"%").
		Order("added_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// CategoryQuantities aggregates unit counts per category for an owner.
func (r *Repository) CategoryQuantities(ctx context.Context, ownerID int64) (map[string]int, error) {
	type row struct {
		Category string
		Total    int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Select("category, SUM(quantity) AS total").
		Where("owner_id = ?", ownerID).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int, len(rows))
	for _, r := range rows {
		totals[r.Category] = r.Total
	}
	return totals, nil
}

// CachedProduct looks up a previously fetched product by barcode; nil when
// absent.
func (r *Repository) CachedProduct(ctx context.Context, barcode string) (*models.CachedProduct, error) {
	var entry models.CachedProduct
	err := r.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CacheProduct upserts the cache entry keyed by barcode; later writes
// overwrite in place.
func (r *Repository) CacheProduct(ctx context.Context, params CacheProductParams) (uuid.UUID, error) {
	entry := models.CachedProduct{
		ID:          uuid.New(),
		Barcode:     params.Barcode,
		ProductName: params.ProductName,
		Brand:       params.Brand,
		ImageURL:    params.ImageURL,
		Raw:         params.Raw,
		FetchedAt:   time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "barcode"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"product_name", "brand", "image_url", "raw", "fetched_at",
			}),
		}).
		Create(&entry).Error
	if err != nil {
		return uuid.Nil, err
	}

	stored, err := r.CachedProduct(ctx, params.Barcode)
	if err != nil {
		return uuid.Nil, err
	}
	if stored == nil {
		return entry.ID, nil
	}
	return stored.ID, nil
}
