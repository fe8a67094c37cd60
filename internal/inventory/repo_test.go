package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mconcas/pantrybot-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  owner_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  created_at DATETIME NOT NULL,
  UNIQUE (owner_id, name)
);`
	items := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  owner_id INTEGER NOT NULL,
  barcode TEXT NOT NULL,
  product_name TEXT NOT NULL,
  category TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  added_at DATETIME NOT NULL,
  expiry_date DATE,
  product_info TEXT,
  verified INTEGER NOT NULL DEFAULT 0
);`
	productCache := `
CREATE TABLE IF NOT EXISTS product_cache (
  id TEXT PRIMARY KEY,
  barcode TEXT NOT NULL UNIQUE,
  product_name TEXT NOT NULL,
  brand TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  raw TEXT,
  fetched_at DATETIME NOT NULL
);`
	require.NoError(t, db.Exec(categories).Error)
	require.NoError(t, db.Exec(items).Error)
	require.NoError(t, db.Exec(productCache).Error)
	return db
}

// nextOwnerID hands out distinct owners so tests sharing the cache=shared
// database never see each other's rows.
var ownerSeq int64 = 7000

func nextOwnerID() int64 {
	ownerSeq++
	return ownerSeq
}

func seedItem(t *testing.T, db *gorm.DB, ownerID int64, barcode, name, category string, addedAt time.Time, verified bool) *models.Item {
	t.Helper()

	item := &models.Item{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Barcode:     barcode,
		ProductName: name,
		Category:    category,
		Quantity:    1,
		AddedAt:     addedAt,
		Verified:    verified,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestRepositoryAddCategory_duplicateIsNoop(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	created, err := repo.AddCategory(context.Background(), owner, "Fridge")
	require.NoError(t, err)
	assert.True(t, created)

	again, err := repo.AddCategory(context.Background(), owner, "Fridge")
	require.NoError(t, err)
	assert.False(t, again)

	// same name for a different owner is a fresh row
	other, err := repo.AddCategory(context.Background(), nextOwnerID(), "Fridge")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestRepositoryEnsureCategories_skipsExisting(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	require.NoError(t, repo.EnsureCategories(context.Background(), owner, []string{"Pantry", "Fridge", ""}))
	require.NoError(t, repo.EnsureCategories(context.Background(), owner, []string{"Pantry", "Freezer"}))

	categories, err := repo.ListCategories(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Pantry", categories[0].Name)
}

func TestRepositoryListItems_ownerIsolation(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()
	stranger := nextOwnerID()

	now := time.Now().UTC()
	seedItem(t, db, owner, "111", "Milk", "Fridge", now, true)
	seedItem(t, db, stranger, "111", "Milk", "Fridge", now, true)

	items, err := repo.ListItems(context.Background(), owner, "", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, owner, items[0].OwnerID)
}

func TestRepositoryDeleteItem_crossOwnerIsSilent(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	item := seedItem(t, db, owner, "222", "Beans", "Pantry", time.Now().UTC(), true)

	deleted, err := repo.DeleteItem(context.Background(), item.ID, nextOwnerID())
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteItem(context.Background(), item.ID, owner)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestRepositoryDeleteItemsByBarcode_oldestFirst(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	now := time.Now().UTC()
	oldest := seedItem(t, db, owner, "333", "Rice", "Pantry", now.Add(-2*time.Hour), true)
	middle := seedItem(t, db, owner, "333", "Rice", "Pantry", now.Add(-time.Hour), true)
	newest := seedItem(t, db, owner, "333", "Rice", "Pantry", now, true)

	removed, err := repo.DeleteItemsByBarcode(context.Background(), owner, "333", "Pantry", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining, err := repo.FindItemsByBarcode(context.Background(), owner, "333", "Pantry", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, middle.ID, remaining[0].ID)
	assert.Equal(t, newest.ID, remaining[1].ID)

	var gone int64
	require.NoError(t, db.Model(&models.Item{}).Where("id = ?", oldest.ID).Count(&gone).Error)
	assert.Zero(t, gone)
}

func TestRepositoryDeleteItemsByBarcode_noLimitRemovesAll(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	now := time.Now().UTC()
	seedItem(t, db, owner, "444", "Peas", "Pantry", now.Add(-time.Minute), true)
	seedItem(t, db, owner, "444", "Peas", "Freezer", now, true)
	seedItem(t, db, owner, "555", "Corn", "Pantry", now, true)

	removed, err := repo.DeleteItemsByBarcode(context.Background(), owner, "444", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := repo.ListItems(context.Background(), owner, "", 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "555", left[0].Barcode)
}

func TestRepositoryUnverifiedItems_dedupedByBarcode(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	now := time.Now().UTC()
	seedItem(t, db, owner, "666", "Mystery A", "Pantry", now.Add(-2*time.Minute), false)
	latest := seedItem(t, db, owner, "666", "Mystery A", "Fridge", now, false)
	seedItem(t, db, owner, "777", "Mystery B", "Pantry", now.Add(-time.Minute), false)
	seedItem(t, db, owner, "888", "Known", "Pantry", now, true)

	rows, err := repo.UnverifiedItems(context.Background(), owner, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, latest.ID, rows[0].ID)
	assert.Equal(t, "777", rows[1].Barcode)
}

func TestRepositoryVerifyItemsByBarcode_allLots(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	now := time.Now().UTC()
	seedItem(t, db, owner, "999", "product 999", "Pantry", now.Add(-time.Minute), false)
	seedItem(t, db, owner, "999", "product 999", "Fridge", now, false)
	seedItem(t, db, nextOwnerID(), "999", "product 999", "Pantry", now, false)

	count, err := repo.VerifyItemsByBarcode(context.Background(), owner, "999", "Oat Milk")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows, err := repo.FindItemsByBarcode(context.Background(), owner, "999", "", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.True(t, row.Verified)
		assert.Equal(t, "Oat Milk", row.ProductName)
	}
}

func TestRepositoryRetargetBarcode(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	now := time.Now().UTC()
	seedItem(t, db, owner, "1010", "Misread", "Pantry", now.Add(-time.Minute), false)
	seedItem(t, db, owner, "1010", "Misread", "Fridge", now, false)

	moved, err := repo.RetargetBarcode(context.Background(), owner, "1010", "2020")
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	rows, err := repo.FindItemsByBarcode(context.Background(), owner, "2020", "", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRepositoryUpdateItem(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	item := seedItem(t, db, owner, "3030", "Old Name", "Pantry", time.Now().UTC(), false)

	name := "New Name"
	qty := 4
	updated, err := repo.UpdateItem(context.Background(), item.ID, ItemPatch{ProductName: &name, Quantity: &qty})
	require.NoError(t, err)
	assert.True(t, updated)

	_, err = repo.UpdateItem(context.Background(), item.ID, ItemPatch{})
	require.Error(t, err)

	var stored models.Item
	require.NoError(t, db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, "New Name", stored.ProductName)
	assert.Equal(t, 4, stored.Quantity)
}

func TestRepositorySearchItems_caseInsensitive(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	now := time.Now().UTC()
	seedItem(t, db, owner, "4040", "Greek Yogurt", "Fridge", now, true)
	seedItem(t, db, owner, "5050", "Tomato Sauce", "Pantry", now, true)

	hits, err := repo.SearchItems(context.Background(), owner, "yogurt", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "4040", hits[0].Barcode)
}

func TestRepositoryCategoryQuantities(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	owner := nextOwnerID()

	now := time.Now().UTC()
	seedItem(t, db, owner, "6060", "Pasta", "Pantry", now, true)
	seedItem(t, db, owner, "6060", "Pasta", "Pantry", now, true)
	seedItem(t, db, owner, "7070", "Butter", "Fridge", now, true)

	totals, err := repo.CategoryQuantities(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 2, totals["Pantry"])
	assert.Equal(t, 1, totals["Fridge"])
}

func TestRepositoryCacheProduct_upsertsInPlace(t *testing.T) {
	db := setupInventoryTestDB(t)
	repo := NewRepository(db)
	barcode := uuid.NewString()

	first, err := repo.CacheProduct(context.Background(), CacheProductParams{
		Barcode:     barcode,
		ProductName: "Original",
		Brand:       "Acme",
	})
	require.NoError(t, err)

	second, err := repo.CacheProduct(context.Background(), CacheProductParams{
		Barcode:     barcode,
		ProductName: "Corrected",
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	cached, err := repo.CachedProduct(context.Background(), barcode)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Corrected", cached.ProductName)

	missing, err := repo.CachedProduct(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
