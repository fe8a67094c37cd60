package inventory

import (
	"context"
	"testing"
	"time"

	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	db := setupInventoryTestDB(t)
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(db),
		DefaultCategories: []string{"Pantry", "Fridge", "Freezer"},
		ItemsPageSize:     200,
		BarcodePageSize:   50,
		ReviewPageSize:    20,
	})
	require.NoError(t, err)
	return svc, db
}

func TestNewService_requiresRepo(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceEnsureDefaultCategories(t *testing.T) {
	svc, _ := newTestService(t)
	owner := nextOwnerID()

	require.NoError(t, svc.EnsureDefaultCategories(context.Background(), owner))
	require.NoError(t, svc.EnsureDefaultCategories(context.Background(), owner))

	names, err := svc.CategoryNames(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pantry", "Fridge", "Freezer"}, names)
}

func TestServiceAddCategory_validation(t *testing.T) {
	svc, _ := newTestService(t)
	owner := nextOwnerID()

	_, err := svc.AddCategory(context.Background(), owner, "   ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.AddCategory(context.Background(), owner, "Spice:Rack")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	created, err := svc.AddCategory(context.Background(), owner, "  Spice Rack  ")
	require.NoError(t, err)
	assert.True(t, created)

	names, err := svc.CategoryNames(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"Spice Rack"}, names)
}

func TestServiceDeleteCategory_guardsNonEmpty(t *testing.T) {
	svc, db := newTestService(t)
	owner := nextOwnerID()

	_, err := svc.AddCategory(context.Background(), owner, "Fridge")
	require.NoError(t, err)
	seedItem(t, db, owner, "111", "Milk", "Fridge", time.Now().UTC(), true)

	err = svc.DeleteCategory(context.Background(), owner, "Fridge")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	_, err = svc.DeleteOneUnit(context.Background(), owner, "111", "Fridge")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCategory(context.Background(), owner, "Fridge"))

	err = svc.DeleteCategory(context.Background(), owner, "Fridge")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceCategories_includeQuantities(t *testing.T) {
	svc, db := newTestService(t)
	owner := nextOwnerID()

	require.NoError(t, svc.EnsureDefaultCategories(context.Background(), owner))
	now := time.Now().UTC()
	seedItem(t, db, owner, "222", "Beans", "Pantry", now, true)
	seedItem(t, db, owner, "222", "Beans", "Pantry", now, true)

	summaries, err := svc.Categories(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "Pantry", summaries[0].Name)
	assert.Equal(t, 2, summaries[0].Quantity)
	assert.Zero(t, summaries[1].Quantity)
}

func TestServiceGroupedItems_sumsLotsPerBarcode(t *testing.T) {
	svc, db := newTestService(t)
	owner := nextOwnerID()

	now := time.Now().UTC()
	oldest := seedItem(t, db, owner, "333", "Rice", "Pantry", now.Add(-2*time.Hour), true)
	seedItem(t, db, owner, "333", "Rice", "Pantry", now.Add(-time.Hour), true)
	seedItem(t, db, owner, "444", "Lentils", "Pantry", now, false)

	grouped, err := svc.GroupedItems(context.Background(), owner, "Pantry")
	require.NoError(t, err)
	require.Len(t, grouped, 2)

	assert.Equal(t, "444", grouped[0].Barcode)
	assert.Equal(t, 1, grouped[0].Quantity)
	assert.False(t, grouped[0].Verified)

	assert.Equal(t, "333", grouped[1].Barcode)
	assert.Equal(t, 2, grouped[1].Quantity)
	assert.Equal(t, oldest.ID, grouped[1].OldestID)
}

func TestServiceGroupedItems_mixedLotsStayVerified(t *testing.T) {
	svc, db := newTestService(t)
	owner := nextOwnerID()

	// an unverified lot scanned on top of a verified product must not
	// demote the group, and a verified lot must promote it either way
	now := time.Now().UTC()
	seedItem(t, db, owner, "333", "Rice", "Pantry", now.Add(-time.Hour), true)
	seedItem(t, db, owner, "333", "Rice", "Pantry", now, false)
	seedItem(t, db, owner, "444", "Lentils", "Pantry", now.Add(-time.Hour), false)
	seedItem(t, db, owner, "444", "Lentils", "Pantry", now, true)

	grouped, err := svc.GroupedItems(context.Background(), owner, "Pantry")
	require.NoError(t, err)
	require.Len(t, grouped, 2)

	for _, entry := range grouped {
		assert.True(t, entry.Verified, "barcode %s should group as verified", entry.Barcode)
	}
}

func TestServiceDeleteOneUnit(t *testing.T) {
	svc, db := newTestService(t)
	owner := nextOwnerID()

	now := time.Now().UTC()
	seedItem(t, db, owner, "555", "Peas", "Freezer", now.Add(-time.Minute), true)
	seedItem(t, db, owner, "555", "Peas", "Freezer", now, true)

	removed, err := svc.DeleteOneUnit(context.Background(), owner, "555", "Freezer")
	require.NoError(t, err)
	assert.True(t, removed)

	grouped, err := svc.GroupedItems(context.Background(), owner, "Freezer")
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	assert.Equal(t, 1, grouped[0].Quantity)

	removed, err = svc.DeleteOneUnit(context.Background(), owner, "555", "Freezer")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.DeleteOneUnit(context.Background(), owner, "555", "Freezer")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestServiceRenameProduct_writesBackToCache(t *testing.T) {
	svc, db := newTestService(t)
	owner := nextOwnerID()

	now := time.Now().UTC()
	seedItem(t, db, owner, "666", "product 666", "Pantry", now.Add(-time.Minute), false)
	seedItem(t, db, owner, "666", "product 666", "Fridge", now, false)

	_, err := svc.RenameProduct(context.Background(), owner, "666", "  ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	count, err := svc.RenameProduct(context.Background(), owner, "666", "Oat Milk")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	unverified, err := svc.UnverifiedProducts(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, unverified)

	cached, err := svc.CachedProduct(context.Background(), "666")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Oat Milk", cached.ProductName)
}

func TestServiceRetargetBarcode_adoptsCachedName(t *testing.T) {
	svc, db := newTestService(t)
	owner := nextOwnerID()

	_, err := svc.CacheProduct(context.Background(), CacheProductParams{
		Barcode:     "8000",
		ProductName: "Dark Chocolate",
	})
	require.NoError(t, err)

	seedItem(t, db, owner, "7000", "Unknown (7000)", "Pantry", time.Now().UTC(), false)

	moved, name, err := svc.RetargetBarcode(context.Background(), owner, "7000", "8000")
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.Equal(t, "Dark Chocolate", name)

	grouped, err := svc.GroupedItems(context.Background(), owner, "Pantry")
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	assert.Equal(t, "8000", grouped[0].Barcode)
	assert.Equal(t, "Dark Chocolate", grouped[0].ProductName)
	assert.True(t, grouped[0].Verified)
}

func TestServiceRetargetBarcode_unknownTargetKeepsName(t *testing.T) {
	svc, db := newTestService(t)
	owner := nextOwnerID()

	seedItem(t, db, owner, "9000", "Misread", "Pantry", time.Now().UTC(), false)

	moved, name, err := svc.RetargetBarcode(context.Background(), owner, "9000", "9001")
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.Empty(t, name)

	grouped, err := svc.GroupedItems(context.Background(), owner, "Pantry")
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	assert.Equal(t, "Misread", grouped[0].ProductName)
	assert.False(t, grouped[0].Verified)
}

func TestServiceRemoveProduct_allCategories(t *testing.T) {
	svc, db := newTestService(t)
	owner := nextOwnerID()

	now := time.Now().UTC()
	seedItem(t, db, owner, "1100", "Soup", "Pantry", now.Add(-time.Minute), true)
	seedItem(t, db, owner, "1100", "Soup", "Fridge", now, true)

	count, err := svc.RemoveProduct(context.Background(), owner, "1100")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServiceSearchItems_blankQueryIsEmpty(t *testing.T) {
	svc, db := newTestService(t)
	owner := nextOwnerID()

	seedItem(t, db, owner, "1200", "Honey", "Pantry", time.Now().UTC(), true)

	hits, err := svc.SearchItems(context.Background(), owner, "   ")
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = svc.SearchItems(context.Background(), owner, "hon")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
