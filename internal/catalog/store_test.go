package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"go-retail-pos/internal/database"
	"go-retail-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return NewStore(db), db
}

func barcode(s string) *string { return &s }

func TestGetByBarcode(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Product{Name: "Milk", Barcode: barcode("123456"), Price: 1.80, IsActive: true}).Error)

	product, err := store.GetByBarcode(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, "Milk", product.Name)

	_, err = store.GetByBarcode(ctx, "000000")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListStockStateFilters(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	products := []models.Product{
		{Name: "Plenty", StockQuantity: 50, MinStock: 5, IsActive: true},
		{Name: "Boundary", StockQuantity: 5, MinStock: 5, IsActive: true}, // qty == min is low
		{Name: "Scarce", StockQuantity: 2, MinStock: 5, IsActive: true},
		{Name: "Gone", StockQuantity: 0, MinStock: 5, IsActive: true},
	}
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}

	low, total, err := store.List(ctx, ListFilter{Stock: StockLow})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	names := []string{low[0].Name, low[1].Name}
	assert.ElementsMatch(t, []string{"Boundary", "Scarce"}, names)

	out, _, err := store.List(ctx, ListFilter{Stock: StockOut})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Gone", out[0].Name)

	in, _, err := store.List(ctx, ListFilter{Stock: StockIn})
	require.NoError(t, err)
	assert.Len(t, in, 3)
}

func TestListSearchAndPaging(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	drinks := models.Category{Name: "Drinks", IsActive: true}
	require.NoError(t, db.Create(&drinks).Error)

	for _, name := range []string{"Green Tea", "Black Tea", "Coffee"} {
		require.NoError(t, db.Create(&models.Product{Name: name, CategoryID: drinks.ID, IsActive: true}).Error)
	}
	require.NoError(t, db.Create(&models.Product{Name: "Tea Towel", IsActive: true}).Error)

	teas, total, err := store.List(ctx, ListFilter{Search: "Tea"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, teas, 3)

	inDrinks, total, err := store.List(ctx, ListFilter{Search: "Tea", CategoryID: drinks.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, inDrinks, 2)

	page, total, err := store.List(ctx, ListFilter{Page: 1, PerPage: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total) // count reflects the full match, not the page
	assert.Len(t, page, 3)
}

func TestAdjustStockGuardsNegative(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	product := models.Product{Name: "Widget", StockQuantity: 3, IsActive: true}
	require.NoError(t, db.Create(&product).Error)

	// Draining past zero is rejected and nothing changes
	err := store.AdjustStock(ctx, product.ID, -5)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)

	var after models.Product
	require.NoError(t, db.First(&after, product.ID).Error)
	assert.Equal(t, 3, after.StockQuantity)

	// Draining to exactly zero is fine, as is restocking
	require.NoError(t, store.AdjustStock(ctx, product.ID, -3))
	require.NoError(t, store.AdjustStock(ctx, product.ID, 10))
	require.NoError(t, db.First(&after, product.ID).Error)
	assert.Equal(t, 10, after.StockQuantity)

	assert.ErrorIs(t, store.AdjustStock(ctx, 999, 1), ErrProductNotFound)
}

func TestDeactivateKeepsRecord(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	product := models.Product{Name: "Old Line", IsActive: true}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, store.DeactivateProduct(ctx, product.ID))

	// Still on file, just inactive
	var after models.Product
	require.NoError(t, db.First(&after, product.ID).Error)
	assert.False(t, after.IsActive)

	active, total, err := store.List(ctx, ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.Zero(t, total)

	assert.ErrorIs(t, store.DeactivateProduct(ctx, 999), ErrProductNotFound)
}

func TestCategoryDeactivationLeavesProductReference(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	category := models.Category{Name: "Seasonal", IsActive: true}
	require.NoError(t, db.Create(&category).Error)
	product := models.Product{Name: "Pumpkin Spice", CategoryID: category.ID, IsActive: true}
	require.NoError(t, db.Create(&product).Error)

	require.NoError(t, store.DeactivateCategory(ctx, category.ID))

	// The product keeps its (now stale) category reference
	var after models.Product
	require.NoError(t, db.First(&after, product.ID).Error)
	assert.Equal(t, category.ID, after.CategoryID)

	active, err := store.ListCategories(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUpdateProductIgnoresDirectStockWrites(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	product := models.Product{Name: "Widget", Price: 2.00, StockQuantity: 7, IsActive: true}
	require.NoError(t, db.Create(&product).Error)

	updated, err := store.UpdateProduct(ctx, product.ID, map[string]interface{}{
		"price":          3.50,
		"stock_quantity": 9000, // must go through AdjustStock instead
	})
	require.NoError(t, err)
	assert.InDelta(t, 3.50, updated.Price, 1e-9)

	var after models.Product
	require.NoError(t, db.First(&after, product.ID).Error)
	assert.Equal(t, 7, after.StockQuantity)
}
