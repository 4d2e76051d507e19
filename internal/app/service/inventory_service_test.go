package service

import (
	"testing"

	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/internal/app/repository"
	"github.com/sellora/sellora-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupInventoryTest(t *testing.T) (InventoryService, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	product := &model.Product{Name: "Widget", Price: 5.00, StockQuantity: 10}
	require.NoError(t, testDB.Create(product).Error)

	return NewInventoryService(repository.NewProductRepository(testDB)), product, testDB
}

func stockOf(t *testing.T, testDB *gorm.DB, productID uint) int {
	var product model.Product
	require.NoError(t, testDB.First(&product, productID).Error)
	return product.StockQuantity
}

func TestInventoryService_ReserveAndRelease(t *testing.T) {
	inventory, product, testDB := setupInventoryTest(t)

	require.NoError(t, inventory.Reserve(product.ID, nil, 4))
	assert.Equal(t, 6, stockOf(t, testDB, product.ID))

	require.NoError(t, inventory.Release(product.ID, nil, 4))
	assert.Equal(t, 10, stockOf(t, testDB, product.ID))
}

func TestInventoryService_Reserve_Shortfall(t *testing.T) {
	inventory, product, testDB := setupInventoryTest(t)

	err := inventory.Reserve(product.ID, nil, 11)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, 10, stockOf(t, testDB, product.ID))
}

func TestInventoryService_Reserve_VariantShortfallRestoresProduct(t *testing.T) {
	inventory, product, testDB := setupInventoryTest(t)

	variant := &model.ProductVariant{
		ProductID:     product.ID,
		Name:          "Size",
		Value:         "S",
		StockQuantity: 1,
	}
	require.NoError(t, testDB.Create(variant).Error)

	// Product has 10 but the variant only has 1: the product-level
	// decrement must be undone.
	err := inventory.Reserve(product.ID, &variant.ID, 2)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, 10, stockOf(t, testDB, product.ID))

	var got model.ProductVariant
	require.NoError(t, testDB.First(&got, variant.ID).Error)
	assert.Equal(t, 1, got.StockQuantity)
}

func TestInventoryService_ReserveLines_UnwindsOnFailure(t *testing.T) {
	inventory, product, testDB := setupInventoryTest(t)

	second := &model.Product{Name: "Gadget", Price: 7.00, StockQuantity: 1}
	require.NoError(t, testDB.Create(second).Error)

	err := inventory.ReserveLines([]model.CartItem{
		{ProductID: product.ID, Quantity: 3},
		{ProductID: second.ID, Quantity: 2},
	})
	assert.ErrorIs(t, err, ErrOutOfStock)

	// The first line's reservation was rolled back.
	assert.Equal(t, 10, stockOf(t, testDB, product.ID))
	assert.Equal(t, 1, stockOf(t, testDB, second.ID))
}

func TestInventoryService_ReleaseOrderItems(t *testing.T) {
	inventory, product, testDB := setupInventoryTest(t)

	require.NoError(t, inventory.Reserve(product.ID, nil, 5))
	require.NoError(t, inventory.ReleaseOrderItems([]model.OrderItem{
		{ProductID: product.ID, Quantity: 5},
	}))
	assert.Equal(t, 10, stockOf(t, testDB, product.ID))
}
