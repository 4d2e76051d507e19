package service

import (
	"sync"
	"testing"

	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/internal/app/repository"
	"github.com/sellora/sellora-backend/internal/db"
	"github.com/sellora/sellora-backend/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (CartService, *model.User, *model.Product, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartService := NewCartService(testDB, cartRepo, productRepo, lock.NewKeyMutex(), 0)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         model.RoleCustomer,
	}
	testDB.Create(user)

	product := &model.Product{
		Name:          "Test Product",
		Price:         25.00,
		Category:      "books",
		StockQuantity: 10,
	}
	testDB.Create(product)

	return cartService, user, product, testDB
}

func TestCartService_GetCart_EmptyForNewIdentity(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	summary, err := cartService.GetCart(model.UserActor(user.ID))
	assert.NoError(t, err)
	assert.Len(t, summary.Items, 0)
	assert.Zero(t, summary.Subtotal)
	assert.Zero(t, summary.Total)
}

func TestCartService_AddItem_Success(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	item, err := cartService.AddItem(model.UserActor(user.ID), product.ID, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 25.00, item.UnitPrice)

	summary, err := cartService.GetCart(model.UserActor(user.ID))
	require.NoError(t, err)
	assert.Len(t, summary.Items, 1)
	assert.Equal(t, 50.00, summary.Subtotal)
	assert.Equal(t, 50.00, summary.Total)
}

func TestCartService_AddItem_MergesExistingLine(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	actor := model.UserActor(user.ID)

	_, err := cartService.AddItem(actor, product.ID, nil, 2)
	require.NoError(t, err)
	item, err := cartService.AddItem(actor, product.ID, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	summary, err := cartService.GetCart(actor)
	require.NoError(t, err)
	assert.Len(t, summary.Items, 1)
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)

	_, err := cartService.AddItem(model.UserActor(user.ID), product.ID, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = cartService.AddItem(model.UserActor(user.ID), product.ID, nil, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCartService_AddItem_ProductNotFound(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	_, err := cartService.AddItem(model.UserActor(user.ID), 9999, nil, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_AddItem_OutOfStock(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	actor := model.UserActor(user.ID)

	_, err := cartService.AddItem(actor, product.ID, nil, 11)
	assert.ErrorIs(t, err, ErrOutOfStock)

	// Merged quantity beyond stock also fails.
	_, err = cartService.AddItem(actor, product.ID, nil, 6)
	require.NoError(t, err)
	_, err = cartService.AddItem(actor, product.ID, nil, 5)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestCartService_AddItem_MaxPerOrderCap(t *testing.T) {
	cartService, user, _, testDB := setupCartServiceTest(t)

	capped := &model.Product{
		Name:          "Capped Product",
		Price:         10.00,
		StockQuantity: 100,
		MaxPerOrder:   3,
	}
	testDB.Create(capped)

	_, err := cartService.AddItem(model.UserActor(user.ID), capped.ID, nil, 4)
	assert.ErrorIs(t, err, ErrQuantityLimitReached)

	_, err = cartService.AddItem(model.UserActor(user.ID), capped.ID, nil, 3)
	assert.NoError(t, err)
}

func TestCartService_AddItem_VariantPricing(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	variant := &model.ProductVariant{
		ProductID:     product.ID,
		Name:          "Size",
		Value:         "XL",
		PriceDelta:    5.00,
		StockQuantity: 4,
	}
	testDB.Create(variant)

	item, err := cartService.AddItem(model.UserActor(user.ID), product.ID, &variant.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 30.00, item.UnitPrice)

	// Variant stock, not product stock, bounds the line.
	_, err = cartService.AddItem(model.UserActor(user.ID), product.ID, &variant.ID, 3)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestCartService_AddItem_VariantOfOtherProduct(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)

	other := &model.Product{Name: "Other", Price: 10.00, StockQuantity: 5}
	testDB.Create(other)
	variant := &model.ProductVariant{ProductID: other.ID, Name: "Size", Value: "S", StockQuantity: 5}
	testDB.Create(variant)

	_, err := cartService.AddItem(model.UserActor(user.ID), product.ID, &variant.ID, 1)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestCartService_AddItem_SeparateLinesPerVariant(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)
	actor := model.UserActor(user.ID)

	variant := &model.ProductVariant{ProductID: product.ID, Name: "Size", Value: "M", StockQuantity: 5}
	testDB.Create(variant)

	_, err := cartService.AddItem(actor, product.ID, nil, 1)
	require.NoError(t, err)
	_, err = cartService.AddItem(actor, product.ID, &variant.ID, 1)
	require.NoError(t, err)

	summary, err := cartService.GetCart(actor)
	require.NoError(t, err)
	assert.Len(t, summary.Items, 2)
}

func TestCartService_UpdateItem_Absolute(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	actor := model.UserActor(user.ID)

	_, err := cartService.AddItem(actor, product.ID, nil, 2)
	require.NoError(t, err)

	result, err := cartService.UpdateItem(actor, product.ID, nil, 7, true)
	require.NoError(t, err)
	assert.False(t, result.Removed)
	assert.Equal(t, 7, result.Item.Quantity)
}

func TestCartService_UpdateItem_DeltaToZeroRemoves(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	actor := model.UserActor(user.ID)

	_, err := cartService.AddItem(actor, product.ID, nil, 2)
	require.NoError(t, err)

	result, err := cartService.UpdateItem(actor, product.ID, nil, -2, false)
	require.NoError(t, err)
	assert.True(t, result.Removed)

	summary, err := cartService.GetCart(actor)
	require.NoError(t, err)
	assert.Len(t, summary.Items, 0)
}

func TestCartService_UpdateItem_MissingLine(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	actor := model.UserActor(user.ID)

	_, err := cartService.UpdateItem(actor, product.ID, nil, 1, true)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = cartService.AddItem(actor, product.ID, nil, 1)
	require.NoError(t, err)
	_, err = cartService.UpdateItem(actor, 9999, nil, 1, true)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_RemoveItem_Idempotent(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	actor := model.UserActor(user.ID)

	_, err := cartService.AddItem(actor, product.ID, nil, 1)
	require.NoError(t, err)

	assert.NoError(t, cartService.RemoveItem(actor, product.ID, nil))
	// Second removal of the same line still succeeds.
	assert.NoError(t, cartService.RemoveItem(actor, product.ID, nil))
}

func TestCartService_ClearCart(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	actor := model.UserActor(user.ID)

	_, err := cartService.AddItem(actor, product.ID, nil, 2)
	require.NoError(t, err)

	require.NoError(t, cartService.ClearCart(actor))

	summary, err := cartService.GetCart(actor)
	require.NoError(t, err)
	assert.Len(t, summary.Items, 0)
}

func TestCartService_ClearCart_NoCart(t *testing.T) {
	cartService, user, _, _ := setupCartServiceTest(t)

	err := cartService.ClearCart(model.UserActor(user.ID))
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartService_GuestCart(t *testing.T) {
	cartService, _, product, _ := setupCartServiceTest(t)
	guest := model.GuestActor("guest-session-1")

	_, err := cartService.AddItem(guest, product.ID, nil, 3)
	require.NoError(t, err)

	summary, err := cartService.GetCart(guest)
	require.NoError(t, err)
	assert.Len(t, summary.Items, 1)
	assert.Equal(t, 75.00, summary.Subtotal)

	// A different session sees its own empty cart.
	other, err := cartService.GetCart(model.GuestActor("guest-session-2"))
	require.NoError(t, err)
	assert.Len(t, other.Items, 0)
}

func TestCartService_MergeGuestCart_MovesAndSums(t *testing.T) {
	cartService, user, product, testDB := setupCartServiceTest(t)
	guest := model.GuestActor("guest-merge")

	second := &model.Product{Name: "Second", Price: 10.00, StockQuantity: 20}
	testDB.Create(second)

	// Guest has two lines; user already holds one of the same products.
	_, err := cartService.AddItem(guest, product.ID, nil, 2)
	require.NoError(t, err)
	_, err = cartService.AddItem(guest, second.ID, nil, 1)
	require.NoError(t, err)
	_, err = cartService.AddItem(model.UserActor(user.ID), product.ID, nil, 3)
	require.NoError(t, err)

	summary, err := cartService.MergeGuestCart(user.ID, "guest-merge")
	require.NoError(t, err)
	assert.Len(t, summary.Items, 2)
	for _, item := range summary.Items {
		switch item.ProductID {
		case product.ID:
			assert.Equal(t, 5, item.Quantity)
		case second.ID:
			assert.Equal(t, 1, item.Quantity)
		}
	}

	// Guest cart is gone.
	guestSummary, err := cartService.GetCart(guest)
	require.NoError(t, err)
	assert.Len(t, guestSummary.Items, 0)
}

func TestCartService_MergeGuestCart_ClampsToStock(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	guest := model.GuestActor("guest-clamp")

	_, err := cartService.AddItem(guest, product.ID, nil, 6)
	require.NoError(t, err)
	_, err = cartService.AddItem(model.UserActor(user.ID), product.ID, nil, 6)
	require.NoError(t, err)

	// 6 + 6 exceeds the 10 in stock; the merged line shrinks instead of failing.
	summary, err := cartService.MergeGuestCart(user.ID, "guest-clamp")
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 10, summary.Items[0].Quantity)
}

func TestCartService_MergeGuestCart_IdempotentRetry(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	guest := model.GuestActor("guest-retry")

	_, err := cartService.AddItem(guest, product.ID, nil, 2)
	require.NoError(t, err)

	first, err := cartService.MergeGuestCart(user.ID, "guest-retry")
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	assert.Equal(t, 2, first.Items[0].Quantity)

	// Retrying the merge finds no guest cart and changes nothing.
	second, err := cartService.MergeGuestCart(user.ID, "guest-retry")
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, 2, second.Items[0].Quantity)
}

func TestCartService_MergeGuestCart_ConcurrentCallsMergeOnce(t *testing.T) {
	cartService, user, product, _ := setupCartServiceTest(t)
	guest := model.GuestActor("guest-race")

	_, err := cartService.AddItem(guest, product.ID, nil, 2)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cartService.MergeGuestCart(user.ID, "guest-race")
		}()
	}
	wg.Wait()

	summary, err := cartService.GetCart(model.UserActor(user.ID))
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 2, summary.Items[0].Quantity)
}

func TestCartService_MaxQuantityPerLineConfig(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	product := &model.Product{Name: "P", Price: 5.00, StockQuantity: 100}
	testDB.Create(product)

	cartService := NewCartService(testDB,
		repository.NewCartRepository(testDB),
		repository.NewProductRepository(testDB),
		lock.NewKeyMutex(), 5)

	_, err = cartService.AddItem(model.GuestActor("g"), product.ID, nil, 6)
	assert.ErrorIs(t, err, ErrQuantityLimitReached)
	_, err = cartService.AddItem(model.GuestActor("g"), product.ID, nil, 5)
	assert.NoError(t, err)
}
