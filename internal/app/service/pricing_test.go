package service

import (
	"testing"

	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
)

func cartLines(lines ...model.CartItem) []model.CartItem {
	return lines
}

func line(productID uint, qty int, unitPrice float64, category string) model.CartItem {
	return model.CartItem{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: unitPrice,
		Product:   model.Product{ID: productID, Category: category},
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestCartSubtotal(t *testing.T) {
	items := cartLines(
		line(1, 2, 10.00, "books"),
		line(2, 3, 10.00, "toys"),
	)
	assert.Equal(t, 50.00, CartSubtotal(items))
}

func TestEvaluateCoupon_PercentageWithCap(t *testing.T) {
	// 10% off a 50.00 cart would be 5.00, but the cap holds it at 4.00.
	coupon := &model.Coupon{
		Type:                  model.DiscountPercentage,
		Value:                 10,
		Scope:                 model.ScopeCart,
		MaximumDiscountAmount: floatPtr(4.00),
	}
	items := cartLines(
		line(1, 2, 10.00, "books"),
		line(2, 3, 10.00, "toys"),
	)

	quote := EvaluateCoupon(coupon, items)
	assert.True(t, quote.Eligible)
	assert.Equal(t, 50.00, quote.Basis)
	assert.Equal(t, 4.00, quote.Amount)
}

func TestEvaluateCoupon_FixedAmountFloorsAtBasis(t *testing.T) {
	coupon := &model.Coupon{
		Type:  model.DiscountFixedAmount,
		Value: 100.00,
		Scope: model.ScopeCart,
	}
	items := cartLines(line(1, 1, 30.00, "books"))

	quote := EvaluateCoupon(coupon, items)
	assert.True(t, quote.Eligible)
	assert.Equal(t, 30.00, quote.Amount)
}

func TestEvaluateCoupon_MinimumOrderAmount(t *testing.T) {
	coupon := &model.Coupon{
		Type:               model.DiscountPercentage,
		Value:              10,
		Scope:              model.ScopeCart,
		MinimumOrderAmount: 100.00,
	}
	items := cartLines(line(1, 1, 99.99, "books"))

	quote := EvaluateCoupon(coupon, items)
	assert.False(t, quote.Eligible)
	assert.Zero(t, quote.Amount)
}

func TestEvaluateCoupon_ProductScope(t *testing.T) {
	coupon := &model.Coupon{
		Type:     model.DiscountPercentage,
		Value:    50,
		Scope:    model.ScopeProducts,
		Products: []model.CouponProduct{{ProductID: 1}},
	}
	items := cartLines(
		line(1, 1, 20.00, "books"),
		line(2, 1, 80.00, "toys"),
	)

	quote := EvaluateCoupon(coupon, items)
	assert.True(t, quote.Eligible)
	assert.Equal(t, 20.00, quote.Basis)
	assert.Equal(t, 10.00, quote.Amount)
}

func TestEvaluateCoupon_ProductScopeNoMatch(t *testing.T) {
	coupon := &model.Coupon{
		Type:     model.DiscountPercentage,
		Value:    50,
		Scope:    model.ScopeProducts,
		Products: []model.CouponProduct{{ProductID: 99}},
	}
	items := cartLines(line(1, 1, 20.00, "books"))

	quote := EvaluateCoupon(coupon, items)
	assert.False(t, quote.Eligible)
}

func TestEvaluateCoupon_CategoryScope(t *testing.T) {
	coupon := &model.Coupon{
		Type:       model.DiscountFixedAmount,
		Value:      5.00,
		Scope:      model.ScopeCategories,
		Categories: []model.CouponCategory{{Category: "books"}},
	}
	items := cartLines(
		line(1, 2, 10.00, "books"),
		line(2, 1, 50.00, "toys"),
	)

	quote := EvaluateCoupon(coupon, items)
	assert.True(t, quote.Eligible)
	assert.Equal(t, 20.00, quote.Basis)
	assert.Equal(t, 5.00, quote.Amount)
}

func TestEvaluateCoupon_EmptyCart(t *testing.T) {
	coupon := &model.Coupon{Type: model.DiscountPercentage, Value: 10, Scope: model.ScopeCart}
	quote := EvaluateCoupon(coupon, nil)
	assert.False(t, quote.Eligible)
}

func TestEvaluateCoupon_RoundsToCents(t *testing.T) {
	coupon := &model.Coupon{
		Type:  model.DiscountPercentage,
		Value: 33,
		Scope: model.ScopeCart,
	}
	items := cartLines(line(1, 1, 9.99, "books"))

	quote := EvaluateCoupon(coupon, items)
	assert.True(t, quote.Eligible)
	assert.Equal(t, 3.30, quote.Amount) // 3.2967 rounded
}

func TestBestCoupon_PriorityWins(t *testing.T) {
	coupons := []model.Coupon{
		{ID: 1, Type: model.DiscountPercentage, Value: 50, Scope: model.ScopeCart, Priority: 0},
		{ID: 2, Type: model.DiscountFixedAmount, Value: 1.00, Scope: model.ScopeCart, Priority: 10},
	}
	items := cartLines(line(1, 1, 100.00, "books"))

	best, quote := BestCoupon(coupons, items)
	assert.NotNil(t, best)
	assert.Equal(t, uint(2), best.ID)
	assert.Equal(t, 1.00, quote.Amount)
}

func TestBestCoupon_TieBreaksOnLargerDiscount(t *testing.T) {
	coupons := []model.Coupon{
		{ID: 1, Type: model.DiscountFixedAmount, Value: 5.00, Scope: model.ScopeCart, Priority: 1},
		{ID: 2, Type: model.DiscountFixedAmount, Value: 8.00, Scope: model.ScopeCart, Priority: 1},
	}
	items := cartLines(line(1, 1, 100.00, "books"))

	best, quote := BestCoupon(coupons, items)
	assert.NotNil(t, best)
	assert.Equal(t, uint(2), best.ID)
	assert.Equal(t, 8.00, quote.Amount)
}

func TestBestCoupon_SkipsIneligible(t *testing.T) {
	coupons := []model.Coupon{
		{ID: 1, Type: model.DiscountPercentage, Value: 10, Scope: model.ScopeCart, MinimumOrderAmount: 1000, Priority: 99},
		{ID: 2, Type: model.DiscountPercentage, Value: 5, Scope: model.ScopeCart},
	}
	items := cartLines(line(1, 1, 100.00, "books"))

	best, quote := BestCoupon(coupons, items)
	assert.NotNil(t, best)
	assert.Equal(t, uint(2), best.ID)
	assert.Equal(t, 5.00, quote.Amount)
}

func TestBestCoupon_NoneEligible(t *testing.T) {
	coupons := []model.Coupon{
		{ID: 1, Type: model.DiscountPercentage, Value: 10, Scope: model.ScopeCart, MinimumOrderAmount: 1000},
	}
	items := cartLines(line(1, 1, 100.00, "books"))

	best, _ := BestCoupon(coupons, items)
	assert.Nil(t, best)
}
