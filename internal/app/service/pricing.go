package service

import (
	"math"

	"github.com/sellora/sellora-backend/internal/app/model"
)

// Pricing is pure computation: no repository or clock access. Eligibility
// against the validity window and usage limits is the coupon service's job;
// these functions only answer "what discount does this coupon yield over
// these lines".

// DiscountQuote is the evaluated outcome of a coupon against a set of cart
// lines.
type DiscountQuote struct {
	Eligible bool    `json:"eligible"`
	Basis    float64 `json:"basis"`
	Amount   float64 `json:"amount"`
}

// CartSubtotal sums line totals over the given items.
func CartSubtotal(items []model.CartItem) float64 {
	var subtotal float64
	for _, item := range items {
		subtotal += item.LineTotal()
	}
	return roundMoney(subtotal)
}

// EvaluateCoupon computes the discount a coupon yields over the cart lines.
// The basis is the whole-cart subtotal for cart-wide coupons and the
// matched-subset subtotal for scoped ones. A coupon with no matching lines,
// or with a subtotal below its minimum order amount, is not eligible.
func EvaluateCoupon(coupon *model.Coupon, items []model.CartItem) DiscountQuote {
	if coupon == nil || len(items) == 0 {
		return DiscountQuote{}
	}

	subtotal := CartSubtotal(items)
	if subtotal < coupon.MinimumOrderAmount {
		return DiscountQuote{}
	}

	basis := couponBasis(coupon, items)
	if basis <= 0 {
		return DiscountQuote{}
	}

	var amount float64
	switch coupon.Type {
	case model.DiscountPercentage:
		amount = basis * coupon.Value / 100
	case model.DiscountFixedAmount:
		amount = coupon.Value
	default:
		return DiscountQuote{}
	}

	// A discount never exceeds its basis: the remainder floors at zero.
	if amount > basis {
		amount = basis
	}
	if coupon.MaximumDiscountAmount != nil && amount > *coupon.MaximumDiscountAmount {
		amount = *coupon.MaximumDiscountAmount
	}

	return DiscountQuote{
		Eligible: true,
		Basis:    basis,
		Amount:   roundMoney(amount),
	}
}

func couponBasis(coupon *model.Coupon, items []model.CartItem) float64 {
	switch coupon.Scope {
	case model.ScopeCart:
		return CartSubtotal(items)
	case model.ScopeProducts:
		scoped := make(map[uint]bool, len(coupon.Products))
		for _, p := range coupon.Products {
			scoped[p.ProductID] = true
		}
		var basis float64
		for _, item := range items {
			if scoped[item.ProductID] {
				basis += item.LineTotal()
			}
		}
		return roundMoney(basis)
	case model.ScopeCategories:
		scoped := make(map[string]bool, len(coupon.Categories))
		for _, c := range coupon.Categories {
			scoped[c.Category] = true
		}
		var basis float64
		for _, item := range items {
			if scoped[item.Product.Category] {
				basis += item.LineTotal()
			}
		}
		return roundMoney(basis)
	}
	return 0
}

// BestCoupon picks the winning coupon when several qualify: highest priority
// first, then the larger absolute discount.
func BestCoupon(coupons []model.Coupon, items []model.CartItem) (*model.Coupon, DiscountQuote) {
	var (
		best      *model.Coupon
		bestQuote DiscountQuote
	)
	for i := range coupons {
		quote := EvaluateCoupon(&coupons[i], items)
		if !quote.Eligible {
			continue
		}
		if best == nil ||
			coupons[i].Priority > best.Priority ||
			(coupons[i].Priority == best.Priority && quote.Amount > bestQuote.Amount) {
			best = &coupons[i]
			bestQuote = quote
		}
	}
	return best, bestQuote
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
