package errors

import (
	"errors"
	"net/http"

	"github.com/sellora/sellora-backend/internal/app/service"
	"gorm.io/gorm"
)

// ErrorInfo is what a mapped error looks like to a handler.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// mapping pairs a service sentinel with its API shape. Order matters only in
// that the first match wins.
var mapping = []struct {
	err  error
	info ErrorInfo
}{
	{service.ErrCartNotFound, ErrorInfo{http.StatusNotFound, CartNotFound, "Cart not found"}},
	{service.ErrCartItemNotFound, ErrorInfo{http.StatusNotFound, CartItemNotFound, "Cart item not found"}},
	{service.ErrInvalidQuantity, ErrorInfo{http.StatusBadRequest, CartInvalidQuantity, "Quantity must be positive"}},
	{service.ErrQuantityLimitReached, ErrorInfo{http.StatusConflict, CartLimitExceeded, "Quantity limit exceeded for this product"}},

	{service.ErrOutOfStock, ErrorInfo{http.StatusConflict, InventoryOutOfStock, "Not enough stock available"}},
	{service.ErrProductNotFound, ErrorInfo{http.StatusNotFound, ProductNotFound, "Product not found"}},
	{service.ErrVariantNotFound, ErrorInfo{http.StatusNotFound, VariantNotFound, "Product variant not found"}},
	{service.ErrInvalidProduct, ErrorInfo{http.StatusBadRequest, ProductInvalid, "Invalid product definition"}},

	{service.ErrCouponNotFound, ErrorInfo{http.StatusNotFound, CouponNotFound, "Coupon not found"}},
	{service.ErrDuplicateCouponCode, ErrorInfo{http.StatusConflict, CouponDuplicateCode, "Coupon code already exists"}},
	{service.ErrInvalidCoupon, ErrorInfo{http.StatusBadRequest, CouponInvalid, "Invalid coupon definition"}},
	{service.ErrCouponExpired, ErrorInfo{http.StatusConflict, CouponExpired, "Coupon is expired or not yet active"}},
	{service.ErrCouponNotEligible, ErrorInfo{http.StatusConflict, CouponNotEligible, "Cart does not satisfy coupon conditions"}},
	{service.ErrCouponUsageLimitReached, ErrorInfo{http.StatusConflict, CouponUsageLimitReached, "Coupon usage limit reached"}},
	{service.ErrCouponInUse, ErrorInfo{http.StatusConflict, CouponInUse, "Coupon has redemption history and cannot be deleted"}},
	{service.ErrNoCouponApplied, ErrorInfo{http.StatusNotFound, CouponNotApplied, "No such coupon applied to the cart"}},

	{service.ErrOrderNotFound, ErrorInfo{http.StatusNotFound, OrderNotFound, "Order not found"}},
	{service.ErrOrderItemNotFound, ErrorInfo{http.StatusNotFound, OrderItemNotFound, "Order item not found"}},
	{service.ErrEmptyCart, ErrorInfo{http.StatusBadRequest, OrderEmptyCart, "Cart is empty"}},
	{service.ErrForbidden, ErrorInfo{http.StatusForbidden, AuthzForbidden, "Not allowed"}},
	{service.ErrInvalidTransition, ErrorInfo{http.StatusConflict, OrderInvalidTransition, "Invalid order status transition"}},
	{service.ErrOrderNotCancelable, ErrorInfo{http.StatusConflict, OrderNotCancelable, "Order can no longer be canceled"}},
	{service.ErrInvalidOrderItem, ErrorInfo{http.StatusBadRequest, OrderInvalidItem, "Invalid order item selection"}},
	{service.ErrReturnNotAllowed, ErrorInfo{http.StatusConflict, OrderReturnNotAllowed, "Only delivered orders accept returns"}},

	{service.ErrEmailTaken, ErrorInfo{http.StatusConflict, AuthEmailAlreadyExists, "Email already registered"}},
	{service.ErrInvalidCredentials, ErrorInfo{http.StatusUnauthorized, AuthInvalidCredentials, "Invalid email or password"}},
	{service.ErrUserNotFound, ErrorInfo{http.StatusNotFound, ResourceNotFound, "User not found"}},
}

// Map translates a service error into its HTTP representation. Unrecognized
// errors come back as 500 so handlers never leak internals.
func Map(err error) ErrorInfo {
	for _, m := range mapping {
		if errors.Is(err, m.err) {
			return m.info
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{http.StatusNotFound, ResourceNotFound, "Resource not found"}
	}
	return ErrorInfo{http.StatusInternalServerError, InternalServerError, "An internal error occurred"}
}
