package errors

// Error code constants returned in API responses.
// Format: CATEGORY_SPECIFIC_DETAIL; clients map these to display messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"

	// ==================== Cart (CART_) ====================
	CartNotFound        = "CART_NOT_FOUND"
	CartItemNotFound    = "CART_ITEM_NOT_FOUND"
	CartInvalidQuantity = "CART_INVALID_QUANTITY"
	CartLimitExceeded   = "CART_LIMIT_EXCEEDED"

	// ==================== Inventory (INVENTORY_) ====================
	InventoryOutOfStock = "INVENTORY_OUT_OF_STOCK"

	// ==================== Coupon (COUPON_) ====================
	CouponNotFound          = "COUPON_NOT_FOUND"
	CouponDuplicateCode     = "COUPON_DUPLICATE_CODE"
	CouponInvalid           = "COUPON_INVALID"
	CouponExpired           = "COUPON_EXPIRED"
	CouponNotEligible       = "COUPON_NOT_ELIGIBLE"
	CouponUsageLimitReached = "COUPON_USAGE_LIMIT_REACHED"
	CouponInUse             = "COUPON_IN_USE"
	CouponNotApplied        = "COUPON_NOT_APPLIED"

	// ==================== Product (PRODUCT_) ====================
	ProductNotFound = "PRODUCT_NOT_FOUND"
	ProductInvalid  = "PRODUCT_INVALID"
	VariantNotFound = "PRODUCT_VARIANT_NOT_FOUND"

	// ==================== Order (ORDER_) ====================
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderItemNotFound      = "ORDER_ITEM_NOT_FOUND"
	OrderEmptyCart         = "ORDER_EMPTY_CART"
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION"
	OrderNotCancelable     = "ORDER_NOT_CANCELABLE"
	OrderInvalidItem       = "ORDER_INVALID_ITEM"
	OrderReturnNotAllowed  = "ORDER_RETURN_NOT_ALLOWED"

	// ==================== Server ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
)
