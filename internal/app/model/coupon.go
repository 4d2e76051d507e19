package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixedAmount
}

// CouponScope selects which cart lines form the discount basis.
type CouponScope string

const (
	ScopeCart       CouponScope = "cart"
	ScopeProducts   CouponScope = "products"
	ScopeCategories CouponScope = "categories"
)

func (s CouponScope) Valid() bool {
	switch s {
	case ScopeCart, ScopeProducts, ScopeCategories:
		return true
	}
	return false
}

type Coupon struct {
	ID                    uint           `gorm:"primarykey" json:"id"`
	Code                  string         `gorm:"uniqueIndex;not null;type:varchar(50)" json:"code"`
	Type                  DiscountType   `gorm:"type:varchar(20);not null" json:"type"`
	Value                 float64        `gorm:"not null" json:"value"` // percent for percentage, amount for fixed
	Scope                 CouponScope    `gorm:"type:varchar(20);default:'cart'" json:"scope"`
	MinimumOrderAmount    float64        `gorm:"default:0" json:"minimum_order_amount"`
	MaximumDiscountAmount *float64       `json:"maximum_discount_amount,omitempty"`
	StartsAt              *time.Time     `json:"starts_at,omitempty"`
	EndsAt                *time.Time     `json:"ends_at,omitempty"`
	IsOneTimeUse          bool           `gorm:"default:false" json:"is_one_time_use"`
	CustomerUsageLimit    int            `gorm:"default:0" json:"customer_usage_limit"` // 0 = unlimited
	Priority              int            `gorm:"default:0" json:"priority"`
	IsActive              bool           `gorm:"default:true" json:"is_active"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	Products   []CouponProduct  `gorm:"foreignKey:CouponID;constraint:OnDelete:CASCADE" json:"products,omitempty"`
	Categories []CouponCategory `gorm:"foreignKey:CouponID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// WithinWindow reports whether now falls inside the validity window. Open
// ends are unconstrained.
func (c *Coupon) WithinWindow(now time.Time) bool {
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return false
	}
	return true
}

// EffectiveUsageLimit folds the one-time-use flag into the per-customer
// limit. 0 means unlimited.
func (c *Coupon) EffectiveUsageLimit() int {
	if c.IsOneTimeUse {
		return 1
	}
	return c.CustomerUsageLimit
}

// CouponProduct scopes a coupon to a specific product.
type CouponProduct struct {
	ID        uint `gorm:"primarykey" json:"id"`
	CouponID  uint `gorm:"not null;index" json:"coupon_id"`
	ProductID uint `gorm:"not null;index" json:"product_id"`
}

func (CouponProduct) TableName() string {
	return "coupon_products"
}

// CouponCategory scopes a coupon to a product category.
type CouponCategory struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	CouponID uint   `gorm:"not null;index" json:"coupon_id"`
	Category string `gorm:"not null;type:varchar(50)" json:"category"`
}

func (CouponCategory) TableName() string {
	return "coupon_categories"
}

// CouponUsage records one successful redemption. Rows are written inside the
// checkout transaction so limit checks and increments commit together.
type CouponUsage struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	CouponID uint      `gorm:"not null;index" json:"coupon_id"`
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	OrderID  uint      `gorm:"not null;index" json:"order_id"`
	UsedAt   time.Time `json:"used_at"`
}

func (CouponUsage) TableName() string {
	return "coupon_usages"
}

// NormalizeCouponCode is the single place coupon codes are canonicalized:
// trimmed and upper-cased before any lookup or uniqueness check.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
