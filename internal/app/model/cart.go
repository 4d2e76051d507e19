package model

import (
	"time"

	"gorm.io/gorm"
)

// Cart is owned by exactly one identity: UserID for authenticated customers,
// GuestID for anonymous sessions. The unique indexes enforce one cart per
// identity; the two columns are never both set.
type Cart struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    *uint          `gorm:"uniqueIndex" json:"user_id,omitempty"`
	GuestID   *string        `gorm:"uniqueIndex;type:varchar(64)" json:"guest_id,omitempty"`
	CouponID  *uint          `gorm:"index" json:"coupon_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Coupon *Coupon    `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
	Items  []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line of a cart. At most one line exists per
// (cart, product, variant); adds against an existing line merge quantities.
type CartItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CartID    uint           `gorm:"not null;index:idx_cart_line,unique" json:"cart_id"`
	ProductID uint           `gorm:"not null;index:idx_cart_line,unique" json:"product_id"`
	VariantID *uint          `gorm:"index:idx_cart_line,unique" json:"variant_id,omitempty"`
	Quantity  int            `gorm:"not null;default:1" json:"quantity"`
	UnitPrice float64        `gorm:"not null" json:"unit_price"` // price snapshot at add time
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Cart    Cart            `gorm:"foreignKey:CartID" json:"-"`
	Product Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal is quantity times the snapshotted unit price.
func (i CartItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// SameLine reports whether the item occupies the (product, variant) slot.
func (i CartItem) SameLine(productID uint, variantID *uint) bool {
	if i.ProductID != productID {
		return false
	}
	if (i.VariantID == nil) != (variantID == nil) {
		return false
	}
	return i.VariantID == nil || *i.VariantID == *variantID
}
