package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusOnHold     OrderStatus = "ON_HOLD"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

// orderTransitions is the allowed admin transition table. CANCELED is absent
// on purpose: cancellation goes through CancelOrder/CancelOrderItems so
// inventory release and refund computation always run.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing},
	OrderStatusProcessing: {OrderStatusOnHold, OrderStatusShipped},
	OrderStatusOnHold:     {OrderStatusProcessing},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancelable reports whether the whole order may still be canceled.
func (s OrderStatus) Cancelable() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold:
		return true
	}
	return false
}

type OrderItemStatus string

const (
	OrderItemStatusActive   OrderItemStatus = "active"
	OrderItemStatusCanceled OrderItemStatus = "canceled"
)

type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	Subtotal        float64        `gorm:"not null" json:"subtotal"`
	DiscountAmount  float64        `gorm:"default:0" json:"discount_amount"`
	RefundedAmount  float64        `gorm:"default:0" json:"refunded_amount"`
	TotalAmount     float64        `gorm:"not null" json:"total_amount"`
	CouponID        *uint          `gorm:"index" json:"coupon_id,omitempty"`
	CouponCode      string         `gorm:"type:varchar(50)" json:"coupon_code,omitempty"` // frozen at checkout
	Status          OrderStatus    `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	ShippingAddress string         `gorm:"type:text" json:"shipping_address"`
	CancelReason    string         `gorm:"type:text" json:"cancel_reason,omitempty"`
	CanceledAt      *time.Time     `json:"canceled_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User    User        `gorm:"foreignKey:UserID" json:"-"`
	Items   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payment *Payment    `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	Refunds []Refund    `gorm:"foreignKey:OrderID" json:"refunds,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// ActiveItems returns the items that have not been individually canceled.
func (o *Order) ActiveItems() []OrderItem {
	var active []OrderItem
	for _, item := range o.Items {
		if item.Status == OrderItemStatusActive {
			active = append(active, item)
		}
	}
	return active
}

// OrderItem is an immutable snapshot of a cart line at checkout, with its own
// cancellation sub-state.
type OrderItem struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	OrderID      uint            `gorm:"not null;index" json:"order_id"`
	ProductID    uint            `gorm:"not null;index" json:"product_id"`
	VariantID    *uint           `gorm:"index" json:"variant_id,omitempty"`
	ProductName  string          `gorm:"not null" json:"product_name"`
	VariantLabel string          `gorm:"type:varchar(100)" json:"variant_label,omitempty"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPrice    float64         `gorm:"not null" json:"unit_price"`
	LineTotal    float64         `gorm:"not null" json:"line_total"`
	Status       OrderItemStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	CancelReason string          `gorm:"type:text" json:"cancel_reason,omitempty"`
	CanceledAt   *time.Time      `json:"canceled_at,omitempty"`
	ReturnedAt   *time.Time      `json:"returned_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`

	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
