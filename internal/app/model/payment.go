package model

import (
	"time"

	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Payment is the minimal record the fulfillment engine needs: a payment in
// paid status gates whether a cancellation produces a Refund.
type Payment struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	OrderID       uint           `gorm:"not null;uniqueIndex" json:"order_id"`
	Provider      string         `gorm:"type:varchar(50)" json:"provider"`
	TransactionID string         `gorm:"type:varchar(64);index" json:"transaction_id"`
	Amount        float64        `gorm:"not null" json:"amount"`
	Status        PaymentStatus  `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ApprovedAt    *time.Time     `json:"approved_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusRejected  RefundStatus = "rejected"
)

// Refund references an order (and optionally one item) but owns neither.
type Refund struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	OrderID     uint           `gorm:"not null;index" json:"order_id"`
	OrderItemID *uint          `gorm:"index" json:"order_item_id,omitempty"`
	Amount      float64        `gorm:"not null" json:"amount"`
	Reason      string         `gorm:"type:text" json:"reason"`
	Method      string         `gorm:"type:varchar(30)" json:"method,omitempty"`
	Status      RefundStatus   `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Refund) TableName() string {
	return "refunds"
}
