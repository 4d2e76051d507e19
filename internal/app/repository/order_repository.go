package repository

import (
	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByIDForUpdate(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindAll() ([]model.Order, error)
	Save(order *model.Order) error
	UpdateStatus(id uint, status model.OrderStatus) error

	SaveItem(item *model.OrderItem) error

	CreateRefund(refund *model.Refund) error
	FindPaymentByOrderID(orderID uint) (*model.Payment, error)
	CreatePayment(payment *model.Payment) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preload() *gorm.DB {
	return r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id ASC")
		}).
		Preload("Payment").
		Preload("Refunds")
}

func (r *orderRepository) Create(order *model.Order) error {
	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id": order.UserID,
			"total":   order.TotalAmount,
		})
		return err
	}
	logger.Debug("Order created in database", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preload().First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate loads the order holding a row lock, so callers inside a
// transaction see status and item state that no concurrent cancellation can
// change under them. Item and refund rows are consistent because every
// mutating path takes this same lock first.
func (r *orderRepository) FindByIDForUpdate(id uint) (*model.Order, error) {
	if err := r.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model.Order{}, id).Error; err != nil {
		return nil, err
	}
	return r.FindByID(id)
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	var orders []model.Order
	if err := r.preload().
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindAll() ([]model.Order, error) {
	var orders []model.Order
	if err := r.preload().Order("created_at DESC").Find(&orders).Error; err != nil {
		logger.Error("Failed to list orders", err, nil)
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) Save(order *model.Order) error {
	if err := r.db.Save(order).Error; err != nil {
		logger.Error("Failed to save order in database", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return err
	}
	return nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	if err := r.db.Model(&model.Order{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		logger.Error("Failed to update order status in database", err, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return err
	}
	return nil
}

func (r *orderRepository) SaveItem(item *model.OrderItem) error {
	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to save order item in database", err, map[string]interface{}{
			"order_item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *orderRepository) CreateRefund(refund *model.Refund) error {
	if err := r.db.Create(refund).Error; err != nil {
		logger.Error("Failed to create refund in database", err, map[string]interface{}{
			"order_id": refund.OrderID,
			"amount":   refund.Amount,
		})
		return err
	}
	logger.Debug("Refund created in database", map[string]interface{}{
		"refund_id": refund.ID,
		"order_id":  refund.OrderID,
	})
	return nil
}

func (r *orderRepository) FindPaymentByOrderID(orderID uint) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *orderRepository) CreatePayment(payment *model.Payment) error {
	if err := r.db.Create(payment).Error; err != nil {
		logger.Error("Failed to create payment in database", err, map[string]interface{}{
			"order_id": payment.OrderID,
		})
		return err
	}
	return nil
}
