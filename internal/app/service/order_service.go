package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/internal/app/repository"
	"github.com/sellora/sellora-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderItemNotFound  = errors.New("order item not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrForbidden          = errors.New("not allowed to access this order")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrOrderNotCancelable = errors.New("order can no longer be canceled")
	ErrInvalidOrderItem   = errors.New("order item does not belong to this order or is already canceled")
	ErrReturnNotAllowed   = errors.New("only delivered orders accept returns")
)

type CreateOrderInput struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
}

type ReturnInput struct {
	Reason string `json:"reason" binding:"required"`
	Method string `json:"method"`
}

// CancelItemsResult reports a partial cancellation: the refund is nil when no
// completed payment backed the order.
type CancelItemsResult struct {
	Order        *model.Order  `json:"order"`
	RefundAmount float64       `json:"refund_amount"`
	Refund       *model.Refund `json:"refund,omitempty"`
}

type OrderService interface {
	CreateOrder(userID uint, input CreateOrderInput) (*model.Order, error)
	GetOrder(orderID, requesterID uint, isAdmin bool) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	ListOrders() ([]model.Order, error)
	UpdateOrderStatus(orderID uint, next model.OrderStatus) (*model.Order, error)
	CancelOrder(orderID, requesterID uint, isAdmin bool, reason string) (*model.Order, error)
	CancelOrderItems(orderID, requesterID uint, isAdmin bool, itemIDs []uint, reason string) (*CancelItemsResult, error)
	ProcessReturn(orderID, itemID, requesterID uint, input ReturnInput) (*model.Refund, error)
}

type orderService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	inventory InventoryService
}

func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, inventory InventoryService) OrderService {
	return &orderService{
		db:        db,
		orderRepo: orderRepo,
		inventory: inventory,
	}
}

// CreateOrder is the checkout transaction. Reservation, coupon revalidation,
// usage recording, order insertion and cart clearing commit together; any
// failure rolls the whole thing back, stock included.
func (s *orderService) CreateOrder(userID uint, input CreateOrderInput) (*model.Order, error) {
	var orderID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		cartRepo := repository.NewCartRepository(tx)
		couponRepo := repository.NewCouponRepository(tx)
		orderRepo := repository.NewOrderRepository(tx)
		inventory := s.inventory.WithTx(tx)

		cart, err := cartRepo.FindByActor(model.UserActor(userID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		if err := inventory.ReserveLines(cart.Items); err != nil {
			return err
		}

		subtotal := CartSubtotal(cart.Items)

		// Revalidate the pinned coupon at the moment of truth and freeze the
		// outcome into the order.
		var (
			discount   float64
			couponID   *uint
			couponCode string
		)
		if cart.CouponID != nil {
			// The row lock serializes concurrent checkouts redeeming this
			// coupon, so the usage count below and the usage insert at the end
			// commit as one observation.
			coupon, err := couponRepo.FindByIDForUpdate(*cart.CouponID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCouponNotFound
				}
				return err
			}
			if !coupon.IsActive || !coupon.WithinWindow(time.Now()) {
				return ErrCouponExpired
			}
			quote := EvaluateCoupon(coupon, cart.Items)
			if !quote.Eligible {
				return ErrCouponNotEligible
			}
			if limit := coupon.EffectiveUsageLimit(); limit > 0 {
				used, err := couponRepo.CountUsageByUser(coupon.ID, userID)
				if err != nil {
					return err
				}
				if used >= int64(limit) {
					return ErrCouponUsageLimitReached
				}
			}
			discount = quote.Amount
			couponID = &coupon.ID
			couponCode = coupon.Code
		}

		total := roundMoney(subtotal - discount)
		if total < 0 {
			total = 0
		}

		order := &model.Order{
			UserID:          userID,
			Subtotal:        subtotal,
			DiscountAmount:  discount,
			TotalAmount:     total,
			CouponID:        couponID,
			CouponCode:      couponCode,
			Status:          model.OrderStatusPending,
			ShippingAddress: input.ShippingAddress,
			Items:           snapshotItems(cart.Items),
		}
		if err := orderRepo.Create(order); err != nil {
			return err
		}

		if couponID != nil {
			usage := &model.CouponUsage{
				CouponID: *couponID,
				UserID:   userID,
				OrderID:  order.ID,
				UsedAt:   time.Now(),
			}
			if err := couponRepo.CreateUsage(usage); err != nil {
				return err
			}
		}

		if err := cartRepo.DeleteItems(cart.ID); err != nil {
			return err
		}
		if err := cartRepo.SetCoupon(cart.ID, nil); err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Order created", map[string]interface{}{
		"order_id": orderID,
		"user_id":  userID,
	})
	return s.orderRepo.FindByID(orderID)
}

// snapshotItems copies cart lines into immutable order items: later price or
// name changes on the product never touch a placed order.
func snapshotItems(items []model.CartItem) []model.OrderItem {
	snapshots := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		snapshot := model.OrderItem{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   roundMoney(item.LineTotal()),
			Status:      model.OrderItemStatusActive,
		}
		if item.Variant != nil {
			snapshot.VariantLabel = fmt.Sprintf("%s: %s", item.Variant.Name, item.Variant.Value)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

func (s *orderService) GetOrder(orderID, requesterID uint, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !isAdmin && order.UserID != requesterID {
		// Ownership mismatch reads as not found so order IDs cannot be probed.
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	return s.orderRepo.FindByUserID(userID)
}

func (s *orderService) ListOrders() ([]model.Order, error) {
	return s.orderRepo.FindAll()
}

// UpdateOrderStatus walks the fulfillment state machine. CANCELED is not
// reachable here: cancellation has its own paths that release inventory and
// compute refunds.
func (s *orderService) UpdateOrderStatus(orderID uint, next model.OrderStatus) (*model.Order, error) {
	var order *model.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepository(tx)

		var err error
		order, err = orderRepo.FindByIDForUpdate(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !next.Valid() || next == model.OrderStatusCanceled || !order.Status.CanTransitionTo(next) {
			logger.Info("Order status transition rejected", map[string]interface{}{
				"order_id": orderID,
				"from":     order.Status,
				"to":       next,
			})
			return ErrInvalidTransition
		}

		return orderRepo.UpdateStatus(orderID, next)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"from":     order.Status,
		"to":       next,
	})
	order.Status = next
	return order, nil
}

func (s *orderService) authorize(order *model.Order, requesterID uint, isAdmin bool) error {
	if !isAdmin && order.UserID != requesterID {
		return ErrOrderNotFound
	}
	return nil
}

// CancelOrder cancels every remaining active item, releases their stock and
// refunds their value in one transaction. Status, item state and the refund
// cap are only trusted once the order row lock is held: two concurrent
// cancels must not both release stock and both refund.
func (s *orderService) CancelOrder(orderID, requesterID uint, isAdmin bool, reason string) (*model.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepository(tx)
		inventory := s.inventory.WithTx(tx)

		order, err := orderRepo.FindByIDForUpdate(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := s.authorize(order, requesterID, isAdmin); err != nil {
			return err
		}
		if !order.Status.Cancelable() {
			return ErrOrderNotCancelable
		}

		active := order.ActiveItems()
		if err := inventory.ReleaseOrderItems(active); err != nil {
			return err
		}

		now := time.Now()
		var refundable float64
		for i := range order.Items {
			if order.Items[i].Status != model.OrderItemStatusActive {
				continue
			}
			refundable += order.Items[i].LineTotal
			order.Items[i].Status = model.OrderItemStatusCanceled
			order.Items[i].CancelReason = reason
			order.Items[i].CanceledAt = &now
			if err := orderRepo.SaveItem(&order.Items[i]); err != nil {
				return err
			}
		}

		refund, err := s.createRefundIfPaid(orderRepo, order, nil, refundable, reason, "")
		if err != nil {
			return err
		}
		if refund != nil {
			order.RefundedAmount = roundMoney(order.RefundedAmount + refund.Amount)
		}

		order.Status = model.OrderStatusCanceled
		order.CancelReason = reason
		order.CanceledAt = &now
		return orderRepo.Save(order)
	})
	if err != nil {
		logger.Error("Failed to cancel order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	logger.Info("Order canceled", map[string]interface{}{
		"order_id": orderID,
		"reason":   reason,
	})
	return s.orderRepo.FindByID(orderID)
}

// createRefundIfPaid writes a Refund only when a completed payment backs the
// order and the amount is positive. The amount is capped so cumulative
// refunds never exceed what was actually charged.
func (s *orderService) createRefundIfPaid(orderRepo repository.OrderRepository, order *model.Order, itemID *uint, amount float64, reason, method string) (*model.Refund, error) {
	payment, err := orderRepo.FindPaymentByOrderID(order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if payment.Status != model.PaymentStatusPaid {
		return nil, nil
	}

	if remaining := roundMoney(order.TotalAmount - order.RefundedAmount); amount > remaining {
		amount = remaining
	}
	if amount <= 0 {
		return nil, nil
	}

	refund := &model.Refund{
		OrderID:     order.ID,
		OrderItemID: itemID,
		Amount:      roundMoney(amount),
		Reason:      reason,
		Method:      method,
		Status:      model.RefundStatusPending,
	}
	if err := orderRepo.CreateRefund(refund); err != nil {
		return nil, err
	}
	return refund, nil
}

// CancelOrderItems cancels a subset of items. When the last active item goes,
// the order itself flips to CANCELED, matching what a whole-order cancel
// would have produced.
func (s *orderService) CancelOrderItems(orderID, requesterID uint, isAdmin bool, itemIDs []uint, reason string) (*CancelItemsResult, error) {
	if len(itemIDs) == 0 {
		return nil, ErrInvalidOrderItem
	}

	var result CancelItemsResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepository(tx)
		inventory := s.inventory.WithTx(tx)

		order, err := orderRepo.FindByIDForUpdate(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := s.authorize(order, requesterID, isAdmin); err != nil {
			return err
		}
		if !order.Status.Cancelable() {
			return ErrOrderNotCancelable
		}

		// Every requested ID must name an active item of this order before
		// anything is touched. Checked under the order row lock so a
		// concurrent cancel of the same item cannot slip past.
		targets := make(map[uint]*model.OrderItem, len(itemIDs))
		for i := range order.Items {
			targets[order.Items[i].ID] = &order.Items[i]
		}
		selected := make([]*model.OrderItem, 0, len(itemIDs))
		for _, id := range itemIDs {
			item, ok := targets[id]
			if !ok || item.Status != model.OrderItemStatusActive {
				return ErrInvalidOrderItem
			}
			selected = append(selected, item)
		}

		now := time.Now()
		var refundable float64
		for _, item := range selected {
			if err := inventory.Release(item.ProductID, item.VariantID, item.Quantity); err != nil {
				return err
			}
			refundable += item.LineTotal
			item.Status = model.OrderItemStatusCanceled
			item.CancelReason = reason
			item.CanceledAt = &now
			if err := orderRepo.SaveItem(item); err != nil {
				return err
			}
		}
		result.RefundAmount = roundMoney(refundable)

		refund, err := s.createRefundIfPaid(orderRepo, order, nil, refundable, reason, "")
		if err != nil {
			return err
		}
		if refund != nil {
			result.Refund = refund
			order.RefundedAmount = roundMoney(order.RefundedAmount + refund.Amount)
		}

		if len(order.ActiveItems()) == 0 {
			order.Status = model.OrderStatusCanceled
			order.CancelReason = reason
			order.CanceledAt = &now
		}
		return orderRepo.Save(order)
	})
	if err != nil {
		logger.Error("Failed to cancel order items", err, map[string]interface{}{
			"order_id": orderID,
			"item_ids": itemIDs,
		})
		return nil, err
	}

	logger.Info("Order items canceled", map[string]interface{}{
		"order_id":      orderID,
		"item_count":    len(itemIDs),
		"refund_amount": result.RefundAmount,
	})
	result.Order, err = s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ProcessReturn accepts a return for one item of a delivered order, owned by
// the requesting user, and issues an item-level refund. The item's returned
// state is only trusted under the order row lock so a retried return cannot
// refund twice.
func (s *orderService) ProcessReturn(orderID, itemID, requesterID uint, input ReturnInput) (*model.Refund, error) {
	var refund *model.Refund
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepository(tx)

		order, err := orderRepo.FindByIDForUpdate(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.UserID != requesterID {
			return ErrOrderNotFound
		}
		if order.Status != model.OrderStatusDelivered {
			return ErrReturnNotAllowed
		}

		var target *model.OrderItem
		for i := range order.Items {
			if order.Items[i].ID == itemID {
				target = &order.Items[i]
				break
			}
		}
		if target == nil {
			return ErrOrderItemNotFound
		}
		if target.Status != model.OrderItemStatusActive || target.ReturnedAt != nil {
			return ErrInvalidOrderItem
		}

		now := time.Now()
		target.ReturnedAt = &now
		if err := orderRepo.SaveItem(target); err != nil {
			return err
		}

		refund, err = s.createRefundIfPaid(orderRepo, order, &target.ID, target.LineTotal, input.Reason, input.Method)
		if err != nil {
			return err
		}
		if refund != nil {
			order.RefundedAmount = roundMoney(order.RefundedAmount + refund.Amount)
			return orderRepo.Save(order)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to process return", err, map[string]interface{}{
			"order_id":      orderID,
			"order_item_id": itemID,
		})
		return nil, err
	}

	logger.Info("Return processed", map[string]interface{}{
		"order_id":      orderID,
		"order_item_id": itemID,
	})
	return refund, nil
}
