package service

import (
	"errors"

	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/internal/app/repository"
	"github.com/sellora/sellora-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound         = errors.New("cart not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrQuantityLimitReached = errors.New("quantity limit exceeded for this product")
)

// GuestLocker serializes merges for the same guest session. The in-process
// lock.KeyMutex covers a single instance; redis.MergeLock covers several.
type GuestLocker interface {
	Lock(guestID string)
	Unlock(guestID string)
}

// CartSummary is the cart projection returned to callers: lines in insertion
// order plus totals with the applied coupon evaluated against the current
// contents.
type CartSummary struct {
	CartID         uint             `json:"cart_id"`
	Items          []model.CartItem `json:"items"`
	Coupon         *model.Coupon    `json:"coupon,omitempty"`
	Subtotal       float64          `json:"subtotal"`
	DiscountAmount float64          `json:"discount_amount"`
	Total          float64          `json:"total"`
}

// UpdateItemResult reports what an update did: Removed is set when the new
// quantity reached zero and the line was dropped.
type UpdateItemResult struct {
	Removed bool            `json:"removed"`
	Item    *model.CartItem `json:"item,omitempty"`
}

type CartService interface {
	GetCart(actor model.Actor) (*CartSummary, error)
	AddItem(actor model.Actor, productID uint, variantID *uint, quantity int) (*model.CartItem, error)
	UpdateItem(actor model.Actor, productID uint, variantID *uint, quantity int, absolute bool) (*UpdateItemResult, error)
	RemoveItem(actor model.Actor, productID uint, variantID *uint) error
	ClearCart(actor model.Actor) error
	MergeGuestCart(userID uint, guestID string) (*CartSummary, error)
}

type cartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	locker      GuestLocker
	maxPerLine  int
}

func NewCartService(db *gorm.DB, cartRepo repository.CartRepository, productRepo repository.ProductRepository, locker GuestLocker, maxPerLine int) CartService {
	return &cartService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		locker:      locker,
		maxPerLine:  maxPerLine,
	}
}

// GetCart never fails for a missing cart: an identity that has not added
// anything simply has an empty cart.
func (s *cartService) GetCart(actor model.Actor) (*CartSummary, error) {
	cart, err := s.cartRepo.FindByActor(actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CartSummary{Items: []model.CartItem{}}, nil
		}
		logger.Error("Failed to get cart", err, actor.LogFields())
		return nil, err
	}
	return s.summarize(cart), nil
}

func (s *cartService) summarize(cart *model.Cart) *CartSummary {
	summary := &CartSummary{
		CartID:   cart.ID,
		Items:    cart.Items,
		Coupon:   cart.Coupon,
		Subtotal: CartSubtotal(cart.Items),
	}
	if summary.Items == nil {
		summary.Items = []model.CartItem{}
	}
	if cart.Coupon != nil {
		// The stored coupon may have stopped matching the current contents;
		// an ineligible quote just contributes zero.
		quote := EvaluateCoupon(cart.Coupon, cart.Items)
		summary.DiscountAmount = quote.Amount
	}
	summary.Total = roundMoney(summary.Subtotal - summary.DiscountAmount)
	if summary.Total < 0 {
		summary.Total = 0
	}
	return summary
}

func (s *cartService) AddItem(actor model.Actor, productID uint, variantID *uint, quantity int) (*model.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to load product for cart add", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	var variant *model.ProductVariant
	if variantID != nil {
		variant, err = s.productRepo.FindVariantByID(*variantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrVariantNotFound
			}
			return nil, err
		}
		if variant.ProductID != productID {
			return nil, ErrVariantNotFound
		}
	}

	cart, err := s.cartRepo.FindOrCreateByActor(actor)
	if err != nil {
		return nil, err
	}

	line, err := s.cartRepo.FindLine(cart.ID, productID, variantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	requested := quantity
	if line != nil {
		requested += line.Quantity
	}

	if err := s.checkQuantityPolicy(product, variant, requested); err != nil {
		return nil, err
	}

	unitPrice := product.Price
	if variant != nil {
		unitPrice += variant.PriceDelta
	}

	if line != nil {
		line.Quantity = requested
		line.UnitPrice = unitPrice
		if err := s.cartRepo.UpdateItem(line); err != nil {
			return nil, err
		}
	} else {
		line = &model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			VariantID: variantID,
			Quantity:  requested,
			UnitPrice: unitPrice,
		}
		if err := s.cartRepo.CreateItem(line); err != nil {
			return nil, err
		}
	}

	logger.Info("Cart item added", map[string]interface{}{
		"cart_id":    cart.ID,
		"product_id": productID,
		"quantity":   line.Quantity,
	})
	return line, nil
}

// checkQuantityPolicy validates a requested line quantity against available
// stock, the product's per-order cap and the global per-line cap.
func (s *cartService) checkQuantityPolicy(product *model.Product, variant *model.ProductVariant, requested int) error {
	available := product.StockQuantity
	if variant != nil {
		available = variant.StockQuantity
	}
	if requested > available {
		return ErrOutOfStock
	}
	if product.MaxPerOrder > 0 && requested > product.MaxPerOrder {
		return ErrQuantityLimitReached
	}
	if s.maxPerLine > 0 && requested > s.maxPerLine {
		return ErrQuantityLimitReached
	}
	return nil
}

func (s *cartService) UpdateItem(actor model.Actor, productID uint, variantID *uint, quantity int, absolute bool) (*UpdateItemResult, error) {
	cart, err := s.cartRepo.FindByActor(actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	line, err := s.cartRepo.FindLine(cart.ID, productID, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	newQuantity := quantity
	if !absolute {
		newQuantity = line.Quantity + quantity
	}

	// Zero or below removes the line instead of erroring.
	if newQuantity <= 0 {
		if err := s.cartRepo.DeleteItem(line.ID); err != nil {
			return nil, err
		}
		logger.Info("Cart item removed via quantity update", map[string]interface{}{
			"cart_id":    cart.ID,
			"product_id": productID,
		})
		return &UpdateItemResult{Removed: true}, nil
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		return nil, err
	}
	var variant *model.ProductVariant
	if variantID != nil {
		variant, err = s.productRepo.FindVariantByID(*variantID)
		if err != nil {
			return nil, err
		}
	}
	if err := s.checkQuantityPolicy(product, variant, newQuantity); err != nil {
		return nil, err
	}

	line.Quantity = newQuantity
	if err := s.cartRepo.UpdateItem(line); err != nil {
		return nil, err
	}
	return &UpdateItemResult{Item: line}, nil
}

// RemoveItem is idempotent: removing a line that is not there succeeds.
func (s *cartService) RemoveItem(actor model.Actor, productID uint, variantID *uint) error {
	cart, err := s.cartRepo.FindByActor(actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartNotFound
		}
		return err
	}

	line, err := s.cartRepo.FindLine(cart.ID, productID, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.cartRepo.DeleteItem(line.ID)
}

func (s *cartService) ClearCart(actor model.Actor) error {
	cart, err := s.cartRepo.FindByActor(actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartNotFound
		}
		return err
	}
	if err := s.cartRepo.DeleteItems(cart.ID); err != nil {
		return err
	}
	if cart.CouponID != nil {
		if err := s.cartRepo.SetCoupon(cart.ID, nil); err != nil {
			return err
		}
	}
	logger.Info("Cart cleared", map[string]interface{}{
		"cart_id": cart.ID,
	})
	return nil
}

// MergeGuestCart folds a guest cart into the user's cart at login. The whole
// merge runs in one transaction under a per-guest lock, and a retry after a
// completed merge finds no guest cart and is a no-op.
func (s *cartService) MergeGuestCart(userID uint, guestID string) (*CartSummary, error) {
	s.locker.Lock(guestID)
	defer s.locker.Unlock(guestID)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		cartRepo := repository.NewCartRepository(tx)

		guestCart, err := cartRepo.FindByActor(model.GuestActor(guestID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // nothing to merge
			}
			return err
		}

		userCart, err := cartRepo.FindOrCreateByActor(model.UserActor(userID))
		if err != nil {
			return err
		}

		for i := range guestCart.Items {
			guestLine := guestCart.Items[i]

			var userLine *model.CartItem
			for j := range userCart.Items {
				if userCart.Items[j].SameLine(guestLine.ProductID, guestLine.VariantID) {
					userLine = &userCart.Items[j]
					break
				}
			}

			if userLine == nil {
				moved := model.CartItem{
					CartID:    userCart.ID,
					ProductID: guestLine.ProductID,
					VariantID: guestLine.VariantID,
					Quantity:  s.clampToStock(&guestLine, guestLine.Quantity),
					UnitPrice: guestLine.UnitPrice,
				}
				if moved.Quantity <= 0 {
					continue // sold out since the guest added it
				}
				if err := cartRepo.CreateItem(&moved); err != nil {
					return err
				}
				continue
			}

			userLine.Quantity = s.clampToStock(&guestLine, userLine.Quantity+guestLine.Quantity)
			if err := cartRepo.UpdateItem(userLine); err != nil {
				return err
			}
		}

		return cartRepo.Delete(guestCart.ID)
	})
	if err != nil {
		logger.Error("Failed to merge guest cart", err, map[string]interface{}{
			"user_id":  userID,
			"guest_id": guestID,
		})
		return nil, err
	}

	logger.Info("Guest cart merged", map[string]interface{}{
		"user_id":  userID,
		"guest_id": guestID,
	})
	return s.GetCart(model.UserActor(userID))
}

// clampToStock caps a merged quantity at what is currently available. Merges
// never fail on stock; they shrink the line instead.
func (s *cartService) clampToStock(line *model.CartItem, quantity int) int {
	available := line.Product.StockQuantity
	if line.VariantID != nil && line.Variant != nil {
		available = line.Variant.StockQuantity
	}
	if quantity > available {
		return available
	}
	return quantity
}
