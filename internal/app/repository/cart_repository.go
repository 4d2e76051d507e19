package repository

import (
	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	FindByActor(actor model.Actor) (*model.Cart, error)
	FindOrCreateByActor(actor model.Actor) (*model.Cart, error)
	FindLine(cartID, productID uint, variantID *uint) (*model.CartItem, error)
	CreateItem(item *model.CartItem) error
	UpdateItem(item *model.CartItem) error
	DeleteItem(id uint) error
	DeleteItems(cartID uint) error
	SetCoupon(cartID uint, couponID *uint) error
	Delete(cartID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) preload() *gorm.DB {
	return r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC, cart_items.id ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Variant").
		Preload("Coupon").
		Preload("Coupon.Products").
		Preload("Coupon.Categories")
}

func (r *cartRepository) ownerScope(actor model.Actor) *gorm.DB {
	if actor.IsGuest() {
		return r.preload().Where("guest_id = ?", actor.GuestID)
	}
	return r.preload().Where("user_id = ?", actor.UserID)
}

func (r *cartRepository) FindByActor(actor model.Actor) (*model.Cart, error) {
	var cart model.Cart
	if err := r.ownerScope(actor).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindOrCreateByActor(actor model.Actor) (*model.Cart, error) {
	cart, err := r.FindByActor(actor)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		logger.Error("Failed to look up cart", err, actor.LogFields())
		return nil, err
	}

	fresh := &model.Cart{}
	if actor.IsGuest() {
		guestID := actor.GuestID
		fresh.GuestID = &guestID
	} else {
		userID := actor.UserID
		fresh.UserID = &userID
	}

	if err := r.db.Create(fresh).Error; err != nil {
		logger.Error("Failed to create cart", err, actor.LogFields())
		return nil, err
	}

	logger.Debug("Cart created", map[string]interface{}{
		"cart_id": fresh.ID,
	})
	return fresh, nil
}

func (r *cartRepository) FindLine(cartID, productID uint, variantID *uint) (*model.CartItem, error) {
	query := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}

	var item model.CartItem
	if err := query.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}
	logger.Debug("Cart item created in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
	})
	return nil
}

func (r *cartRepository) UpdateItem(item *model.CartItem) error {
	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to update cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
		})
		return err
	}
	return nil
}

// Cart rows are deleted for real, not soft-deleted: the unique indexes on
// (cart, product, variant) and on the owner columns must free their slots so
// a removed line can be re-added and a merged guest can start a fresh cart.

func (r *cartRepository) DeleteItem(id uint) error {
	if err := r.db.Unscoped().Delete(&model.CartItem{}, id).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItems(cartID uint) error {
	if err := r.db.Unscoped().Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) SetCoupon(cartID uint, couponID *uint) error {
	if err := r.db.Model(&model.Cart{}).Where("id = ?", cartID).
		Update("coupon_id", couponID).Error; err != nil {
		logger.Error("Failed to set cart coupon", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) Delete(cartID uint) error {
	if err := r.db.Unscoped().Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		return err
	}
	if err := r.db.Unscoped().Delete(&model.Cart{}, cartID).Error; err != nil {
		logger.Error("Failed to delete cart from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}
