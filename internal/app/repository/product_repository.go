package repository

import (
	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindByID(id uint) (*model.Product, error)
	FindAll() ([]model.Product, error)
	FindByCategory(category string) ([]model.Product, error)
	FindVariantByID(id uint) (*model.ProductVariant, error)
	Update(product *model.Product) error

	// DecrementStockIfAvailable atomically decrements product stock when at
	// least qty is available. It reports false, without error, when stock is
	// short; callers translate that into OutOfStock.
	DecrementStockIfAvailable(productID uint, qty int) (bool, error)
	IncrementStock(productID uint, qty int) error
	DecrementVariantStockIfAvailable(variantID uint, qty int) (bool, error)
	IncrementVariantStock(variantID uint, qty int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}
	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Variants").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindAll() ([]model.Product, error) {
	var products []model.Product
	if err := r.db.Preload("Variants").Order("created_at DESC").Find(&products).Error; err != nil {
		logger.Error("Failed to list products", err, nil)
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindByCategory(category string) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.Preload("Variants").
		Where("category = ?", category).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		logger.Error("Failed to find products by category", err, map[string]interface{}{
			"category": category,
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) FindVariantByID(id uint) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	if err := r.db.First(&variant, id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *productRepository) Update(product *model.Product) error {
	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

// The stock mutations below are single conditional UPDATE statements so that
// concurrent reservations for the same SKU cannot interleave a read with a
// write and oversell.

func (r *productRepository) DecrementStockIfAvailable(productID uint, qty int) (bool, error) {
	res := r.db.Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		logger.Error("Failed to decrement product stock", res.Error, map[string]interface{}{
			"product_id": productID,
			"quantity":   qty,
		})
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		logger.Debug("Product stock decrement rejected: insufficient stock", map[string]interface{}{
			"product_id": productID,
			"quantity":   qty,
		})
		return false, nil
	}
	return true, nil
}

func (r *productRepository) IncrementStock(productID uint, qty int) error {
	res := r.db.Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		logger.Error("Failed to increment product stock", res.Error, map[string]interface{}{
			"product_id": productID,
			"quantity":   qty,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepository) DecrementVariantStockIfAvailable(variantID uint, qty int) (bool, error) {
	res := r.db.Model(&model.ProductVariant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		logger.Error("Failed to decrement variant stock", res.Error, map[string]interface{}{
			"variant_id": variantID,
			"quantity":   qty,
		})
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *productRepository) IncrementVariantStock(variantID uint, qty int) error {
	res := r.db.Model(&model.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		logger.Error("Failed to increment variant stock", res.Error, map[string]interface{}{
			"variant_id": variantID,
			"quantity":   qty,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
