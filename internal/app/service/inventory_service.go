package service

import (
	"errors"

	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/internal/app/repository"
	"github.com/sellora/sellora-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOutOfStock      = errors.New("insufficient stock")
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("product variant not found")
)

// InventoryService guards stock counters. Reservations are conditional
// decrements, so two concurrent checkouts for the same SKU can never
// oversell: the second decrement finds nothing to update and fails.
type InventoryService interface {
	Reserve(productID uint, variantID *uint, quantity int) error
	Release(productID uint, variantID *uint, quantity int) error

	// ReserveLines reserves stock for every line or none. On the first
	// shortfall it releases what it already took and returns ErrOutOfStock.
	ReserveLines(items []model.CartItem) error
	ReleaseOrderItems(items []model.OrderItem) error

	// WithTx returns a copy of the service whose statements run on tx.
	WithTx(tx *gorm.DB) InventoryService
}

type inventoryService struct {
	productRepo repository.ProductRepository
}

func NewInventoryService(productRepo repository.ProductRepository) InventoryService {
	return &inventoryService{productRepo: productRepo}
}

func (s *inventoryService) WithTx(tx *gorm.DB) InventoryService {
	return &inventoryService{productRepo: repository.NewProductRepository(tx)}
}

func (s *inventoryService) Reserve(productID uint, variantID *uint, quantity int) error {
	ok, err := s.productRepo.DecrementStockIfAvailable(productID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("Reservation rejected: insufficient product stock", map[string]interface{}{
			"product_id": productID,
			"quantity":   quantity,
		})
		return ErrOutOfStock
	}

	if variantID == nil {
		return nil
	}

	ok, err = s.productRepo.DecrementVariantStockIfAvailable(*variantID, quantity)
	if err == nil && !ok {
		err = ErrOutOfStock
		logger.Info("Reservation rejected: insufficient variant stock", map[string]interface{}{
			"product_id": productID,
			"variant_id": *variantID,
			"quantity":   quantity,
		})
	}
	if err != nil {
		// Undo the product-level decrement so a variant shortfall leaves the
		// counters untouched.
		if restoreErr := s.productRepo.IncrementStock(productID, quantity); restoreErr != nil {
			logger.Error("Failed to restore product stock after variant shortfall", restoreErr, map[string]interface{}{
				"product_id": productID,
				"quantity":   quantity,
			})
		}
		return err
	}
	return nil
}

func (s *inventoryService) Release(productID uint, variantID *uint, quantity int) error {
	if err := s.productRepo.IncrementStock(productID, quantity); err != nil {
		return err
	}
	if variantID != nil {
		if err := s.productRepo.IncrementVariantStock(*variantID, quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *inventoryService) ReserveLines(items []model.CartItem) error {
	for i, item := range items {
		if err := s.Reserve(item.ProductID, item.VariantID, item.Quantity); err != nil {
			for _, taken := range items[:i] {
				if releaseErr := s.Release(taken.ProductID, taken.VariantID, taken.Quantity); releaseErr != nil {
					logger.Error("Failed to release stock while unwinding reservation", releaseErr, map[string]interface{}{
						"product_id": taken.ProductID,
						"quantity":   taken.Quantity,
					})
				}
			}
			return err
		}
	}
	return nil
}

func (s *inventoryService) ReleaseOrderItems(items []model.OrderItem) error {
	for _, item := range items {
		if err := s.Release(item.ProductID, item.VariantID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
