package service

import (
	"errors"

	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/internal/app/repository"
	"github.com/sellora/sellora-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrInvalidProduct = errors.New("invalid product definition")

type ProductInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
	MaxPerOrder int     `json:"max_per_order"`

	Variants []VariantInput `json:"variants"`
}

type VariantInput struct {
	Name       string  `json:"name" binding:"required"`
	Value      string  `json:"value" binding:"required"`
	PriceDelta float64 `json:"price_delta"`
	Stock      int     `json:"stock"`
}

type ProductService interface {
	CreateProduct(input ProductInput) (*model.Product, error)
	GetProduct(id uint) (*model.Product, error)
	ListProducts(category string) ([]model.Product, error)
	UpdateProduct(id uint, input ProductInput) (*model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) CreateProduct(input ProductInput) (*model.Product, error) {
	if input.Price < 0 || input.Stock < 0 || input.MaxPerOrder < 0 {
		return nil, ErrInvalidProduct
	}

	product := &model.Product{
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		Category:      input.Category,
		StockQuantity: input.Stock,
		MaxPerOrder:   input.MaxPerOrder,
	}
	for _, v := range input.Variants {
		if v.Stock < 0 {
			return nil, ErrInvalidProduct
		}
		product.Variants = append(product.Variants, model.ProductVariant{
			Name:          v.Name,
			Value:         v.Value,
			PriceDelta:    v.PriceDelta,
			StockQuantity: v.Stock,
		})
	}

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

func (s *productService) GetProduct(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListProducts(category string) ([]model.Product, error) {
	if category != "" {
		return s.productRepo.FindByCategory(category)
	}
	return s.productRepo.FindAll()
}

func (s *productService) UpdateProduct(id uint, input ProductInput) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if input.Price < 0 || input.Stock < 0 || input.MaxPerOrder < 0 {
		return nil, ErrInvalidProduct
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.Category = input.Category
	product.StockQuantity = input.Stock
	product.MaxPerOrder = input.MaxPerOrder

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}
