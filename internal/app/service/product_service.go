package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidProductInput = errors.New("invalid product")
)

type ProductListOptions struct {
	Category string
	Limit    int
	Offset   int
}

type ProductService interface {
	ListProducts(ctx context.Context, opts ProductListOptions) ([]model.Product, error)
	GetProductByID(ctx context.Context, id uint) (*model.Product, error)
	ImportProducts(ctx context.Context, products []model.Product) (int, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) ListProducts(ctx context.Context, opts ProductListOptions) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx, repository.ProductFilter{
		Category: strings.TrimSpace(opts.Category),
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *productService) GetProductByID(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// ImportProducts validates every row before writing any of them.
func (s *productService) ImportProducts(ctx context.Context, products []model.Product) (int, error) {
	for i, p := range products {
		if strings.TrimSpace(p.Title) == "" {
			return 0, fmt.Errorf("%w: row %d has no title", ErrInvalidProductInput, i+1)
		}
		if p.Price.IsNegative() {
			return 0, fmt.Errorf("%w: row %d has a negative price", ErrInvalidProductInput, i+1)
		}
	}

	if err := s.productRepo.BulkCreate(ctx, products); err != nil {
		return 0, fmt.Errorf("import products: %w", err)
	}

	logger.Info("Products imported", map[string]interface{}{
		"count": len(products),
	})
	return len(products), nil
}
