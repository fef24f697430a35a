package service

import (
	"strings"

	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
)

// ProductInput 商品创建/更新输入
type ProductInput struct {
	Title        string
	Description  string
	Category     string
	Image        string
	Price        models.Money
	RatingRate   float64
	RatingCount  int
	IsActive     *bool
	Discontinued *bool
	SortOrder    int
}

// ProductService 商品服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// List 商品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// Get 商品详情
func (s *ProductService) Get(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Categories 分类列表
func (s *ProductService) Categories() ([]string, error) {
	return s.productRepo.ListCategories()
}

// Create 创建商品
func (s *ProductService) Create(adminID uint, input ProductInput) (*models.Product, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrProductNotAvailable
	}
	product := &models.Product{
		Title:       title,
		Description: input.Description,
		Category:    strings.TrimSpace(input.Category),
		Image:       strings.TrimSpace(input.Image),
		Price:       input.Price,
		RatingRate:  input.RatingRate,
		RatingCount: input.RatingCount,
		IsActive:    true,
		CreatedBy:   adminID,
		SortOrder:   input.SortOrder,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.Discontinued != nil {
		product.Discontinued = *input.Discontinued
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		product.Title = title
	}
	if input.Description != "" {
		product.Description = input.Description
	}
	if category := strings.TrimSpace(input.Category); category != "" {
		product.Category = category
	}
	if image := strings.TrimSpace(input.Image); image != "" {
		product.Image = image
	}
	if !input.Price.IsZero() {
		product.Price = input.Price
	}
	if input.RatingRate > 0 {
		product.RatingRate = input.RatingRate
	}
	if input.RatingCount > 0 {
		product.RatingCount = input.RatingCount
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.Discontinued != nil {
		product.Discontinued = *input.Discontinued
	}
	if input.SortOrder != 0 {
		product.SortOrder = input.SortOrder
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品（软删除）
func (s *ProductService) Delete(id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.productRepo.Delete(id)
}
