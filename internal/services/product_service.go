package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// ProductService manages the catalog.
type ProductService struct {
	db *gorm.DB
}

// NewProductService constructs a ProductService.
func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// ProductInput describes a new product.
type ProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// CreateProduct adds a product. Products added by an admin are approved
// immediately, others wait for review.
func (s *ProductService) CreateProduct(ctx context.Context, actor models.Actor, in ProductInput) (*models.Product, error) {
	if !actor.Can(models.CapCreateProducts) {
		return nil, apperr.ErrForbidden
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, apperr.WithMessage(apperr.ErrInvalidProduct, "Price must be greater than zero")
	}

	status := models.ProductPending
	if actor.Role == models.RoleAdmin {
		status = models.ProductApproved
	}

	addedBy := actor.ID
	product := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Status:      status,
		AddedByID:   &addedBy,
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}

	slog.Info("product created", "product_id", product.ID, "status", product.Status)
	return product, nil
}

// ReviewProduct approves or rejects a product.
func (s *ProductService) ReviewProduct(ctx context.Context, actor models.Actor, productID uuid.UUID, status models.ProductStatus) (*models.Product, error) {
	if !actor.Can(models.CapReviewProducts) {
		return nil, apperr.ErrForbidden
	}
	if status != models.ProductApproved && status != models.ProductRejected {
		return nil, apperr.WithMessage(apperr.ErrInvalidStatus, "Status must be approved or rejected")
	}

	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND status <> ?", productID, status).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.WithMessage(apperr.ErrNoOpTransition, "Product is already "+string(status))
	}

	product.Status = status
	return product, nil
}

// Get loads a product by id.
func (s *ProductService) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Visible loads a product the viewer may see. Callers who cannot review
// products only see approved ones; anything else is reported as absent.
func (s *ProductService) Visible(ctx context.Context, viewer models.Actor, productID uuid.UUID) (*models.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != models.ProductApproved && !viewer.Can(models.CapReviewProducts) {
		return nil, apperr.ErrProductNotFound
	}
	return product, nil
}

// UpdateStock sets the stock level of a product.
func (s *ProductService) UpdateStock(ctx context.Context, actor models.Actor, productID uuid.UUID, stock int) (*models.Product, error) {
	if !actor.Can(models.CapManageStock) {
		return nil, apperr.ErrForbidden
	}
	if stock < 0 {
		return nil, apperr.WithMessage(apperr.ErrInvalidProduct, "Stock cannot be negative")
	}

	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", stock)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrProductNotFound
	}

	slog.Info("product stock updated", "product_id", productID, "stock", stock)
	return s.Get(ctx, productID)
}

// List returns products, newest first. Viewers who can review products
// may filter by status; everyone else only sees approved products.
func (s *ProductService) List(ctx context.Context, viewer models.Actor, status models.ProductStatus, p utils.Pagination) ([]models.Product, int64, error) {
	if !viewer.Can(models.CapReviewProducts) {
		status = models.ProductApproved
	}

	query := s.db.WithContext(ctx).Model(&models.Product{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	if err := query.Order("created_at desc").Offset(p.Offset).Limit(p.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}
