package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type productRepository interface {
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	SerialExists(ctx context.Context, serial, excludeID string) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	UpdateStatus(ctx context.Context, id string, status models.ProductStatus) error
}

type productModelReader interface {
	FindByID(ctx context.Context, id string) (*models.ProductModel, error)
}

// RegisterProductRequest is the payload for registering serialised units.
type RegisterProductRequest struct {
	SerialNumber string `json:"serial_number" validate:"required,min=4"`
	ModelID      string `json:"model_id" validate:"required"`
}

// AllocateProductRequest moves a unit down the distribution chain.
type AllocateProductRequest struct {
	DistributorID *string `json:"distributor_id"`
	DealerID      *string `json:"dealer_id"`
}

// ProductService manages serialised inventory units.
type ProductService struct {
	products  productRepository
	catalog   productModelReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProductService creates an instance of ProductService.
func NewProductService(products productRepository, catalog productModelReader, validate *validator.Validate, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProductService{products: products, catalog: catalog, validator: validate, logger: logger}
}

// List returns paginated products.
func (s *ProductService) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, *models.Pagination, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list products")
	}
	return products, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a product by ID.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	return product, nil
}

// Register records a new serialised unit in IN_STOCK state.
func (s *ProductService) Register(ctx context.Context, req RegisterProductRequest) (*models.Product, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid product payload")
	}

	serial := strings.ToUpper(strings.TrimSpace(req.SerialNumber))
	exists, err := s.products.SerialExists(ctx, serial, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check serial number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateCode, "serial number already registered")
	}

	if _, err := s.catalog.FindByID(ctx, req.ModelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown product model")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product model")
	}

	product := &models.Product{
		ID:           uuid.NewString(),
		SerialNumber: serial,
		ModelID:      req.ModelID,
		Status:       models.ProductInStock,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register product")
	}
	return product, nil
}

// Allocate assigns a unit to a distributor or dealer and marks it ALLOCATED.
// Sold units cannot be reallocated.
func (s *ProductService) Allocate(ctx context.Context, id string, req AllocateProductRequest) (*models.Product, error) {
	if req.DistributorID == nil && req.DealerID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "distributor or dealer is required")
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}

	if product.Status == models.ProductSold {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "sold products cannot be reallocated")
	}

	if req.DistributorID != nil {
		product.DistributorID = req.DistributorID
	}
	if req.DealerID != nil {
		product.DealerID = req.DealerID
	}
	product.Status = models.ProductAllocated

	if err := s.products.Update(ctx, product); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate product")
	}
	return product, nil
}
