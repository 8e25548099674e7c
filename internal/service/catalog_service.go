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

type categoryRepository interface {
	List(ctx context.Context, filter models.CategoryFilter) ([]models.Category, int, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
}

type productModelRepository interface {
	List(ctx context.Context, filter models.ProductModelFilter) ([]models.ProductModel, int, error)
	FindByID(ctx context.Context, id string) (*models.ProductModel, error)
	CodeExists(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, model *models.ProductModel) error
	Update(ctx context.Context, model *models.ProductModel) error
}

// CategoryRequest is the payload for creating or updating a category.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

// CreateProductModelRequest is the payload for registering a model.
type CreateProductModelRequest struct {
	Code           string  `json:"code" validate:"required,min=2,max=32"`
	Name           string  `json:"name" validate:"required"`
	CategoryID     string  `json:"category_id" validate:"required"`
	FactoryID      string  `json:"factory_id" validate:"required"`
	WarrantyMonths int     `json:"warranty_months" validate:"gte=0"`
	Price          float64 `json:"price" validate:"gte=0"`
}

// UpdateProductModelRequest is the payload for modifying a model.
type UpdateProductModelRequest struct {
	Name           string  `json:"name" validate:"required"`
	CategoryID     string  `json:"category_id" validate:"required"`
	WarrantyMonths int     `json:"warranty_months" validate:"gte=0"`
	Price          float64 `json:"price" validate:"gte=0"`
	Active         *bool   `json:"active"`
}

// CatalogService manages categories and product models.
type CatalogService struct {
	categories categoryRepository
	catalog    productModelRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCatalogService creates an instance of CatalogService.
func NewCatalogService(categories categoryRepository, catalog productModelRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogService{categories: categories, catalog: catalog, validator: validate, logger: logger}
}

// ListCategories returns paginated categories.
func (s *CatalogService) ListCategories(ctx context.Context, filter models.CategoryFilter) ([]models.Category, *models.Pagination, error) {
	categories, total, err := s.categories.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, paginationFor(filter.Page, filter.PageSize, total), nil
}

// CreateCategory adds a new category.
func (s *CatalogService) CreateCategory(ctx context.Context, req CategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category := &models.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	return category, nil
}

// UpdateCategory modifies a category.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	category.Name = req.Name
	category.Description = req.Description
	if req.Active != nil {
		category.Active = *req.Active
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	return category, nil
}

// ListModels returns paginated product models.
func (s *CatalogService) ListModels(ctx context.Context, filter models.ProductModelFilter) ([]models.ProductModel, *models.Pagination, error) {
	catalogModels, total, err := s.catalog.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list product models")
	}
	return catalogModels, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetModel returns a product model by ID.
func (s *CatalogService) GetModel(ctx context.Context, id string) (*models.ProductModel, error) {
	model, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product model not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product model")
	}
	return model, nil
}

// CreateModel registers a new product model with a unique code.
func (s *CatalogService) CreateModel(ctx context.Context, req CreateProductModelRequest) (*models.ProductModel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid product model payload")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.catalog.CodeExists(ctx, code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check model code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateCode, "model code already in use")
	}

	model := &models.ProductModel{
		ID:             uuid.NewString(),
		Code:           code,
		Name:           req.Name,
		CategoryID:     req.CategoryID,
		FactoryID:      req.FactoryID,
		WarrantyMonths: req.WarrantyMonths,
		Price:          req.Price,
		Active:         true,
	}

	if err := s.catalog.Create(ctx, model); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create product model")
	}
	return model, nil
}

// UpdateModel modifies a product model. The code and factory are immutable.
func (s *CatalogService) UpdateModel(ctx context.Context, id string, req UpdateProductModelRequest) (*models.ProductModel, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid product model payload")
	}

	model, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product model not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product model")
	}

	model.Name = req.Name
	model.CategoryID = req.CategoryID
	model.WarrantyMonths = req.WarrantyMonths
	model.Price = req.Price
	if req.Active != nil {
		model.Active = *req.Active
	}

	if err := s.catalog.Update(ctx, model); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update product model")
	}
	return model, nil
}

// ModelCodeAvailable reports whether a product model code is free to use.
func (s *CatalogService) ModelCodeAvailable(ctx context.Context, code string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "code is required")
	}
	exists, err := s.catalog.CodeExists(ctx, code, "")
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check model code")
	}
	return !exists, nil
}
