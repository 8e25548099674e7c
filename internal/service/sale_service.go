package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type saleRepository interface {
	List(ctx context.Context, filter models.SaleFilter) ([]models.Sale, int, error)
	FindByID(ctx context.Context, id string) (*models.Sale, error)
	FindByProduct(ctx context.Context, productID string) (*models.Sale, error)
	Create(ctx context.Context, sale *models.Sale) error
}

type saleProductRepository interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	UpdateStatus(ctx context.Context, id string, status models.ProductStatus) error
}

type customerReader interface {
	FindByID(ctx context.Context, id string) (*models.Customer, error)
}

// RecordSaleRequest is the payload for recording a dealer sale.
type RecordSaleRequest struct {
	ProductID  string     `json:"product_id" validate:"required"`
	CustomerID string     `json:"customer_id" validate:"required"`
	Price      float64    `json:"price" validate:"gte=0"`
	SoldAt     *time.Time `json:"sold_at,omitempty"`
}

// SaleWithWarranty decorates a sale with its current warranty evaluation.
type SaleWithWarranty struct {
	models.Sale
	Warranty models.WarrantySnapshot `json:"warranty"`
}

// SaleService records sales and evaluates warranty state.
type SaleService struct {
	sales     saleRepository
	products  saleProductRepository
	catalog   productModelReader
	customers customerReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSaleService creates an instance of SaleService.
func NewSaleService(sales saleRepository, products saleProductRepository, catalog productModelReader, customers customerReader, validate *validator.Validate, logger *zap.Logger) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SaleService{sales: sales, products: products, catalog: catalog, customers: customers, validator: validate, logger: logger}
}

// List returns paginated sales.
func (s *SaleService) List(ctx context.Context, filter models.SaleFilter) ([]models.Sale, *models.Pagination, error) {
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sales")
	}
	return sales, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a sale with its warranty evaluated against the current time.
func (s *SaleService) Get(ctx context.Context, id string) (*SaleWithWarranty, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sale not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sale")
	}

	snapshot, err := s.warrantyFor(ctx, sale)
	if err != nil {
		return nil, err
	}
	return &SaleWithWarranty{Sale: *sale, Warranty: snapshot}, nil
}

// Record registers a sale of an allocated product to a customer and marks
// the unit SOLD. The sale date anchors warranty computation from then on.
func (s *SaleService) Record(ctx context.Context, req RecordSaleRequest, dealerID string) (*models.Sale, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sale payload")
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	if product.Status == models.ProductSold {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "product is already sold")
	}

	if _, err := s.customers.FindByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown customer")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}

	soldAt := time.Now().UTC()
	if req.SoldAt != nil {
		soldAt = req.SoldAt.UTC()
	}

	sale := &models.Sale{
		ID:         uuid.NewString(),
		ProductID:  req.ProductID,
		CustomerID: req.CustomerID,
		DealerID:   dealerID,
		Price:      req.Price,
		SoldAt:     soldAt,
	}

	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record sale")
	}

	if err := s.products.UpdateStatus(ctx, product.ID, models.ProductSold); err != nil {
		s.logger.Error("failed to mark product sold after sale", zap.String("product_id", product.ID), zap.Error(err))
	}

	return sale, nil
}

// WarrantyForProduct evaluates the warranty of the latest sale of a product.
func (s *SaleService) WarrantyForProduct(ctx context.Context, productID string) (*models.WarrantySnapshot, error) {
	sale, err := s.sales.FindByProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no sale recorded for product")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sale")
	}

	snapshot, err := s.warrantyFor(ctx, sale)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *SaleService) warrantyFor(ctx context.Context, sale *models.Sale) (models.WarrantySnapshot, error) {
	product, err := s.products.FindByID(ctx, sale.ProductID)
	if err != nil {
		return models.WarrantySnapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	model, err := s.catalog.FindByID(ctx, product.ModelID)
	if err != nil {
		return models.WarrantySnapshot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product model")
	}
	return sale.WarrantyAt(time.Now().UTC(), model.WarrantyMonths), nil
}
