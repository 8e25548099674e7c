package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/dto"
	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type replacementCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type orderCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type factoryCounter interface {
	List(ctx context.Context, filter models.FactoryFilter) ([]models.Factory, int, error)
}

type modelCounter interface {
	List(ctx context.Context, filter models.ProductModelFilter) ([]models.ProductModel, int, error)
}

type productCounter interface {
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error)
}

type technicianCounter interface {
	List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error)
}

type customerCounter interface {
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error)
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Replacements replacementCounter
	Orders       orderCounter
	Factories    factoryCounter
	Models       modelCounter
	Products     productCounter
	Technicians  technicianCounter
	Customers    customerCounter
	Cache        *CacheService
	Logger       *zap.Logger
	CacheTTL     time.Duration
}

// DashboardService aggregates headline counts for the admin dashboard,
// with a short-lived cache in front of the count queries.
type DashboardService struct {
	replacements replacementCounter
	orders       orderCounter
	factories    factoryCounter
	models       modelCounter
	products     productCounter
	technicians  technicianCounter
	customers    customerCounter
	cache        *CacheService
	logger       *zap.Logger
	cacheTTL     time.Duration
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		replacements: params.Replacements,
		orders:       params.Orders,
		factories:    params.Factories,
		models:       params.Models,
		products:     params.Products,
		technicians:  params.Technicians,
		customers:    params.Customers,
		cache:        params.Cache,
		logger:       logger,
		cacheTTL:     ttl,
	}
}

// Summary returns the dashboard aggregates and whether they came from cache.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, bool, error) {
	var cached dto.DashboardSummary
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	replacements, err := s.replacements.CountByStatus(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count replacements")
	}
	orders, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count orders")
	}

	totals, err := s.collectTotals(ctx)
	if err != nil {
		return nil, false, err
	}

	summary := &dto.DashboardSummary{
		Replacements: replacements,
		Orders:       orders,
		Totals:       *totals,
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}

	return summary, false, nil
}

// Invalidate drops the cached summary after a mutation that feeds it.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func (s *DashboardService) collectTotals(ctx context.Context) (*dto.DashboardTotals, error) {

	_, factories, err := s.factories.List(ctx, models.FactoryFilter{Page: 1, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count factories")
	}
	_, catalogModels, err := s.models.List(ctx, models.ProductModelFilter{Page: 1, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count models")
	}
	_, products, err := s.products.List(ctx, models.ProductFilter{Page: 1, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count products")
	}
	_, technicians, err := s.technicians.List(ctx, models.TechnicianFilter{Page: 1, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count technicians")
	}
	_, customers, err := s.customers.List(ctx, models.CustomerFilter{Page: 1, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count customers")
	}

	return &dto.DashboardTotals{
		Factories:   factories,
		Models:      catalogModels,
		Products:    products,
		Technicians: technicians,
		Customers:   customers,
	}, nil
}
