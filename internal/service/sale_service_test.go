package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type mockSaleRepo struct {
	byID      map[string]*models.Sale
	byProduct map[string]*models.Sale
	created   []*models.Sale
}

func newMockSaleRepo(sales ...*models.Sale) *mockSaleRepo {
	repo := &mockSaleRepo{byID: make(map[string]*models.Sale), byProduct: make(map[string]*models.Sale)}
	for _, sale := range sales {
		repo.byID[sale.ID] = sale
		repo.byProduct[sale.ProductID] = sale
	}
	return repo
}

func (m *mockSaleRepo) List(_ context.Context, filter models.SaleFilter) ([]models.Sale, int, error) {
	var out []models.Sale
	for _, sale := range m.byID {
		if filter.DealerID != "" && sale.DealerID != filter.DealerID {
			continue
		}
		out = append(out, *sale)
	}
	return out, len(out), nil
}

func (m *mockSaleRepo) FindByID(_ context.Context, id string) (*models.Sale, error) {
	sale, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sale, nil
}

func (m *mockSaleRepo) FindByProduct(_ context.Context, productID string) (*models.Sale, error) {
	sale, ok := m.byProduct[productID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sale, nil
}

func (m *mockSaleRepo) Create(_ context.Context, sale *models.Sale) error {
	m.created = append(m.created, sale)
	m.byID[sale.ID] = sale
	m.byProduct[sale.ProductID] = sale
	return nil
}

type mockSaleProductRepo struct {
	byID     map[string]*models.Product
	statuses map[string]models.ProductStatus
}

func newMockSaleProductRepo(products ...*models.Product) *mockSaleProductRepo {
	repo := &mockSaleProductRepo{byID: make(map[string]*models.Product), statuses: make(map[string]models.ProductStatus)}
	for _, product := range products {
		repo.byID[product.ID] = product
	}
	return repo
}

func (m *mockSaleProductRepo) FindByID(_ context.Context, id string) (*models.Product, error) {
	product, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return product, nil
}

func (m *mockSaleProductRepo) UpdateStatus(_ context.Context, id string, status models.ProductStatus) error {
	m.statuses[id] = status
	if product, ok := m.byID[id]; ok {
		product.Status = status
	}
	return nil
}

func buildSaleService(sales *mockSaleRepo, products *mockSaleProductRepo, warrantyMonths int) *SaleService {
	catalog := &mockModelReader{model: &models.ProductModel{ID: "m1", WarrantyMonths: warrantyMonths, Active: true}}
	customers := &mockCustomerRepo{customer: &models.Customer{ID: "c1", UserID: "u1"}}
	return NewSaleService(sales, products, catalog, customers, nil, zap.NewNop())
}

func allocatedProduct() *models.Product {
	return &models.Product{ID: "p1", SerialNumber: "SN-001", ModelID: "m1", Status: models.ProductAllocated}
}

func TestSaleRecordMarksProductSold(t *testing.T) {
	sales := newMockSaleRepo()
	products := newMockSaleProductRepo(allocatedProduct())
	svc := buildSaleService(sales, products, 12)

	sale, err := svc.Record(context.Background(), RecordSaleRequest{
		ProductID:  "p1",
		CustomerID: "c1",
		Price:      4999.0,
	}, "dealer-1")
	require.NoError(t, err)

	assert.Equal(t, "dealer-1", sale.DealerID)
	assert.Equal(t, "c1", sale.CustomerID)
	assert.False(t, sale.SoldAt.IsZero())
	require.Len(t, sales.created, 1)
	assert.Equal(t, models.ProductSold, products.statuses["p1"])
}

func TestSaleRecordHonoursExplicitSoldAt(t *testing.T) {
	sales := newMockSaleRepo()
	products := newMockSaleProductRepo(allocatedProduct())
	svc := buildSaleService(sales, products, 12)

	soldAt := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	sale, err := svc.Record(context.Background(), RecordSaleRequest{
		ProductID:  "p1",
		CustomerID: "c1",
		SoldAt:     &soldAt,
	}, "dealer-1")
	require.NoError(t, err)
	assert.True(t, sale.SoldAt.Equal(soldAt))
}

func TestSaleRecordRejectsAlreadySold(t *testing.T) {
	product := allocatedProduct()
	product.Status = models.ProductSold
	sales := newMockSaleRepo()
	svc := buildSaleService(sales, newMockSaleProductRepo(product), 12)

	_, err := svc.Record(context.Background(), RecordSaleRequest{
		ProductID:  "p1",
		CustomerID: "c1",
	}, "dealer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, sales.created)
}

func TestSaleRecordUnknownProduct(t *testing.T) {
	svc := buildSaleService(newMockSaleRepo(), newMockSaleProductRepo(), 12)

	_, err := svc.Record(context.Background(), RecordSaleRequest{
		ProductID:  "missing",
		CustomerID: "c1",
	}, "dealer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSaleRecordUnknownCustomer(t *testing.T) {
	svc := buildSaleService(newMockSaleRepo(), newMockSaleProductRepo(allocatedProduct()), 12)

	_, err := svc.Record(context.Background(), RecordSaleRequest{
		ProductID:  "p1",
		CustomerID: "nobody",
	}, "dealer-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaleGetEvaluatesWarranty(t *testing.T) {
	soldAt := time.Now().UTC().AddDate(0, -6, 0)
	sale := &models.Sale{ID: "s1", ProductID: "p1", CustomerID: "c1", DealerID: "dealer-1", SoldAt: soldAt}
	svc := buildSaleService(newMockSaleRepo(sale), newMockSaleProductRepo(allocatedProduct()), 12)

	got, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, got.Warranty.InWarranty)
	assert.True(t, got.Warranty.ExpiresAt.Equal(soldAt.AddDate(0, 12, 0)))
}

func TestSaleWarrantyForProductExpired(t *testing.T) {
	soldAt := time.Now().UTC().AddDate(0, -13, 0)
	sale := &models.Sale{ID: "s1", ProductID: "p1", CustomerID: "c1", SoldAt: soldAt}
	svc := buildSaleService(newMockSaleRepo(sale), newMockSaleProductRepo(allocatedProduct()), 12)

	snapshot, err := svc.WarrantyForProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, snapshot.InWarranty)
}

func TestSaleWarrantyForProductNoSale(t *testing.T) {
	svc := buildSaleService(newMockSaleRepo(), newMockSaleProductRepo(allocatedProduct()), 12)

	_, err := svc.WarrantyForProduct(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSaleListScopedByDealer(t *testing.T) {
	sales := newMockSaleRepo(
		&models.Sale{ID: "s1", ProductID: "p1", DealerID: "dealer-1"},
		&models.Sale{ID: "s2", ProductID: "p2", DealerID: "dealer-2"},
	)
	svc := buildSaleService(sales, newMockSaleProductRepo(), 12)

	got, pagination, err := svc.List(context.Background(), models.SaleFilter{DealerID: "dealer-1", Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)
}
