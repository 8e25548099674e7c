package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/veloca-labs/mds-api/internal/models"
)

// SaleRepository provides database access for sales records.
type SaleRepository struct {
	db *sqlx.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sqlx.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

const saleColumns = `id, product_id, customer_id, dealer_id, price, sold_at, created_at`

// FindByID returns a sale by identifier.
func (r *SaleRepository) FindByID(ctx context.Context, id string) (*models.Sale, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales WHERE id = $1 LIMIT 1`, saleColumns)
	var sale models.Sale
	if err := r.db.GetContext(ctx, &sale, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find sale by id: %w", err)
	}
	return &sale, nil
}

// FindByProduct returns the sale covering a product, if any.
func (r *SaleRepository) FindByProduct(ctx context.Context, productID string) (*models.Sale, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales WHERE product_id = $1 ORDER BY sold_at DESC LIMIT 1`, saleColumns)
	var sale models.Sale
	if err := r.db.GetContext(ctx, &sale, query, productID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find sale by product: %w", err)
	}
	return &sale, nil
}

// List returns sales based on filters with total count.
func (r *SaleRepository) List(ctx context.Context, filter models.SaleFilter) ([]models.Sale, int, error) {
	baseQuery := `FROM sales WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.CustomerID != "" {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)+1))
		args = append(args, filter.CustomerID)
	}
	if filter.DealerID != "" {
		conditions = append(conditions, fmt.Sprintf("dealer_id = $%d", len(args)+1))
		args = append(args, filter.DealerID)
	}
	if filter.ProductID != "" {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", len(args)+1))
		args = append(args, filter.ProductID)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"sold_at": true, "price": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "sold_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", saleColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var sales []models.Sale
	if err := r.db.SelectContext(ctx, &sales, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	return sales, total, nil
}

// Create inserts a new sale.
func (r *SaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.SoldAt.IsZero() {
		sale.SoldAt = sale.CreatedAt
	}

	const query = `INSERT INTO sales (id, product_id, customer_id, dealer_id, price, sold_at, created_at) VALUES (:id, :product_id, :customer_id, :dealer_id, :price, :sold_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sale); err != nil {
		return fmt.Errorf("create sale: %w", err)
	}
	return nil
}
