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

// CategoryRepository provides database access for categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindByID returns a category by identifier.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	const query = `SELECT id, name, description, active, created_at, updated_at FROM categories WHERE id = $1 LIMIT 1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return &category, nil
}

// List returns categories based on filters with total count.
func (r *CategoryRepository) List(ctx context.Context, filter models.CategoryFilter) ([]models.Category, int, error) {
	baseQuery := `FROM categories WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
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

	listQuery := fmt.Sprintf("SELECT id, name, description, active, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	return categories, total, nil
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now

	const query = `INSERT INTO categories (id, name, description, active, created_at, updated_at) VALUES (:id, :name, :description, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update persists mutable category fields.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = :name, description = :description, active = :active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, category)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ProductModelRepository provides database access for product models.
type ProductModelRepository struct {
	db *sqlx.DB
}

// NewProductModelRepository creates a new instance of ProductModelRepository.
func NewProductModelRepository(db *sqlx.DB) *ProductModelRepository {
	return &ProductModelRepository{db: db}
}

const modelColumns = `id, code, name, category_id, factory_id, warranty_months, price, active, created_at, updated_at`

// FindByID returns a product model by identifier.
func (r *ProductModelRepository) FindByID(ctx context.Context, id string) (*models.ProductModel, error) {
	query := fmt.Sprintf(`SELECT %s FROM product_models WHERE id = $1 LIMIT 1`, modelColumns)
	var model models.ProductModel
	if err := r.db.GetContext(ctx, &model, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find product model by id: %w", err)
	}
	return &model, nil
}

// CodeExists reports whether a model code is already taken.
func (r *ProductModelRepository) CodeExists(ctx context.Context, code, excludeID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM product_models WHERE code = $1 AND id <> $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, code, excludeID); err != nil {
		return false, fmt.Errorf("check model code: %w", err)
	}
	return count > 0, nil
}

// List returns product models based on filters with total count.
func (r *ProductModelRepository) List(ctx context.Context, filter models.ProductModelFilter) ([]models.ProductModel, int, error) {
	baseQuery := `FROM product_models WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.FactoryID != "" {
		conditions = append(conditions, fmt.Sprintf("factory_id = $%d", len(args)+1))
		args = append(args, filter.FactoryID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"code": true, "name": true, "price": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", modelColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var result []models.ProductModel
	if err := r.db.SelectContext(ctx, &result, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list product models: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count product models: %w", err)
	}

	return result, total, nil
}

// Create inserts a new product model.
func (r *ProductModelRepository) Create(ctx context.Context, model *models.ProductModel) error {
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	const query = `INSERT INTO product_models (id, code, name, category_id, factory_id, warranty_months, price, active, created_at, updated_at) VALUES (:id, :code, :name, :category_id, :factory_id, :warranty_months, :price, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("create product model: %w", err)
	}
	return nil
}

// Update persists mutable product model fields.
func (r *ProductModelRepository) Update(ctx context.Context, model *models.ProductModel) error {
	model.UpdatedAt = time.Now().UTC()
	const query = `UPDATE product_models SET code = :code, name = :name, category_id = :category_id, factory_id = :factory_id, warranty_months = :warranty_months, price = :price, active = :active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, model)
	if err != nil {
		return fmt.Errorf("update product model: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
