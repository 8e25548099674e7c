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

// FactoryRepository provides database access for factories.
type FactoryRepository struct {
	db *sqlx.DB
}

// NewFactoryRepository creates a new instance of FactoryRepository.
func NewFactoryRepository(db *sqlx.DB) *FactoryRepository {
	return &FactoryRepository{db: db}
}

const factoryColumns = `id, code, name, state, city, contact_name, contact_phone, active, created_at, updated_at`

// FindByID returns a factory by identifier.
func (r *FactoryRepository) FindByID(ctx context.Context, id string) (*models.Factory, error) {
	query := fmt.Sprintf(`SELECT %s FROM factories WHERE id = $1 LIMIT 1`, factoryColumns)
	var factory models.Factory
	if err := r.db.GetContext(ctx, &factory, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find factory by id: %w", err)
	}
	return &factory, nil
}

// CodeExists reports whether a factory code is already taken, optionally
// excluding one record (used on update).
func (r *FactoryRepository) CodeExists(ctx context.Context, code, excludeID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM factories WHERE code = $1 AND id <> $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, code, excludeID); err != nil {
		return false, fmt.Errorf("check factory code: %w", err)
	}
	return count > 0, nil
}

// List returns factories based on filters with total count.
func (r *FactoryRepository) List(ctx context.Context, filter models.FactoryFilter) ([]models.Factory, int, error) {
	baseQuery := `FROM factories WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(state) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.State))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"code": true, "name": true, "created_at": true, "updated_at": true}
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", factoryColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var factories []models.Factory
	if err := r.db.SelectContext(ctx, &factories, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list factories: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count factories: %w", err)
	}

	return factories, total, nil
}

// Create inserts a new factory.
func (r *FactoryRepository) Create(ctx context.Context, factory *models.Factory) error {
	if factory.ID == "" {
		factory.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if factory.CreatedAt.IsZero() {
		factory.CreatedAt = now
	}
	factory.UpdatedAt = now

	const query = `INSERT INTO factories (id, code, name, state, city, contact_name, contact_phone, active, created_at, updated_at) VALUES (:id, :code, :name, :state, :city, :contact_name, :contact_phone, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, factory); err != nil {
		return fmt.Errorf("create factory: %w", err)
	}
	return nil
}

// Update persists mutable factory fields.
func (r *FactoryRepository) Update(ctx context.Context, factory *models.Factory) error {
	factory.UpdatedAt = time.Now().UTC()
	const query = `UPDATE factories SET code = :code, name = :name, state = :state, city = :city, contact_name = :contact_name, contact_phone = :contact_phone, active = :active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, factory)
	if err != nil {
		return fmt.Errorf("update factory: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-deletes a factory.
func (r *FactoryRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE factories SET active = false, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate factory: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
