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

// TechnicianRepository provides database access for technicians.
type TechnicianRepository struct {
	db *sqlx.DB
}

// NewTechnicianRepository creates a new instance of TechnicianRepository.
func NewTechnicianRepository(db *sqlx.DB) *TechnicianRepository {
	return &TechnicianRepository{db: db}
}

const technicianColumns = `id, code, full_name, phone, state, city, active, created_at, updated_at`

// FindByID returns a technician by identifier.
func (r *TechnicianRepository) FindByID(ctx context.Context, id string) (*models.Technician, error) {
	query := fmt.Sprintf(`SELECT %s FROM technicians WHERE id = $1 LIMIT 1`, technicianColumns)
	var technician models.Technician
	if err := r.db.GetContext(ctx, &technician, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find technician by id: %w", err)
	}
	return &technician, nil
}

// CodeExists reports whether a technician code is already taken.
func (r *TechnicianRepository) CodeExists(ctx context.Context, code, excludeID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM technicians WHERE code = $1 AND id <> $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, code, excludeID); err != nil {
		return false, fmt.Errorf("check technician code: %w", err)
	}
	return count > 0, nil
}

// ListActive returns every active technician, unpaginated, for assignment
// candidate partitioning.
func (r *TechnicianRepository) ListActive(ctx context.Context) ([]models.Technician, error) {
	query := fmt.Sprintf(`SELECT %s FROM technicians WHERE active = true`, technicianColumns)
	var technicians []models.Technician
	if err := r.db.SelectContext(ctx, &technicians, query); err != nil {
		return nil, fmt.Errorf("list active technicians: %w", err)
	}
	return technicians, nil
}

// List returns technicians based on filters with total count.
func (r *TechnicianRepository) List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error) {
	baseQuery := `FROM technicians WHERE 1=1`
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
	if filter.City != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(city) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.City))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"code": true, "full_name": true, "created_at": true}
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", technicianColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var technicians []models.Technician
	if err := r.db.SelectContext(ctx, &technicians, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list technicians: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count technicians: %w", err)
	}

	return technicians, total, nil
}

// Create inserts a new technician.
func (r *TechnicianRepository) Create(ctx context.Context, technician *models.Technician) error {
	if technician.ID == "" {
		technician.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if technician.CreatedAt.IsZero() {
		technician.CreatedAt = now
	}
	technician.UpdatedAt = now

	const query = `INSERT INTO technicians (id, code, full_name, phone, state, city, active, created_at, updated_at) VALUES (:id, :code, :full_name, :phone, :state, :city, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, technician); err != nil {
		return fmt.Errorf("create technician: %w", err)
	}
	return nil
}

// Update persists mutable technician fields.
func (r *TechnicianRepository) Update(ctx context.Context, technician *models.Technician) error {
	technician.UpdatedAt = time.Now().UTC()
	const query = `UPDATE technicians SET code = :code, full_name = :full_name, phone = :phone, state = :state, city = :city, active = :active, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, technician)
	if err != nil {
		return fmt.Errorf("update technician: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-deletes a technician.
func (r *TechnicianRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE technicians SET active = false, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate technician: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
