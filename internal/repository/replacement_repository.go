package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/veloca-labs/mds-api/internal/models"
)

// ReplacementRepository provides database access for replacement requests.
type ReplacementRepository struct {
	db *sqlx.DB
}

// NewReplacementRepository creates a new instance of ReplacementRepository.
func NewReplacementRepository(db *sqlx.DB) *ReplacementRepository {
	return &ReplacementRepository{db: db}
}

const replacementColumns = `id, product_id, sale_id, customer_id, status, complaint_description, media_url, preferred_visit_date, in_warranty, warranty_expiry, technician_id, decided_by, decided_at, rejection_reason, service_outcome, diagnosis_notes, started_at, completed_at, created_at, updated_at`

// FindByID returns a replacement request with its repaired parts.
func (r *ReplacementRepository) FindByID(ctx context.Context, id string) (*models.ReplacementRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM replacement_requests WHERE id = $1 LIMIT 1`, replacementColumns)
	var request models.ReplacementRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find replacement request by id: %w", err)
	}

	parts, err := r.listParts(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	request.RepairedParts = parts[id]
	return &request, nil
}

// List returns replacement requests based on filters with total count.
func (r *ReplacementRepository) List(ctx context.Context, filter models.ReplacementFilter) ([]models.ReplacementRequest, int, error) {
	baseQuery := `FROM replacement_requests WHERE 1=1`
	var conditions []string
	var args []interface{}

	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, pq.StringArray(statuses))
	}
	if filter.CustomerID != "" {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)+1))
		args = append(args, filter.CustomerID)
	}
	if filter.TechnicianID != "" {
		conditions = append(conditions, fmt.Sprintf("technician_id = $%d", len(args)+1))
		args = append(args, filter.TechnicianID)
	}
	if filter.ProductID != "" {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", len(args)+1))
		args = append(args, filter.ProductID)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"created_at": true, "updated_at": true, "status": true}
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", replacementColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var requests []models.ReplacementRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list replacement requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count replacement requests: %w", err)
	}

	if len(requests) > 0 {
		ids := make([]string, len(requests))
		for i := range requests {
			ids[i] = requests[i].ID
		}
		parts, err := r.listParts(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range requests {
			requests[i].RepairedParts = parts[requests[i].ID]
		}
	}

	return requests, total, nil
}

// Create inserts a new replacement request.
func (r *ReplacementRepository) Create(ctx context.Context, request *models.ReplacementRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO replacement_requests (id, product_id, sale_id, customer_id, status, complaint_description, media_url, preferred_visit_date, in_warranty, warranty_expiry, created_at, updated_at) VALUES (:id, :product_id, :sale_id, :customer_id, :status, :complaint_description, :media_url, :preferred_visit_date, :in_warranty, :warranty_expiry, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create replacement request: %w", err)
	}
	return nil
}

// TransitionParams carries a guarded status transition and its metadata.
type TransitionParams struct {
	ID              string
	From            models.ReplacementStatus
	To              models.ReplacementStatus
	TechnicianID    *string
	DecidedBy       *string
	DecidedAt       *time.Time
	RejectionReason *string
	ServiceOutcome  *models.ServiceOutcome
	DiagnosisNotes  *string
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// Transition updates the request status guarded on the expected current
// status. Returns sql.ErrNoRows when the request is missing or another
// actor moved it first.
func (r *ReplacementRepository) Transition(ctx context.Context, params TransitionParams) error {
	const query = `UPDATE replacement_requests SET
		status = $3,
		technician_id = COALESCE($4, technician_id),
		decided_by = COALESCE($5, decided_by),
		decided_at = COALESCE($6, decided_at),
		rejection_reason = COALESCE($7, rejection_reason),
		service_outcome = COALESCE($8, service_outcome),
		diagnosis_notes = COALESCE($9, diagnosis_notes),
		started_at = COALESCE($10, started_at),
		completed_at = COALESCE($11, completed_at),
		updated_at = $12
		WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query,
		params.ID,
		params.From,
		params.To,
		params.TechnicianID,
		params.DecidedBy,
		params.DecidedAt,
		params.RejectionReason,
		params.ServiceOutcome,
		params.DiagnosisNotes,
		params.StartedAt,
		params.CompletedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("transition replacement request: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReplaceParts swaps the repaired parts recorded for a request.
func (r *ReplacementRepository) ReplaceParts(ctx context.Context, requestID string, parts []models.RepairedPart) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin parts tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM repaired_parts WHERE replacement_id = $1`, requestID); err != nil {
		return fmt.Errorf("clear repaired parts: %w", err)
	}
	for i := range parts {
		if parts[i].ID == "" {
			parts[i].ID = uuid.NewString()
		}
		parts[i].ReplacementID = requestID
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO repaired_parts (id, replacement_id, name, cost) VALUES (:id, :replacement_id, :name, :cost)`, parts[i]); err != nil {
			return fmt.Errorf("insert repaired part: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit parts tx: %w", err)
	}
	return nil
}

// CountByStatus aggregates requests per status for dashboards.
func (r *ReplacementRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM replacement_requests GROUP BY status`
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count replacement requests by status: %w", err)
	}
	result := make(map[string]int, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Count
	}
	return result, nil
}

func (r *ReplacementRepository) listParts(ctx context.Context, requestIDs []string) (map[string][]models.RepairedPart, error) {
	const query = `SELECT id, replacement_id, name, cost FROM repaired_parts WHERE replacement_id = ANY($1)`
	var parts []models.RepairedPart
	if err := r.db.SelectContext(ctx, &parts, query, pq.StringArray(requestIDs)); err != nil {
		return nil, fmt.Errorf("list repaired parts: %w", err)
	}
	grouped := make(map[string][]models.RepairedPart)
	for _, part := range parts {
		grouped[part.ReplacementID] = append(grouped[part.ReplacementID], part)
	}
	return grouped, nil
}
