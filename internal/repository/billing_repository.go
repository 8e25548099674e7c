package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/veloca-labs/mds-api/internal/models"
)

// BillingRepository provides database access for billing charge configuration.
type BillingRepository struct {
	db *sqlx.DB
}

// NewBillingRepository creates a new instance of BillingRepository.
func NewBillingRepository(db *sqlx.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

const billingColumns = `scope, service_charge, replacement_charge, tnc_url, updated_by, updated_at`

// GetByScope returns the charge configuration for a warranty scope.
func (r *BillingRepository) GetByScope(ctx context.Context, scope models.BillingScope) (*models.BillingCharges, error) {
	query := fmt.Sprintf(`SELECT %s FROM billing_charges WHERE scope = $1 LIMIT 1`, billingColumns)
	var charges models.BillingCharges
	if err := r.db.GetContext(ctx, &charges, query, scope); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get billing charges by scope: %w", err)
	}
	return &charges, nil
}

// GetAll returns charge configuration for every scope.
func (r *BillingRepository) GetAll(ctx context.Context) ([]models.BillingCharges, error) {
	query := fmt.Sprintf(`SELECT %s FROM billing_charges ORDER BY scope`, billingColumns)
	var charges []models.BillingCharges
	if err := r.db.SelectContext(ctx, &charges, query); err != nil {
		return nil, fmt.Errorf("list billing charges: %w", err)
	}
	return charges, nil
}

// Upsert writes the charge configuration for a scope.
func (r *BillingRepository) Upsert(ctx context.Context, charges *models.BillingCharges) error {
	charges.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO billing_charges (scope, service_charge, replacement_charge, tnc_url, updated_by, updated_at)
		VALUES (:scope, :service_charge, :replacement_charge, :tnc_url, :updated_by, :updated_at)
		ON CONFLICT (scope) DO UPDATE SET
			service_charge = EXCLUDED.service_charge,
			replacement_charge = EXCLUDED.replacement_charge,
			tnc_url = EXCLUDED.tnc_url,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, charges); err != nil {
		return fmt.Errorf("upsert billing charges: %w", err)
	}
	return nil
}
