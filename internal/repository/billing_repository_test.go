package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloca-labs/mds-api/internal/models"
)

func newBillingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestBillingRepositoryGetByScope(t *testing.T) {
	db, mock, cleanup := newBillingRepoMock(t)
	defer cleanup()
	repo := NewBillingRepository(db)

	rows := sqlmock.NewRows([]string{"scope", "service_charge", "replacement_charge", "tnc_url", "updated_by", "updated_at"}).
		AddRow("OUT_OF_WARRANTY", 120.0, 450.0, "https://example.com/tnc", "admin-1", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM billing_charges WHERE scope").
		WithArgs(models.BillingOutOfWarranty).
		WillReturnRows(rows)

	charges, err := repo.GetByScope(context.Background(), models.BillingOutOfWarranty)
	require.NoError(t, err)
	assert.Equal(t, 120.0, charges.ServiceCharge)
	assert.Equal(t, 450.0, charges.ReplacementCharge)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBillingRepositoryGetByScopeMissing(t *testing.T) {
	db, mock, cleanup := newBillingRepoMock(t)
	defer cleanup()
	repo := NewBillingRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM billing_charges WHERE scope").
		WithArgs(models.BillingInWarranty).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByScope(context.Background(), models.BillingInWarranty)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBillingRepositoryGetAll(t *testing.T) {
	db, mock, cleanup := newBillingRepoMock(t)
	defer cleanup()
	repo := NewBillingRepository(db)

	rows := sqlmock.NewRows([]string{"scope", "service_charge", "replacement_charge", "tnc_url", "updated_by", "updated_at"}).
		AddRow("IN_WARRANTY", 0.0, 0.0, "https://example.com/tnc", nil, time.Now()).
		AddRow("OUT_OF_WARRANTY", 120.0, 450.0, "https://example.com/tnc", "admin-1", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM billing_charges ORDER BY scope").
		WillReturnRows(rows)

	all, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.BillingInWarranty, all[0].Scope)
	assert.Equal(t, models.BillingOutOfWarranty, all[1].Scope)
}

func TestBillingRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newBillingRepoMock(t)
	defer cleanup()
	repo := NewBillingRepository(db)

	mock.ExpectExec("INSERT INTO billing_charges").
		WillReturnResult(sqlmock.NewResult(1, 1))

	updatedBy := "admin-1"
	charges := &models.BillingCharges{
		Scope:             models.BillingOutOfWarranty,
		ServiceCharge:     120,
		ReplacementCharge: 450,
		TncURL:            "https://example.com/tnc",
		UpdatedBy:         &updatedBy,
	}
	require.NoError(t, repo.Upsert(context.Background(), charges))
	assert.False(t, charges.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
