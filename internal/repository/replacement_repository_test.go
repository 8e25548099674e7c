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

func newReplacementRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func replacementRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "product_id", "sale_id", "customer_id", "status",
		"complaint_description", "media_url", "preferred_visit_date",
		"in_warranty", "warranty_expiry", "technician_id", "decided_by",
		"decided_at", "rejection_reason", "service_outcome", "diagnosis_notes",
		"started_at", "completed_at", "created_at", "updated_at",
	})
}

func TestReplacementRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newReplacementRepoMock(t)
	defer cleanup()
	repo := NewReplacementRepository(db)

	now := time.Now().UTC()
	rows := replacementRows().AddRow(
		"r1", "p1", "s1", "c1", "PENDING",
		"unit stopped working", nil, nil,
		true, now.AddDate(0, 6, 0), nil, nil,
		nil, nil, nil, nil,
		nil, nil, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM replacement_requests WHERE id").
		WithArgs("r1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT id, replacement_id, name, cost FROM repaired_parts").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "replacement_id", "name", "cost"}).
			AddRow("part-1", "r1", "compressor", 220.0))

	request, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.ReplacementPending, request.Status)
	require.Len(t, request.RepairedParts, 1)
	assert.Equal(t, "compressor", request.RepairedParts[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacementRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newReplacementRepoMock(t)
	defer cleanup()
	repo := NewReplacementRepository(db)

	now := time.Now().UTC()
	rows := replacementRows().AddRow(
		"r1", "p1", "s1", "c1", "ASSIGNED",
		"no cooling", nil, nil,
		true, now.AddDate(0, 6, 0), "t1", "admin-1",
		now, nil, nil, nil,
		nil, nil, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM replacement_requests WHERE 1=1 AND status = ANY").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM replacement_requests").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, replacement_id, name, cost FROM repaired_parts").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "replacement_id", "name", "cost"}))

	requests, total, err := repo.List(context.Background(), models.ReplacementFilter{
		Status:   []models.ReplacementStatus{models.ReplacementAssigned},
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, requests, 1)
	assert.Equal(t, models.ReplacementAssigned, requests[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacementRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newReplacementRepoMock(t)
	defer cleanup()
	repo := NewReplacementRepository(db)

	mock.ExpectExec("INSERT INTO replacement_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.ReplacementRequest{
		ProductID:            "p1",
		SaleID:               "s1",
		CustomerID:           "c1",
		Status:               models.ReplacementPending,
		ComplaintDescription: "unit stopped working",
		InWarranty:           true,
	}
	require.NoError(t, repo.Create(context.Background(), request))
	assert.NotEmpty(t, request.ID)
	assert.False(t, request.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacementRepositoryTransitionGuard(t *testing.T) {
	db, mock, cleanup := newReplacementRepoMock(t)
	defer cleanup()
	repo := NewReplacementRepository(db)

	mock.ExpectExec("UPDATE replacement_requests SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	technicianID := "t1"
	err := repo.Transition(context.Background(), TransitionParams{
		ID:           "r1",
		From:         models.ReplacementPending,
		To:           models.ReplacementAssigned,
		TechnicianID: &technicianID,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacementRepositoryTransitionZeroRowsIsConflict(t *testing.T) {
	db, mock, cleanup := newReplacementRepoMock(t)
	defer cleanup()
	repo := NewReplacementRepository(db)

	// Guarded UPDATE matches nothing when another actor moved the request.
	mock.ExpectExec("UPDATE replacement_requests SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Transition(context.Background(), TransitionParams{
		ID:   "r1",
		From: models.ReplacementPending,
		To:   models.ReplacementRejected,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacementRepositoryReplaceParts(t *testing.T) {
	db, mock, cleanup := newReplacementRepoMock(t)
	defer cleanup()
	repo := NewReplacementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM repaired_parts").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO repaired_parts").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	parts := []models.RepairedPart{{Name: "compressor", Cost: 220}}
	require.NoError(t, repo.ReplaceParts(context.Background(), "r1", parts))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacementRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newReplacementRepoMock(t)
	defer cleanup()
	repo := NewReplacementRepository(db)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count FROM replacement_requests GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("PENDING", 3).
			AddRow("COMPLETED", 7))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts["PENDING"])
	assert.Equal(t, 7, counts["COMPLETED"])
	require.NoError(t, mock.ExpectationsWereMet())
}
