package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veloca-labs/mds-api/internal/dto"
	"github.com/veloca-labs/mds-api/internal/models"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
)

type mockBillingRepo struct {
	byScope map[models.BillingScope]*models.BillingCharges
	getErr  error
}

func newMockBillingRepo(charges ...*models.BillingCharges) *mockBillingRepo {
	repo := &mockBillingRepo{byScope: make(map[models.BillingScope]*models.BillingCharges)}
	for _, c := range charges {
		repo.byScope[c.Scope] = c
	}
	return repo
}

func (m *mockBillingRepo) GetByScope(_ context.Context, scope models.BillingScope) (*models.BillingCharges, error) {
	charges, ok := m.byScope[scope]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return charges, nil
}

func (m *mockBillingRepo) GetAll(_ context.Context) ([]models.BillingCharges, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []models.BillingCharges
	for _, charges := range m.byScope {
		out = append(out, *charges)
	}
	return out, nil
}

func (m *mockBillingRepo) Upsert(_ context.Context, charges *models.BillingCharges) error {
	m.byScope[charges.Scope] = charges
	return nil
}

func buildBillingService(repo *mockBillingRepo) (*BillingService, *mockAuditWriter) {
	audit := &mockAuditWriter{}
	return NewBillingService(repo, audit, nil, zap.NewNop()), audit
}

func TestBillingGetConfigZeroFillsMissingScopes(t *testing.T) {
	repo := newMockBillingRepo(&models.BillingCharges{
		Scope:         models.BillingOutOfWarranty,
		ServiceCharge: 75,
		TncURL:        "https://example.com/tnc",
	})
	svc, _ := buildBillingService(repo)

	config, err := svc.GetConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.BillingInWarranty, config.InWarranty.Scope)
	assert.Zero(t, config.InWarranty.ServiceCharge)
	assert.Equal(t, 75.0, config.OutOfWarranty.ServiceCharge)
}

func TestBillingUpdateCharges(t *testing.T) {
	repo := newMockBillingRepo()
	svc, audit := buildBillingService(repo)

	charges, err := svc.UpdateCharges(context.Background(), models.BillingOutOfWarranty, dto.UpdateBillingChargesRequest{
		ServiceCharge:     120,
		ReplacementCharge: 450,
		TncURL:            "https://example.com/tnc",
	}, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, 120.0, charges.ServiceCharge)
	assert.Equal(t, 450.0, charges.ReplacementCharge)
	require.NotNil(t, charges.UpdatedBy)
	assert.Equal(t, "admin-1", *charges.UpdatedBy)

	stored := repo.byScope[models.BillingOutOfWarranty]
	require.NotNil(t, stored)
	assert.Equal(t, 120.0, stored.ServiceCharge)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionBillingUpdate, audit.logs[0].Action)
	assert.Nil(t, audit.logs[0].OldValues, "first configuration has no previous values")
}

func TestBillingUpdateRecordsPreviousValues(t *testing.T) {
	repo := newMockBillingRepo(&models.BillingCharges{
		Scope:         models.BillingOutOfWarranty,
		ServiceCharge: 50,
	})
	svc, audit := buildBillingService(repo)

	_, err := svc.UpdateCharges(context.Background(), models.BillingOutOfWarranty, dto.UpdateBillingChargesRequest{
		ServiceCharge: 60,
	}, "admin-1")
	require.NoError(t, err)

	require.Len(t, audit.logs, 1)
	assert.NotEmpty(t, audit.logs[0].OldValues)
	assert.NotEmpty(t, audit.logs[0].NewValues)
}

func TestBillingUpdateRejectsUnknownScope(t *testing.T) {
	svc, audit := buildBillingService(newMockBillingRepo())

	_, err := svc.UpdateCharges(context.Background(), models.BillingScope("LEGACY"), dto.UpdateBillingChargesRequest{}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, audit.logs)
}

func TestBillingUpdateRejectsNegativeCharges(t *testing.T) {
	svc, _ := buildBillingService(newMockBillingRepo())

	_, err := svc.UpdateCharges(context.Background(), models.BillingInWarranty, dto.UpdateBillingChargesRequest{
		ServiceCharge: -5,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBillingUpdateRejectsMalformedTncURL(t *testing.T) {
	svc, _ := buildBillingService(newMockBillingRepo())

	_, err := svc.UpdateCharges(context.Background(), models.BillingInWarranty, dto.UpdateBillingChargesRequest{
		TncURL: "not a url",
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
